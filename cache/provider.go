package cache

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/singleflight"

	"github.com/Station-Manager/jsonmapper/descriptor"
	"github.com/Station-Manager/jsonmapper/property"
)

// DefaultTimeout bounds each store round trip.
const DefaultTimeout = 500 * time.Millisecond

// Provider is a property.TypeProvider that memoizes another provider in a Store.
// Store failures are logged and treated as misses; they never reach the caller.
type Provider struct {
	next    property.TypeProvider
	store   Store
	logger  logr.Logger
	timeout time.Duration
	group   singleflight.Group
}

type ProviderOption func(*Provider)

func WithLogger(l logr.Logger) ProviderOption { return func(p *Provider) { p.logger = l } }

func WithTimeout(d time.Duration) ProviderOption { return func(p *Provider) { p.timeout = d } }

func NewProvider(next property.TypeProvider, store Store, opts ...ProviderOption) *Provider {
	p := &Provider{next: next, store: store, logger: logr.Discard(), timeout: DefaultTimeout}
	for _, o := range opts {
		o(p)
	}
	return p
}

// PropertyType implements property.TypeProvider.
func (p *Provider) PropertyType(class, prop string) (descriptor.Descriptor, error) {
	key := Key(class, prop)
	if d, ok := p.lookup(key); ok {
		return d, nil
	}
	p.logger.V(1).Info("type cache miss", "class", class, "property", prop)

	v, err, _ := p.group.Do(key, func() (any, error) {
		if d, ok := p.lookup(key); ok {
			return d, nil
		}
		d, err := p.next.PropertyType(class, prop)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.store.Put(ctx, key, d); err != nil {
			p.logger.Error(err, "type cache put failed", "key", key)
		}
		return d, nil
	})
	if err != nil {
		return descriptor.Descriptor{}, err
	}
	return v.(descriptor.Descriptor), nil
}

func (p *Provider) lookup(key string) (descriptor.Descriptor, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	d, ok, err := p.store.Get(ctx, key)
	if err != nil {
		p.logger.Error(err, "type cache get failed", "key", key)
		return descriptor.Descriptor{}, false
	}
	return d, ok
}
