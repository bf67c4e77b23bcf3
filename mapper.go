package jsonmapper

import (
	stderrors "errors"
	"strconv"
	"sync"

	"github.com/Station-Manager/errors"
	"github.com/go-logr/logr"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/Station-Manager/jsonmapper/cache"
	"github.com/Station-Manager/jsonmapper/classes"
	"github.com/Station-Manager/jsonmapper/collection"
	"github.com/Station-Manager/jsonmapper/config"
	"github.com/Station-Manager/jsonmapper/custom"
	"github.com/Station-Manager/jsonmapper/descriptor"
	"github.com/Station-Manager/jsonmapper/mapping"
	"github.com/Station-Manager/jsonmapper/naming"
	"github.com/Station-Manager/jsonmapper/property"
	"github.com/Station-Manager/jsonmapper/resolver"
	"github.com/Station-Manager/jsonmapper/strategy"
)

// Mapper hydrates registered Go types from decoded JSON. It is safe for
// concurrent use; every call runs with its own mapping.Context.
type Mapper struct {
	registry   *classes.Registry
	reflection *property.Reflection
	types      property.TypeProvider
	writer     *property.Writer
	handlers   *custom.Registry
	names      naming.Converter
	resolver   *resolver.Resolver
	config     config.Configuration
	logger     logr.Logger
	strategies []strategy.Strategy
	seenPool   sync.Pool // map[string]bool reuse
}

// New creates a Mapper. The default configuration is lenient with error collection on.
func New(opts ...Option) (*Mapper, error) {
	o := Options{Configuration: config.Default(), Logger: logr.Discard()}
	for _, f := range opts {
		f(&o)
	}
	if o.Registry == nil {
		o.Registry = classes.NewRegistry()
	}
	if o.Handlers == nil {
		o.Handlers = custom.NewRegistry()
	}

	var ropts []property.ReflectionOption
	if o.DefaultType != nil {
		ropts = append(ropts, property.WithDefaultType(*o.DefaultType))
	}
	m := &Mapper{
		registry:   o.Registry,
		reflection: property.NewReflection(o.Registry, ropts...),
		handlers:   o.Handlers,
		names:      o.NameConverter,
		config:     o.Configuration,
		logger:     o.Logger,
		strategies: o.Strategies,
	}
	m.writer = property.NewWriter(m.reflection)
	m.types = m.reflection
	if o.TypeProvider != nil {
		m.types = o.TypeProvider
	}
	if o.TypeCache != nil {
		m.types = cache.NewProvider(m.types, o.TypeCache, cache.WithLogger(o.Logger.WithName("typecache")))
	}
	res, err := resolver.New(o.Registry, o.ClassMap)
	if err != nil {
		return nil, err
	}
	m.resolver = res
	m.seenPool = sync.Pool{New: func() any { return (map[string]bool)(nil) }}
	return m, nil
}

// Registry returns the class registry, for registering target types.
func (m *Mapper) Registry() *classes.Registry { return m.registry }

// Handlers returns the custom handler registry.
func (m *Mapper) Handlers() *custom.Registry { return m.handlers }

// Reflection returns the reflection type provider, for explicit property declarations.
func (m *Mapper) Reflection() *property.Reflection { return m.reflection }

// Configuration returns the default mapping policy.
func (m *Mapper) Configuration() config.Configuration { return m.config }

// WarmMetadata pre-builds property metadata for the given values or types.
func (m *Mapper) WarmMetadata(examples ...any) { m.reflection.WarmMetadata(examples...) }

// Map converts json into an instance of target. With an empty target json is
// returned unchanged. Strict configurations return the first data error;
// lenient ones drop the errors and return the best-effort value.
func (m *Mapper) Map(json any, target string, opts ...CallOption) (any, error) {
	r, err := m.newRun(json, false, opts)
	if err != nil {
		return nil, err
	}
	return r.root(target)
}

// MapWithReport is Map that never returns data errors: they are collected
// in the result's report. Configuration errors are still returned.
func (m *Mapper) MapWithReport(json any, target string, opts ...CallOption) (Result, error) {
	r, err := m.newRun(json, true, opts)
	if err != nil {
		return Result{}, err
	}
	v, err := r.root(target)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: v, Report: r.ctx.Report()}, nil
}

func (m *Mapper) getSeen(capHint int) map[string]bool {
	pooled := m.seenPool.Get().(map[string]bool)
	if pooled == nil {
		return make(map[string]bool, capHint)
	}
	for k := range pooled {
		delete(pooled, k)
	}
	return pooled
}

func (m *Mapper) putSeen(s map[string]bool) {
	if s != nil && len(s) <= 128 {
		m.seenPool.Put(s)
	}
}

// run is the state of one call. It implements strategy.Hydrator.
type run struct {
	m               *Mapper
	ctx             *mapping.Context
	resolver        *resolver.Resolver
	chain           *strategy.Chain
	factory         *collection.Factory
	collectionClass string
}

func (m *Mapper) newRun(json any, reporting bool, opts []CallOption) (*run, error) {
	var co callOptions
	for _, f := range opts {
		f(&co)
	}
	cfg := m.config
	if co.configuration != nil {
		cfg = *co.configuration
	}
	res, err := m.resolver.With(co.classMap)
	if err != nil {
		return nil, err
	}
	r := &run{m: m, resolver: res, chain: strategy.NewChain(), collectionClass: co.collectionClass}
	if reporting {
		r.ctx = mapping.NewReportingContext(json, cfg.ToOptions())
	} else {
		r.ctx = mapping.NewContext(json, cfg.ToOptions())
	}
	r.factory = collection.NewFactory(m.registry, res, r.chain)
	r.chain.Append(strategy.Defaults(strategy.Deps{
		Registry: m.registry,
		Handlers: m.handlers,
		Resolver: res,
		Factory:  r.factory,
		Hydrator: r,
		Extra:    m.strategies,
	})...)
	return r, nil
}

func (r *run) root(target string) (any, error) {
	json := r.ctx.Root()
	if target == "" {
		return json, nil
	}
	if err := r.loadable(target); err != nil {
		return nil, err
	}
	if r.collectionClass != "" {
		if err := r.loadable(r.collectionClass); err != nil {
			return nil, err
		}
	}
	r.m.logger.V(1).Info("mapping", "target", target, "collectionClass", r.collectionClass)

	element := descriptor.Object(target, false)
	var (
		out any
		err error
	)
	switch {
	case !collectionRoot(json):
		out, err = r.chain.Convert(json, element, r.ctx)
	case r.collectionClass != "":
		out, err = r.factory.FromCollectionType(descriptor.Collection(descriptor.Mixed(), element).Wrapped(r.collectionClass), json, r.ctx)
	case sequential(json):
		var entries *collection.Entries
		if entries, err = r.factory.MapIterable(list(json), element, r.ctx); err == nil {
			out = values(entries)
		}
	default:
		// String-keyed objects of objects without a collection class are one object.
		out, err = r.chain.Convert(json, element, r.ctx)
	}
	if stderrors.Is(err, mapping.ErrRejected) {
		return nil, nil
	}
	return out, err
}

func (r *run) loadable(name string) error {
	const op errors.Op = "jsonmapper.Map"
	if r.resolver.Has(name) || r.m.registry.Loadable(name) {
		return nil
	}
	return mapping.Configurationf(op, "class %q is not loadable", name)
}

// collectionRoot reports whether json is an array or object whose every
// element is itself an array or object. Empty arrays qualify, empty objects do not.
func collectionRoot(json any) bool {
	switch x := json.(type) {
	case []any:
		for _, v := range x {
			if !composite(v) {
				return false
			}
		}
		return true
	case map[string]any:
		if len(x) == 0 {
			return false
		}
		for _, v := range x {
			if !composite(v) {
				return false
			}
		}
		return true
	case *orderedmap.OrderedMap[string, any]:
		if x == nil || x.Len() == 0 {
			return false
		}
		for p := x.Oldest(); p != nil; p = p.Next() {
			if !composite(p.Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func composite(v any) bool {
	switch x := v.(type) {
	case []any, map[string]any:
		return true
	case *orderedmap.OrderedMap[string, any]:
		return x != nil
	default:
		return false
	}
}

// sequential reports whether the keys of json are the indexes 0..n-1 in order.
func sequential(json any) bool {
	switch x := json.(type) {
	case []any:
		return true
	case map[string]any:
		for i := 0; i < len(x); i++ {
			if _, ok := x[strconv.Itoa(i)]; !ok {
				return false
			}
		}
		return true
	case *orderedmap.OrderedMap[string, any]:
		i := 0
		for p := x.Oldest(); p != nil; p = p.Next() {
			if p.Key != strconv.Itoa(i) {
				return false
			}
			i++
		}
		return true
	default:
		return false
	}
}

// list returns the elements of a sequential json array or object in index order.
func list(json any) []any {
	switch x := json.(type) {
	case map[string]any:
		out := make([]any, len(x))
		for i := range out {
			out[i] = x[strconv.Itoa(i)]
		}
		return out
	case *orderedmap.OrderedMap[string, any]:
		out := make([]any, 0, x.Len())
		for p := x.Oldest(); p != nil; p = p.Next() {
			out = append(out, p.Value)
		}
		return out
	default:
		return json.([]any)
	}
}

func values(e *collection.Entries) []any {
	out := make([]any, 0, e.Len())
	for p := e.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Value)
	}
	return out
}
