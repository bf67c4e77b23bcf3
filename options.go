package jsonmapper

import (
	"github.com/go-logr/logr"

	"github.com/Station-Manager/jsonmapper/cache"
	"github.com/Station-Manager/jsonmapper/classes"
	"github.com/Station-Manager/jsonmapper/config"
	"github.com/Station-Manager/jsonmapper/custom"
	"github.com/Station-Manager/jsonmapper/descriptor"
	"github.com/Station-Manager/jsonmapper/naming"
	"github.com/Station-Manager/jsonmapper/property"
	"github.com/Station-Manager/jsonmapper/resolver"
	"github.com/Station-Manager/jsonmapper/strategy"
)

type Options struct {
	Registry      *classes.Registry     // class registry; a fresh one when nil
	TypeProvider  property.TypeProvider // declared property types; reflection over the registry when nil
	DefaultType   *descriptor.Descriptor
	Handlers      *custom.Registry  // custom type handlers; an empty registry when nil
	NameConverter naming.Converter  // applied to keys without a rename rule; keys are used as-is when nil
	ClassMap      resolver.ClassMap // default class map, extended per call
	Configuration config.Configuration
	TypeCache     cache.Store // caches declared property types when set
	Logger        logr.Logger
	Strategies    []strategy.Strategy // run after the null strategy, before custom handlers
}

type Option func(*Options)

func WithRegistry(r *classes.Registry) Option { return func(o *Options) { o.Registry = r } }
func WithTypeProvider(p property.TypeProvider) Option {
	return func(o *Options) { o.TypeProvider = p }
}
func WithDefaultType(d descriptor.Descriptor) Option { return func(o *Options) { o.DefaultType = &d } }
func WithHandlers(h *custom.Registry) Option         { return func(o *Options) { o.Handlers = h } }
func WithNameConverter(c naming.Converter) Option    { return func(o *Options) { o.NameConverter = c } }
func WithClassMap(m resolver.ClassMap) Option        { return func(o *Options) { o.ClassMap = m } }
func WithConfiguration(c config.Configuration) Option {
	return func(o *Options) { o.Configuration = c }
}
func WithTypeCache(s cache.Store) Option { return func(o *Options) { o.TypeCache = s } }
func WithLogger(l logr.Logger) Option    { return func(o *Options) { o.Logger = l } }
func WithStrategies(s ...strategy.Strategy) Option {
	return func(o *Options) { o.Strategies = append(o.Strategies, s...) }
}

type callOptions struct {
	collectionClass string
	classMap        resolver.ClassMap
	configuration   *config.Configuration
}

// CallOption adjusts a single Map or MapWithReport call.
type CallOption func(*callOptions)

// WithCollectionClass wraps a collection root into the named collection class.
func WithCollectionClass(name string) CallOption {
	return func(o *callOptions) { o.collectionClass = name }
}

// WithCallClassMap extends the mapper's class map for one call.
func WithCallClassMap(m resolver.ClassMap) CallOption {
	return func(o *callOptions) { o.classMap = m }
}

// WithCallConfiguration replaces the mapper's configuration for one call.
func WithCallConfiguration(c config.Configuration) CallOption {
	return func(o *callOptions) { o.configuration = &c }
}
