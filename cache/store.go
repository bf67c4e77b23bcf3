// Package cache memoizes declared property types. Stores are shared between
// mapping calls and must tolerate concurrent Get and Put; a failing store only
// ever degrades to a cache miss.
package cache

import (
	"context"
	"sync"

	"github.com/Station-Manager/jsonmapper/descriptor"
)

// Store is a descriptor cache backend.
type Store interface {
	// Get returns the cached descriptor and whether it was found.
	Get(ctx context.Context, key string) (descriptor.Descriptor, bool, error)
	Put(ctx context.Context, key string, d descriptor.Descriptor) error
}

// Key derives the cache key of a (class, property) pair.
func Key(class, property string) string {
	return "jsonmapper:type:" + class + "#" + property
}

// Memory is an in-process Store.
type Memory struct {
	entries sync.Map // map[string]descriptor.Descriptor
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Get(_ context.Context, key string) (descriptor.Descriptor, bool, error) {
	v, ok := m.entries.Load(key)
	if !ok {
		return descriptor.Descriptor{}, false, nil
	}
	return v.(descriptor.Descriptor), true, nil
}

func (m *Memory) Put(_ context.Context, key string, d descriptor.Descriptor) error {
	m.entries.Store(key, d)
	return nil
}

// Len returns the number of cached descriptors.
func (m *Memory) Len() int {
	n := 0
	m.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
