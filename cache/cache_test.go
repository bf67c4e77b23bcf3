package cache

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Station-Manager/jsonmapper/descriptor"
)

var itemList = descriptor.Collection(descriptor.Scalar(descriptor.Int), descriptor.Object("Item", true)).Wrapped("ItemList")

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, key string) (descriptor.Descriptor, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(descriptor.Descriptor), args.Bool(1), args.Error(2)
}

func (m *mockStore) Put(ctx context.Context, key string, d descriptor.Descriptor) error {
	return m.Called(ctx, key, d).Error(0)
}

type countingProvider struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (c *countingProvider) PropertyType(class, property string) (descriptor.Descriptor, error) {
	c.calls.Add(1)
	time.Sleep(c.delay)
	if c.err != nil {
		return descriptor.Descriptor{}, c.err
	}
	return itemList, nil
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("Person", "name"), Key("Person", "name"))
	assert.NotEqual(t, Key("Person", "name"), Key("Person", "age"))
}

func TestStores(t *testing.T) {
	mr := miniredis.RunT(t)
	disk, err := OpenDisk(t.TempDir())
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemory(),
		"redis":  NewRedis(mr.Addr(), "test:", 0),
		"disk":   disk,
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, ok, err := s.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Put(ctx, "k", itemList))
			got, ok, err := s.Get(ctx, "k")
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, itemList.Equal(got), "got %s", got)
		})
	}
}

func TestRedis_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(mr.Addr(), "test:", time.Minute)
	ctx := context.Background()
	require.NoError(t, r.Put(ctx, "k", descriptor.Scalar(descriptor.Int)))
	assert.True(t, mr.Exists("test:k"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, r.Close())
}

func TestRedis_Failure(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(mr.Addr(), "", 0)
	mr.SetError("LOADING server is loading")
	_, _, err := r.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, r.Put(context.Background(), "k", descriptor.Mixed()))
}

func TestDisk_SchemaAndDropAll(t *testing.T) {
	dir := t.TempDir()
	d, err := OpenDisk(dir)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, d.Put(ctx, "k", descriptor.Scalar(descriptor.Bool)))

	entries, err := os.ReadDir(filepath.Join(dir, "types"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are renamed into place")

	require.NoError(t, os.WriteFile(d.pathFor("broken"), []byte{0xc1}, 0o644))
	_, _, err = d.Get(ctx, "broken")
	assert.Error(t, err)

	require.NoError(t, d.DropAll())
	_, ok, err := d.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenDefaultDisk(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	d, err := OpenDefaultDisk("jsonmapper")
	require.NoError(t, err)
	assert.DirExists(t, d.dir)
}

func TestProvider_CachesResults(t *testing.T) {
	next := &countingProvider{}
	mem := NewMemory()
	p := NewProvider(next, mem)

	for i := 0; i < 3; i++ {
		d, err := p.PropertyType("Bag", "items")
		require.NoError(t, err)
		assert.True(t, itemList.Equal(d))
	}
	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, 1, mem.Len())
}

func TestProvider_StoreFailuresAreMisses(t *testing.T) {
	store := &mockStore{}
	store.On("Get", mock.Anything, Key("Bag", "items")).Return(descriptor.Descriptor{}, false, stderrors.New("connection refused"))
	store.On("Put", mock.Anything, Key("Bag", "items"), mock.Anything).Return(stderrors.New("connection refused"))

	next := &countingProvider{}
	p := NewProvider(next, store, WithTimeout(time.Second))

	d, err := p.PropertyType("Bag", "items")
	require.NoError(t, err)
	assert.True(t, itemList.Equal(d))
	store.AssertExpectations(t)
}

func TestProvider_RedisDownIsAMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(mr.Addr(), "", 0)
	mr.Close()

	next := &countingProvider{}
	p := NewProvider(next, r, WithTimeout(200*time.Millisecond))
	d, err := p.PropertyType("Bag", "items")
	require.NoError(t, err)
	assert.True(t, itemList.Equal(d))
}

func TestProvider_ErrorsAreNotCached(t *testing.T) {
	boom := stderrors.New("no such property")
	next := &countingProvider{err: boom}
	mem := NewMemory()
	p := NewProvider(next, mem)

	_, err := p.PropertyType("Bag", "ghost")
	assert.ErrorIs(t, err, boom)
	_, err = p.PropertyType("Bag", "ghost")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), next.calls.Load())
	assert.Equal(t, 0, mem.Len())
}

func TestProvider_ConcurrentMissesCollapse(t *testing.T) {
	next := &countingProvider{delay: 50 * time.Millisecond}
	p := NewProvider(next, NewMemory())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.PropertyType("Bag", "items")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, next.calls.Load(), int32(2))
}
