package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Station-Manager/jsonmapper/descriptor"
)

// Bump when diskEntry changes shape; older files then read as misses.
const diskSchemaVersion uint16 = 1

type diskEntry struct {
	Schema     uint16
	Key        string
	Descriptor descriptor.Descriptor
}

// Disk keeps descriptors as msgpack files, one per key, so that they survive restarts.
type Disk struct {
	mu  sync.RWMutex
	dir string
}

// OpenDisk uses dir, creating it when needed.
func OpenDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Disk{dir: dir}, nil
}

// OpenDefaultDisk uses $XDG_CACHE_HOME/<app>, falling back to ~/.cache/<app>.
func OpenDefaultDisk(app string) (*Disk, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDisk(filepath.Join(base, app))
}

func (c *Disk) pathFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, "types", hex.EncodeToString(sum[:])+".mp")
}

func (c *Disk) Get(_ context.Context, key string) (descriptor.Descriptor, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return descriptor.Descriptor{}, false, nil
		}
		return descriptor.Descriptor{}, false, err
	}
	defer f.Close()

	var e diskEntry
	if err := msgpack.NewDecoder(f).Decode(&e); err != nil {
		return descriptor.Descriptor{}, false, err
	}
	if e.Schema != diskSchemaVersion || e.Key != key {
		return descriptor.Descriptor{}, false, nil
	}
	return e.Descriptor, true, nil
}

// Put writes the entry to a temp file and renames it into place.
func (c *Disk) Put(_ context.Context, key string, d descriptor.Descriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(f.Name())
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(&diskEntry{Schema: diskSchemaVersion, Key: key, Descriptor: d}); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(f.Name(), p); err != nil {
		return err
	}
	renamed = true
	return nil
}

// DropAll removes every cached descriptor.
func (c *Disk) DropAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "types"))
}
