package scene

import (
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru"
)

type cacheKey struct {
	path    string
	size    int64
	modTime int64
}

// Cache keeps recently loaded scenes so that rendering the same file
// several times parses it once. A changed size or modification time
// invalidates the entry. Cached scenes are shared and must stay read-only.
type Cache struct {
	scenes *lru.Cache // cacheKey -> *Scene
	opts   Options
}

func NewCache(size int, opts Options) (*Cache, error) {
	scenes, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{scenes: scenes, opts: opts}, nil
}

// Load returns the cached scene for path or reads it with LoadFile.
// Failed loads are not cached.
func (c *Cache) Load(path string) (*Scene, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &Error{Kind: KindIO, Err: fmt.Errorf("could not open file %q: %w", path, err)}
	}
	key := cacheKey{path: abs, size: info.Size(), modTime: info.ModTime().UnixNano()}

	if v, ok := c.scenes.Get(key); ok {
		return v.(*Scene), nil
	}

	s, err := LoadFile(abs, c.opts)
	if err != nil {
		return nil, err
	}
	c.scenes.Add(key, s)
	return s, nil
}

// Len returns the number of cached scenes.
func (c *Cache) Len() int {
	return c.scenes.Len()
}
