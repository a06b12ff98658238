package texture

import (
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/echoflaresat/globeview/colors"
	"github.com/echoflaresat/globeview/observability"
)

// Cache keeps recently decoded textures keyed by path, so that switching
// assets back and forth does not decode the same 4k map twice.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache // path -> Texture
	logger  *slog.Logger
	metrics *observability.Metrics
	load    func(path string) (Texture, error)
}

// NewCache returns a cache holding up to size textures.
func NewCache(size int, logger *slog.Logger, metrics *observability.Metrics) (*Cache, error) {
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{
		entries: entries,
		logger:  logger,
		metrics: metrics,
		load:    Load,
	}, nil
}

// Get returns the texture at path. A missing or undecodable file is logged
// and replaced by a solid texture of color fallback; fallbacks are not cached
// so a fixed asset is picked up on the next call.
func (c *Cache) Get(path string, fallback colors.Color4) Texture {
	if t, ok := c.Lookup(path); ok {
		return t
	}
	return Solid(fallback)
}

// Lookup returns the texture at path, or false when path is empty or the
// file cannot be decoded.
func (c *Cache) Lookup(path string) (Texture, bool) {
	if path == "" {
		c.count("fallback")
		return Texture{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.entries.Get(path); ok {
		c.count("hit")
		return v.(Texture), true
	}

	t, err := c.load(path)
	if err != nil {
		c.logger.Warn("failed to load texture", "path", path, "error", err)
		c.count("fallback")
		return Texture{}, false
	}
	c.entries.Add(path, t)
	c.count("miss")
	c.logger.Debug("texture loaded", "path", path, "width", t.Width, "height", t.Height)
	return t, true
}

// Len reports how many textures are cached.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func (c *Cache) count(result string) {
	if c.metrics != nil {
		c.metrics.TextureCache.WithLabelValues(result).Inc()
	}
}
