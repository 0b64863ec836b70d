package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"flashpack-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// PackLoader fetches card-pack content from a backing store.
type PackLoader interface {
	LoadPack(ctx context.Context, packID string) (domain.Pack, error)
}

// PackCatalog caches packs with TTL to avoid repeated backing-store hits.
type PackCatalog struct {
	loader PackLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedPack
}

type cachedPack struct {
	pack      domain.Pack
	expiresAt time.Time
}

func NewPackCatalog(loader PackLoader, ttl time.Duration) *PackCatalog {
	return &PackCatalog{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedPack),
	}
}

func (c *PackCatalog) GetPack(ctx context.Context, packID string) (domain.Pack, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[packID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.pack, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(packID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[packID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.pack, nil
		}
		c.mu.RUnlock()

		pack, err := c.loader.LoadPack(ctx, packID)
		if err != nil {
			return domain.Pack{}, err
		}

		c.mu.Lock()
		c.cache[packID] = cachedPack{
			pack:      pack,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return pack, nil
	})
	if err != nil {
		return domain.Pack{}, err
	}
	return result.(domain.Pack), nil
}

func (c *PackCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticPackLoader is a simple loader backed by an in-memory map (useful for
// tests/demos).
type StaticPackLoader struct {
	packs map[string]domain.Pack
}

func NewStaticPackLoader(packs map[string]domain.Pack) *StaticPackLoader {
	return &StaticPackLoader{packs: packs}
}

func (l *StaticPackLoader) LoadPack(_ context.Context, packID string) (domain.Pack, error) {
	if pack, ok := l.packs[packID]; ok {
		return pack, nil
	}
	return domain.Pack{}, domain.ErrPackNotFound
}
