// Package jwks caches remote JWKS documents keyed by issuer URL.
package jwks

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/tilvane/accountd/pkg/constants"
	"github.com/tilvane/accountd/pkg/errors"
	"github.com/tilvane/accountd/pkg/logger"
)

type entry struct {
	keys      *jose.JSONWebKeySet
	expiresAt time.Time
}

// Cache resolves and caches key sets. Entries live for a fixed TTL and are
// replaced whole on refetch; concurrent resolves of the same issuer share
// one fetch.
type Cache struct {
	store   *gocache.Cache
	group   singleflight.Group
	client  *http.Client
	ttl     time.Duration
	clock   func() time.Time
	observe func(result string)
	logger  logger.Logger
}

// Option tweaks cache construction; used by tests to inject a clock.
type Option func(*Cache)

func WithClock(clock func() time.Time) Option {
	return func(c *Cache) { c.clock = clock }
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Cache) { c.client = client }
}

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithFetchObserver installs a callback invoked with "success" or "error"
// after every remote fetch.
func WithFetchObserver(observe func(result string)) Option {
	return func(c *Cache) { c.observe = observe }
}

func NewCache(log logger.Logger, opts ...Option) *Cache {
	c := &Cache{
		store:   gocache.New(gocache.NoExpiration, 0),
		client:  &http.Client{Timeout: constants.DefaultJWKSFetchTimeout},
		ttl:     constants.DefaultJWKSCacheTTL,
		clock:   time.Now,
		observe: func(string) {},
		logger:  log.WithComponent("JwksCache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the key set published at issuerURL, from cache when the
// cached entry has not expired against the cache's clock.
func (c *Cache) Resolve(ctx context.Context, issuerURL string) (*jose.JSONWebKeySet, error) {
	if cached, ok := c.store.Get(issuerURL); ok {
		e := cached.(entry)
		if e.expiresAt.After(c.clock()) {
			return e.keys, nil
		}
	}

	v, err, _ := c.group.Do(issuerURL, func() (interface{}, error) {
		keys, err := c.fetch(ctx, issuerURL)
		if err != nil {
			c.observe("error")
			return nil, err
		}
		c.observe("success")
		c.store.Set(issuerURL, entry{keys: keys, expiresAt: c.clock().Add(c.ttl)}, gocache.NoExpiration)
		return keys, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*jose.JSONWebKeySet), nil
}

func (c *Cache) fetch(ctx context.Context, issuerURL string) (*jose.JSONWebKeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, issuerURL, nil)
	if err != nil {
		return nil, errors.ErrJWKSFetch.WithCause(err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "jwks fetch failed", logger.String("issuer", issuerURL), logger.Err(err))
		return nil, errors.ErrJWKSFetch.WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn(ctx, "jwks fetch returned non-2xx",
			logger.String("issuer", issuerURL), logger.Int("status", resp.StatusCode))
		return nil, errors.ErrJWKSFetch.WithMessagef("jwks endpoint returned %d", resp.StatusCode)
	}

	var keys jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&keys); err != nil {
		return nil, errors.ErrJWKSParse.WithCause(err)
	}
	if len(keys.Keys) == 0 {
		return nil, errors.ErrJWKSParse.WithMessagef("jwks document contains no keys")
	}
	return &keys, nil
}
