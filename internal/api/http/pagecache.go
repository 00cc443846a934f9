package http

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/cache"
	"github.com/maximo-portal/version-portal/internal/observability"
)

// PageCacheHeader reports HIT or MISS on cacheable pages.
const PageCacheHeader = "X-Page-Cache"

const subtreeSuffix = "/*"

// PageCache stores rendered HTML pages keyed by path until a mutation evicts
// them or the TTL expires.
type PageCache struct {
	store     cache.Cache
	namespace string
	ttl       time.Duration
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewPageCache builds a page cache over store.
func NewPageCache(store cache.Cache, namespace string, ttl time.Duration, metrics *observability.Metrics, logger *zap.Logger) *PageCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageCache{store: store, namespace: namespace, ttl: ttl, metrics: metrics, logger: logger}
}

// Handler serves cached pages and fills the cache on successful renders.
func (p *PageCache) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !cacheable(c) {
			return c.Next()
		}
		key := p.key(c.Path())

		body, ok, err := p.store.Get(c.UserContext(), key)
		if err != nil {
			p.logger.Warn("page cache read failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			p.metrics.RecordPageCache(true)
			c.Set(PageCacheHeader, "HIT")
			c.Type("html", "utf-8")
			return c.Send(body)
		}
		p.metrics.RecordPageCache(false)

		if err := c.Next(); err != nil {
			return err
		}
		c.Set(PageCacheHeader, "MISS")
		resp := c.Response()
		if resp.StatusCode() != fiber.StatusOK || !strings.HasPrefix(string(resp.Header.ContentType()), fiber.MIMETextHTML) {
			return nil
		}
		rendered := append([]byte(nil), resp.Body()...)
		if err := p.store.Set(c.UserContext(), key, rendered, p.ttl); err != nil {
			p.logger.Warn("page cache write failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
}

// Invalidate evicts the given page paths. A path ending in "/*" evicts every
// page below it.
func (p *PageCache) Invalidate(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	keys := make([]string, 0, len(paths))
	for _, path := range paths {
		if base, ok := strings.CutSuffix(path, subtreeSuffix); ok {
			if err := p.store.DeletePrefix(ctx, p.key(base)+"/"); err != nil {
				return err
			}
			continue
		}
		keys = append(keys, p.key(path))
	}
	if err := p.store.Delete(ctx, keys...); err != nil {
		return err
	}
	p.logger.Debug("pages invalidated", zap.Strings("paths", paths))
	return nil
}

func (p *PageCache) key(path string) string {
	return cache.Key(p.namespace, "page:"+normalizePath(path))
}

// cacheable accepts plain GETs of pages. Query strings carry filters and
// flash messages, and forms under /new are always rendered fresh.
func cacheable(c *fiber.Ctx) bool {
	if c.Method() != fiber.MethodGet || len(c.Request().URI().QueryString()) > 0 {
		return false
	}
	path := c.Path()
	for _, prefix := range []string{"/api", "/health", "/metrics", "/session"} {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return false
		}
	}
	return !strings.HasSuffix(normalizePath(path), "/new")
}

func normalizePath(path string) string {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}
