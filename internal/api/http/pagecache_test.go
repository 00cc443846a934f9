package http

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/cache"
	"github.com/maximo-portal/version-portal/internal/observability"
	"github.com/maximo-portal/version-portal/internal/service"
)

func TestPageCache_InvalidateSubtree(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryCache(0)
	pages := NewPageCache(store, "test", time.Minute, observability.NewMetrics(), zap.NewNop())

	for _, path := range []string{"/tickets", "/tickets/MAX-0001", "/tickets/MAX-0002", "/ticketsx", "/users"} {
		require.NoError(t, store.Set(ctx, pages.key(path), []byte("<html>"), time.Minute))
	}

	require.NoError(t, pages.Invalidate(ctx, service.Subtree(service.PathTickets), service.PathUsers))

	for path, cached := range map[string]bool{
		"/tickets":          true,
		"/tickets/MAX-0001": false,
		"/tickets/MAX-0002": false,
		"/ticketsx":         true,
		"/users":            false,
	} {
		_, ok, err := store.Get(ctx, pages.key(path))
		require.NoError(t, err)
		assert.Equal(t, cached, ok, path)
	}
}
