package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/cache"
)

// ErrNotFound is returned when neither store holds the requested record.
var ErrNotFound = errors.New("record not found")

// Store is the persistence contract services depend on.
type Store[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Save(ctx context.Context, item T) error
	Delete(ctx context.Context, id string) error
}

// FallbackOptions configures a Fallback repository.
type FallbackOptions[T any] struct {
	Collection    string
	LocalKey      string
	ID            func(T) string
	Remote        RemoteStore
	Local         cache.Cache
	Logger        *zap.Logger
	RemoteTimeout time.Duration
}

// Fallback writes to a remote document store and mirrors every record into a
// local cache key holding a JSON array of the whole collection. When the
// remote store is missing or failing, reads and writes use the local array
// alone. A remote listing is merged into the local array by id, so records
// that only reached the local cache (seed data, writes during an outage) stay
// visible. Otherwise the last write observed by each side wins.
type Fallback[T any] struct {
	collection    string
	localKey      string
	id            func(T) string
	remote        RemoteStore
	local         cache.Cache
	logger        *zap.Logger
	remoteTimeout time.Duration

	// serializes read-modify-write cycles on the local array
	mu sync.Mutex
}

// NewFallback builds a repository. Remote may be nil.
func NewFallback[T any](opts FallbackOptions[T]) *Fallback[T] {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback[T]{
		collection:    opts.Collection,
		localKey:      opts.LocalKey,
		id:            opts.ID,
		remote:        opts.Remote,
		local:         opts.Local,
		logger:        logger.With(zap.String("collection", opts.Collection)),
		remoteTimeout: opts.RemoteTimeout,
	}
}

// RemoteConfigured reports whether writes are attempted remotely first.
func (r *Fallback[T]) RemoteConfigured() bool {
	return r.remote != nil
}

// List returns every record. Remote records win over local copies with the
// same id; local-only records are appended after them.
func (r *Fallback[T]) List(ctx context.Context) ([]T, error) {
	if r.remote != nil {
		items, err := r.listRemote(ctx)
		if err == nil {
			return r.mergeLocal(ctx, items), nil
		}
		r.logger.Warn("remote list failed; falling back to local cache", zap.Error(err))
	}
	return r.readLocal(ctx)
}

// Get returns one record. A record missing from the remote store is looked up
// locally as well, since earlier writes may only have reached the local cache.
func (r *Fallback[T]) Get(ctx context.Context, id string) (*T, error) {
	if r.remote != nil {
		item, err := r.getRemote(ctx, id)
		if err == nil {
			return item, nil
		}
		if errors.Is(err, ErrDocumentNotFound) {
			r.logger.Debug("record missing remotely; checking local cache", zap.String("id", id))
		} else {
			r.logger.Warn("remote get failed; falling back to local cache", zap.String("id", id), zap.Error(err))
		}
	}

	items, err := r.readLocal(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if r.id(items[i]) == id {
			return &items[i], nil
		}
	}
	return nil, ErrNotFound
}

// Save upserts a record. It only fails when the local cache cannot be written
// after the remote store was skipped or failed.
func (r *Fallback[T]) Save(ctx context.Context, item T) error {
	id := r.id(item)
	if id == "" {
		return errors.New("record id required")
	}
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", r.collection, id, err)
	}

	if r.remote != nil {
		rctx, cancel := r.remoteContext(ctx)
		err := r.remote.Put(rctx, r.collection, id, body)
		cancel()
		if err == nil {
			if err := r.upsertLocal(ctx, item); err != nil {
				r.logger.Warn("local mirror after remote save failed", zap.String("id", id), zap.Error(err))
			}
			return nil
		}
		r.logger.Warn("remote save failed; writing local cache only", zap.String("id", id), zap.Error(err))
	}
	return r.upsertLocal(ctx, item)
}

// Delete removes a record from both stores.
func (r *Fallback[T]) Delete(ctx context.Context, id string) error {
	if r.remote != nil {
		rctx, cancel := r.remoteContext(ctx)
		err := r.remote.Delete(rctx, r.collection, id)
		cancel()
		if err != nil && !errors.Is(err, ErrDocumentNotFound) {
			r.logger.Warn("remote delete failed; removing from local cache only", zap.String("id", id), zap.Error(err))
		}
	}
	return r.removeLocal(ctx, id)
}

// SeedLocal stores items in the local cache when the key holds nothing yet.
// It reports whether the seed was applied.
func (r *Fallback[T]) SeedLocal(ctx context.Context, items []T) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok, err := r.local.Get(ctx, r.localKey)
	if err != nil {
		return false, err
	}
	if ok {
		return false, nil
	}
	if items == nil {
		items = []T{}
	}
	return true, r.writeLocal(ctx, items)
}

func (r *Fallback[T]) listRemote(ctx context.Context) ([]T, error) {
	rctx, cancel := r.remoteContext(ctx)
	defer cancel()
	docs, err := r.remote.List(rctx, r.collection)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		var item T
		if err := json.Unmarshal(doc, &item); err != nil {
			return nil, fmt.Errorf("decode %s document: %w", r.collection, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Fallback[T]) getRemote(ctx context.Context, id string) (*T, error) {
	rctx, cancel := r.remoteContext(ctx)
	defer cancel()
	doc, err := r.remote.Get(rctx, r.collection, id)
	if err != nil {
		return nil, err
	}
	var item T
	if err := json.Unmarshal(doc, &item); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", r.collection, id, err)
	}
	return &item, nil
}

// mergeLocal upserts remote items into the local array and returns the union.
func (r *Fallback[T]) mergeLocal(ctx context.Context, remote []T) []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	local, err := r.readLocal(ctx)
	if err != nil {
		r.logger.Warn("local read before merge failed; returning remote records only", zap.Error(err))
		return remote
	}

	seen := make(map[string]struct{}, len(remote))
	merged := make([]T, 0, len(remote)+len(local))
	for _, item := range remote {
		seen[r.id(item)] = struct{}{}
		merged = append(merged, item)
	}
	for _, item := range local {
		if _, ok := seen[r.id(item)]; !ok {
			merged = append(merged, item)
		}
	}

	if err := r.writeLocal(ctx, merged); err != nil {
		r.logger.Warn("local mirror after remote list failed", zap.Error(err))
	}
	return merged
}

func (r *Fallback[T]) upsertLocal(ctx context.Context, item T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.readLocal(ctx)
	if err != nil {
		return err
	}
	id := r.id(item)
	replaced := false
	for i := range items {
		if r.id(items[i]) == id {
			items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, item)
	}
	return r.writeLocal(ctx, items)
}

func (r *Fallback[T]) removeLocal(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.readLocal(ctx)
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, item := range items {
		if r.id(item) != id {
			kept = append(kept, item)
		}
	}
	return r.writeLocal(ctx, kept)
}

func (r *Fallback[T]) readLocal(ctx context.Context) ([]T, error) {
	raw, ok, err := r.local.Get(ctx, r.localKey)
	if err != nil {
		return nil, fmt.Errorf("read local %s: %w", r.localKey, err)
	}
	items := []T{}
	if !ok || len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode local %s: %w", r.localKey, err)
	}
	return items, nil
}

func (r *Fallback[T]) writeLocal(ctx context.Context, items []T) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode local %s: %w", r.localKey, err)
	}
	if err := r.local.Set(ctx, r.localKey, raw, 0); err != nil {
		return fmt.Errorf("write local %s: %w", r.localKey, err)
	}
	return nil
}

func (r *Fallback[T]) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.remoteTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.remoteTimeout)
}
