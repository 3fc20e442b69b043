package reporting

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	"github.com/qlsach-lab/catalog-ledger/internal/metrics"
	"golang.org/x/sync/singleflight"
)

const (
	reportInventory  = "inventory"
	reportTopSellers = "top_sellers"

	invalidateTimeout = 2 * time.Second
)

// Reports serves Aggregator results through a Cache. Concurrent misses for
// the same key share one computation.
type Reports struct {
	agg     *Aggregator
	cache   Cache
	ttl     time.Duration
	metrics *metrics.Registry
	nowFn   func() time.Time

	group singleflight.Group

	// gen advances on every invalidation; fills computed under an older gen are not stored.
	// fillMu makes the gen check and the cache write one step with respect to invalidation.
	gen    atomic.Uint64
	fillMu sync.RWMutex

	mu         sync.Mutex
	sellerKeys map[string]struct{} // top-seller keys written by this process
}

func NewReports(agg *Aggregator, cache Cache, ttl time.Duration, m *metrics.Registry) *Reports {
	if cache == nil {
		cache = NopCache{}
	}
	return &Reports{
		agg:        agg,
		cache:      cache,
		ttl:        ttl,
		metrics:    m,
		nowFn:      func() time.Time { return time.Now().UTC() },
		sellerKeys: make(map[string]struct{}),
	}
}

// Inventory returns the cached inventory summary, computing it on a miss.
func (r *Reports) Inventory(ctx context.Context) (v1.CachedReport[v1.InventorySummary], error) {
	return cachedReport(ctx, r, reportInventory, reportKey(reportInventory, "", 0), "all",
		func(ctx context.Context) (v1.InventorySummary, error) {
			return r.agg.InventorySummary(ctx)
		})
}

// TopSellers returns the cached top-seller report for window and limit.
func (r *Reports) TopSellers(ctx context.Context, window string, limit int) (v1.CachedReport[v1.TopSellers], error) {
	if window == "" {
		window = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultTopN
	}
	key := reportKey(reportTopSellers, window, limit)

	r.mu.Lock()
	r.sellerKeys[key] = struct{}{}
	r.mu.Unlock()

	return cachedReport(ctx, r, reportTopSellers, key, window,
		func(ctx context.Context) (v1.TopSellers, error) {
			return r.agg.TopSellers(ctx, window, limit)
		})
}

// SalesByBucket is not cached; bucket series are requested rarely.
func (r *Reports) SalesByBucket(ctx context.Context, window, bucket string) ([]v1.SalesBucket, error) {
	return r.agg.SalesByBucket(ctx, window, bucket)
}

// Refresh recomputes the inventory summary and the given top-seller
// windows and stores them in the cache.
func (r *Reports) Refresh(ctx context.Context, windows []string, limit int) error {
	gen := r.gen.Load()
	inv, err := r.agg.InventorySummary(ctx)
	if err != nil {
		return err
	}
	r.metrics.SetInventory(inv.TotalTitles, inv.TotalInventory)
	r.store(ctx, gen, reportKey(reportInventory, "", 0), v1.CachedReport[v1.InventorySummary]{
		GeneratedAt:  r.nowFn(),
		SourceWindow: "all",
		Report:       inv,
	})

	if limit <= 0 {
		limit = DefaultTopN
	}
	for _, w := range windows {
		top, err := r.agg.TopSellers(ctx, w, limit)
		if err != nil {
			return err
		}
		key := reportKey(reportTopSellers, w, limit)
		r.mu.Lock()
		r.sellerKeys[key] = struct{}{}
		r.mu.Unlock()
		r.store(ctx, gen, key, v1.CachedReport[v1.TopSellers]{
			GeneratedAt:  r.nowFn(),
			SourceWindow: w,
			Report:       top,
		})
	}
	return nil
}

// OnChange drops reports made stale by a ledger write. Purchases also drop
// the top-seller reports this process has served.
func (r *Reports) OnChange(op, bookID string) {
	keys := []string{reportKey(reportInventory, "", 0)}
	if op == "purchase" {
		r.mu.Lock()
		for k := range r.sellerKeys {
			keys = append(keys, k)
		}
		r.mu.Unlock()
	}

	ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
	defer cancel()

	r.fillMu.Lock()
	defer r.fillMu.Unlock()
	r.gen.Add(1)
	if err := r.cache.Delete(ctx, keys...); err != nil {
		slog.Warn("[Reports] Cache invalidation failed", "op", op, "book_id", bookID, "error", err)
	}
}

func (r *Reports) store(ctx context.Context, gen uint64, key string, report any) {
	data, err := json.Marshal(report)
	if err != nil {
		slog.Error("[Reports] Encode failed", "key", key, "error", err)
		return
	}

	r.fillMu.RLock()
	defer r.fillMu.RUnlock()
	if r.gen.Load() != gen {
		slog.Debug("[Reports] Dropping fill computed before an invalidation", "key", key)
		return
	}
	if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
		slog.Warn("[Reports] Cache write failed", "key", key, "error", err)
	}
}

func cachedReport[T any](
	ctx context.Context,
	r *Reports,
	report, key, window string,
	compute func(context.Context) (T, error),
) (v1.CachedReport[T], error) {
	if out, ok := lookup[T](ctx, r, key); ok {
		r.metrics.ObserveCache(report, true)
		return out, nil
	}
	r.metrics.ObserveCache(report, false)

	result, err, _ := r.group.Do(key, func() (interface{}, error) {
		if out, ok := lookup[T](ctx, r, key); ok {
			return out, nil
		}

		gen := r.gen.Load()
		rep, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		out := v1.CachedReport[T]{GeneratedAt: r.nowFn(), SourceWindow: window, Report: rep}
		r.store(ctx, gen, key, out)
		return out, nil
	})
	if err != nil {
		return v1.CachedReport[T]{}, err
	}
	return result.(v1.CachedReport[T]), nil
}

func lookup[T any](ctx context.Context, r *Reports, key string) (v1.CachedReport[T], bool) {
	data, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("[Reports] Cache read failed, recomputing", "key", key, "error", err)
		return v1.CachedReport[T]{}, false
	}
	if !ok {
		return v1.CachedReport[T]{}, false
	}

	var out v1.CachedReport[T]
	if err := json.Unmarshal(data, &out); err != nil {
		slog.Warn("[Reports] Cached report is unreadable, recomputing", "key", key, "error", err)
		return v1.CachedReport[T]{}, false
	}
	return out, true
}
