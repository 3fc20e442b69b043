package reporting

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	"github.com/qlsach-lab/catalog-ledger/internal/core/aggregation"
	coreerrors "github.com/qlsach-lab/catalog-ledger/internal/core/errors"
	"github.com/qlsach-lab/catalog-ledger/internal/core/storage"
)

const (
	// DefaultTopN bounds the category/author histograms and the top-seller list.
	DefaultTopN = 10

	DefaultWindow = "1d"

	unknownName = "Unknown"
)

// Aggregator derives read-only reports from full scans of the catalog and
// time-bounded scans of the activity log. It never writes.
type Aggregator struct {
	catalog storage.CatalogStore
	log     storage.ActivityLog
	nowFn   func() time.Time
}

func NewAggregator(catalog storage.CatalogStore, log storage.ActivityLog) *Aggregator {
	return &Aggregator{
		catalog: catalog,
		log:     log,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// InventorySummary counts titles and units and ranks categories and authors
// by number of titles. Ties keep the order in which names first appear in
// the id-ordered scan.
func (a *Aggregator) InventorySummary(ctx context.Context) (v1.InventorySummary, error) {
	books, err := a.catalog.Scan(ctx)
	if err != nil {
		return v1.InventorySummary{}, coreerrors.Wrap(coreerrors.KindInternal, "inventorySummary", err, "catalog scan failed")
	}

	categories := aggregation.MustTally(aggregation.OpCount)
	authors := aggregation.MustTally(aggregation.OpCount)
	var units int64
	for _, b := range books {
		units += b.QuantityOnHand
		categories.AddInt(nameOrUnknown(b.Category), 1)
		authors.AddInt(nameOrUnknown(b.Author), 1)
	}

	return v1.InventorySummary{
		TotalTitles:    int64(len(books)),
		TotalInventory: units,
		TopCategories:  topByCount(categories, DefaultTopN),
		TopAuthors:     topByCount(authors, DefaultTopN),
	}, nil
}

// TopSellers sums quantity per book over activity since now-window and
// returns the best limit books, highest first, ties by book id. The scan has
// no upper bound so entries stamped ahead of this clock still count.
func (a *Aggregator) TopSellers(ctx context.Context, window string, limit int) (v1.TopSellers, error) {
	const op = "topSellers"
	if window == "" {
		window = DefaultWindow
	}
	spec, err := aggregation.ParseWindowSize(window)
	if err != nil {
		return v1.TopSellers{}, coreerrors.Wrap(coreerrors.KindInvalidArgument, op, err, "invalid window")
	}
	if limit <= 0 {
		limit = DefaultTopN
	}

	now := a.nowFn()
	from := spec.Start(now)
	entries, err := a.log.Scan(ctx, from, time.Time{})
	if err != nil {
		return v1.TopSellers{}, coreerrors.Wrap(coreerrors.KindInternal, op, err, "activity scan failed")
	}

	sold := aggregation.MustTally(aggregation.OpSum)
	for _, e := range entries {
		sold.AddInt(e.BookID, e.Quantity)
	}

	ranked := sold.Entries()
	sort.SliceStable(ranked, func(i, j int) bool {
		if c := ranked[i].Value.Cmp(ranked[j].Value); c != 0 {
			return c > 0
		}
		return ranked[i].Key < ranked[j].Key
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	top := make([]v1.BookSales, 0, len(ranked))
	for _, r := range ranked {
		top = append(top, v1.BookSales{BookID: r.Key, Quantity: r.Value.IntPart()})
	}

	return v1.TopSellers{
		Window:    spec.Raw,
		From:      from,
		To:        now,
		TotalSold: sold.Total().IntPart(),
		Top:       top,
	}, nil
}

// SalesByBucket returns per-bucket sold totals over [now-window, now),
// including empty buckets, ordered by bucket start.
func (a *Aggregator) SalesByBucket(ctx context.Context, window, bucket string) ([]v1.SalesBucket, error) {
	const op = "salesByBucket"
	spec, err := aggregation.ParseWindowSize(window)
	if err != nil {
		return nil, coreerrors.Wrap(coreerrors.KindInvalidArgument, op, err, "invalid window")
	}
	size, err := aggregation.ParseWindowSize(bucket)
	if err != nil {
		return nil, coreerrors.Wrap(coreerrors.KindInvalidArgument, op, err, "invalid bucket")
	}
	if size.Size > spec.Size {
		return nil, coreerrors.InvalidArgumentf(op, "bucket %s is wider than window %s", size.Raw, spec.Raw)
	}
	if spec.Size/size.Size > maxBuckets {
		return nil, coreerrors.InvalidArgumentf(op, "window %s with bucket %s exceeds %d buckets", spec.Raw, size.Raw, maxBuckets)
	}

	to := a.nowFn()
	from := spec.Start(to)
	entries, err := a.log.Scan(ctx, from, to)
	if err != nil {
		return nil, coreerrors.Wrap(coreerrors.KindInternal, op, err, "activity scan failed")
	}

	var (
		sold     = aggregation.MustTally(aggregation.OpSum)
		count    = aggregation.MustTally(aggregation.OpCount)
		largest  = aggregation.MustTally(aggregation.OpMax)
		smallest = aggregation.MustTally(aggregation.OpMin)
	)
	for _, e := range entries {
		k := bucketKey(aggregation.BucketFor(e.Timestamp, size.Size))
		sold.AddInt(k, e.Quantity)
		count.AddInt(k, e.Quantity)
		largest.AddInt(k, e.Quantity)
		smallest.AddInt(k, e.Quantity)
	}

	var out []v1.SalesBucket
	for cur := aggregation.BucketFor(from, size.Size); cur.Before(to); cur = cur.Add(size.Size) {
		k := bucketKey(cur)
		out = append(out, v1.SalesBucket{
			Start:        cur,
			Quantity:     intValue(sold, k),
			Entries:      intValue(count, k),
			LargestSale:  intValue(largest, k),
			SmallestSale: intValue(smallest, k),
		})
	}
	return out, nil
}

func bucketKey(start time.Time) string {
	return strconv.FormatInt(start.UnixNano(), 10)
}

func intValue(t *aggregation.Tally, key string) int64 {
	v, _ := t.Value(key)
	return v.IntPart()
}

const maxBuckets = 10_000

func nameOrUnknown(s string) string {
	if s == "" {
		return unknownName
	}
	return s
}

// topByCount orders tally entries by count descending; equal counts keep
// first-seen order.
func topByCount(t *aggregation.Tally, n int) []v1.NameCount {
	entries := t.Entries()
	sort.Slice(entries, func(i, j int) bool {
		if c := entries[i].Value.Cmp(entries[j].Value); c != 0 {
			return c > 0
		}
		return entries[i].Rank < entries[j].Rank
	})
	if len(entries) > n {
		entries = entries[:n]
	}

	out := make([]v1.NameCount, 0, len(entries))
	for _, e := range entries {
		out = append(out, v1.NameCount{Name: e.Key, Count: e.Value.IntPart()})
	}
	return out
}

// reportKey names a cached report.
func reportKey(kind, window string, limit int) string {
	if window == "" {
		return kind
	}
	return fmt.Sprintf("%s:%s:%d", kind, window, limit)
}
