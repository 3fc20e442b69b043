// Package dispatch maps named operations with string arguments onto the
// ledger and reporting services.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	coreerrors "github.com/qlsach-lab/catalog-ledger/internal/core/errors"
	"github.com/qlsach-lab/catalog-ledger/internal/ledger"
	"github.com/qlsach-lab/catalog-ledger/internal/metrics"
	"github.com/qlsach-lab/catalog-ledger/internal/reporting"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Kind says whether an operation may change state.
type Kind int

const (
	Evaluate Kind = iota // read-only
	Submit               // mutating
)

func (k Kind) String() string {
	if k == Submit {
		return "submit"
	}
	return "evaluate"
}

type handler func(ctx context.Context, args []string) (any, error)

type operation struct {
	kind    Kind
	minArgs int
	maxArgs int
	fn      handler
}

// Reports is the subset of reporting.Reports used by read operations.
type Reports interface {
	Inventory(ctx context.Context) (v1.CachedReport[v1.InventorySummary], error)
	TopSellers(ctx context.Context, window string, limit int) (v1.CachedReport[v1.TopSellers], error)
}

// Table routes operation names to handlers.
type Table struct {
	ops     map[string]operation
	seed    func() []v1.BookRecord
	metrics *metrics.Registry
	tracer  trace.Tracer
}

// NewTable registers every operation. seed supplies the records for initLedger.
func NewTable(svc *ledger.Service, reports Reports, seed func() []v1.BookRecord, m *metrics.Registry) *Table {
	if seed == nil {
		seed = ledger.DefaultSeed
	}
	t := &Table{
		seed:    seed,
		metrics: m,
		tracer:  otel.Tracer("qlsach/dispatch"),
	}
	t.ops = map[string]operation{
		"createBook": {Submit, 6, 6, func(ctx context.Context, a []string) (any, error) {
			return svc.Create(ctx, bookInput(a))
		}},
		"getBook": {Evaluate, 1, 1, func(ctx context.Context, a []string) (any, error) {
			return svc.Get(ctx, a[0])
		}},
		"updateBook": {Submit, 6, 6, func(ctx context.Context, a []string) (any, error) {
			return svc.Update(ctx, bookInput(a))
		}},
		"deleteBook": {Submit, 1, 1, func(ctx context.Context, a []string) (any, error) {
			return svc.Delete(ctx, a[0])
		}},
		"listBooks": {Evaluate, 0, 0, func(ctx context.Context, _ []string) (any, error) {
			return svc.List(ctx)
		}},
		"listByCategory": {Evaluate, 1, 1, func(ctx context.Context, a []string) (any, error) {
			return svc.ListByCategory(ctx, a[0])
		}},
		"setQuantity": {Submit, 2, 2, func(ctx context.Context, a []string) (any, error) {
			return svc.SetQuantity(ctx, a[0], a[1])
		}},
		"purchase": {Submit, 3, 4, func(ctx context.Context, a []string) (any, error) {
			return purchase(ctx, svc, a)
		}},
		"initLedger": {Submit, 0, 0, func(ctx context.Context, _ []string) (any, error) {
			n, err := svc.InitLedger(ctx, t.seed())
			if err != nil {
				return nil, err
			}
			return map[string]int{"seeded": n}, nil
		}},
		"inventorySummary": {Evaluate, 0, 0, func(ctx context.Context, _ []string) (any, error) {
			rep, err := reports.Inventory(ctx)
			if err != nil {
				return nil, err
			}
			return rep.Report, nil
		}},
		"topSellers": {Evaluate, 0, 2, func(ctx context.Context, a []string) (any, error) {
			return topSellers(ctx, reports, a)
		}},
	}
	return t
}

// Submit runs a mutating operation.
func (t *Table) Submit(ctx context.Context, op string, args ...string) (json.RawMessage, error) {
	return t.call(ctx, Submit, op, args)
}

// Evaluate runs a read-only operation.
func (t *Table) Evaluate(ctx context.Context, op string, args ...string) (json.RawMessage, error) {
	return t.call(ctx, Evaluate, op, args)
}

// Lookup reports whether op exists and its kind.
func (t *Table) Lookup(op string) (Kind, bool) {
	o, ok := t.ops[op]
	return o.kind, ok
}

func (t *Table) call(ctx context.Context, kind Kind, op string, args []string) (out json.RawMessage, err error) {
	start := time.Now()
	o, known := t.ops[op]
	label := op
	if !known {
		label = "unknown"
	}

	ctx, span := t.tracer.Start(ctx, "dispatch."+kind.String(), trace.WithAttributes(
		attribute.String("dispatch.op", op),
		attribute.Int("dispatch.args", len(args)),
	))
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(coreerrors.KindOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
		t.metrics.ObserveOp(label, outcome, time.Since(start))
	}()

	if !known {
		return nil, coreerrors.InvalidArgumentf(op, "unknown operation %q", op)
	}
	if o.kind != kind {
		return nil, coreerrors.InvalidArgumentf(op, "operation %q must be called with %s", op, o.kind)
	}
	if len(args) < o.minArgs || len(args) > o.maxArgs {
		return nil, coreerrors.InvalidArgumentf(op, "expected %s arguments, got %d", arity(o), len(args))
	}

	res, err := o.fn(ctx, args)
	if err != nil {
		slog.Debug("[Dispatch] Operation failed", "op", op, "kind", kind, "error", err)
		return nil, err
	}

	data, err := json.Marshal(res)
	if err != nil {
		return nil, coreerrors.Wrap(coreerrors.KindInternal, op, err, "encode result")
	}
	return data, nil
}

func arity(o operation) string {
	if o.minArgs == o.maxArgs {
		return strconv.Itoa(o.minArgs)
	}
	return fmt.Sprintf("%d to %d", o.minArgs, o.maxArgs)
}

func bookInput(a []string) ledger.BookInput {
	return ledger.BookInput{
		ID:              a[0],
		Title:           a[1],
		Category:        a[2],
		Author:          a[3],
		PublicationYear: a[4],
		Quantity:        a[5],
	}
}

func purchase(ctx context.Context, svc *ledger.Service, a []string) (any, error) {
	qty, err := strconv.ParseInt(strings.TrimSpace(a[1]), 10, 64)
	if err != nil {
		return nil, coreerrors.InvalidArgumentf("purchase", "quantity %q is not an integer", a[1])
	}
	req := ledger.PurchaseRequest{BookID: a[0], Quantity: qty, Actor: a[2]}
	if len(a) == 4 {
		req.IdempotencyKey = a[3]
	}
	return svc.Purchase(ctx, req)
}

func topSellers(ctx context.Context, reports Reports, a []string) (any, error) {
	window := reporting.DefaultWindow
	limit := reporting.DefaultTopN
	if len(a) > 0 && a[0] != "" {
		window = a[0]
	}
	if len(a) > 1 && a[1] != "" {
		n, err := strconv.Atoi(strings.TrimSpace(a[1]))
		if err != nil {
			return nil, coreerrors.InvalidArgumentf("topSellers", "limit %q is not an integer", a[1])
		}
		limit = n
	}
	rep, err := reports.TopSellers(ctx, window, limit)
	if err != nil {
		return nil, err
	}
	return rep.Report, nil
}
