package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegistry_NilIsSafe(t *testing.T) {
	var r *Registry
	require.NotPanics(t, func() {
		r.ObserveOp("purchase", "ok", time.Millisecond)
		r.ObserveSale(3)
		r.IncPartialFailure()
		r.ObservePublish("kafka", nil)
		r.ObserveCache("inventory", true)
		r.IncRateLimited()
		r.SetInventory(1, 2)
	})
}

func TestRegistry_Counters(t *testing.T) {
	r := NewRegistry()
	r.ObserveOp("purchase", "ok", time.Millisecond)
	r.ObserveOp("purchase", "insufficient_stock", time.Millisecond)
	r.ObserveSale(7)
	r.ObservePublish("kafka", errors.New("down"))
	r.SetInventory(5, 620)

	require.Equal(t, float64(1), testutil.ToFloat64(r.OpsTotal.WithLabelValues("purchase", "ok")))
	require.Equal(t, float64(7), testutil.ToFloat64(r.UnitsSold))
	require.Equal(t, float64(1), testutil.ToFloat64(r.PublishFailures.WithLabelValues("kafka")))
	require.Equal(t, float64(620), testutil.ToFloat64(r.InventoryUnits))
}

func TestRegistry_HandlerExposesMetrics(t *testing.T) {
	r := NewRegistry()
	r.ObserveSale(2)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "qlsach_units_sold_total 2"))
}
