package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	httperr "github.com/qlsach-lab/catalog-ledger/internal/core/errors"
	"github.com/qlsach-lab/catalog-ledger/internal/core/storage/memory"
	"github.com/qlsach-lab/catalog-ledger/internal/dispatch"
	"github.com/qlsach-lab/catalog-ledger/internal/ledger"
	"github.com/qlsach-lab/catalog-ledger/internal/metrics"
	"github.com/qlsach-lab/catalog-ledger/internal/reporting"
	"github.com/qlsach-lab/catalog-ledger/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router  *gin.Engine
	metrics *metrics.Registry
}

func newFixture(t *testing.T, rps float64, burst int) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog := memory.NewCatalogStore()
	log := memory.NewActivityLog()
	reg := metrics.NewRegistry()
	reports := reporting.NewReports(reporting.NewAggregator(catalog, log), reporting.NewMemoryCache(), time.Minute, reg)
	svc := ledger.NewService(catalog, log, ledger.WithMetrics(reg), ledger.WithChangeHook(reports.OnChange))
	table := dispatch.NewTable(svc, reports, nil, reg)

	r := gin.New()
	NewService(table, server.NewLimiter(rps, burst), reg, 1).RegisterRoutes(r)
	reports.RegisterRoutes(r)
	return &fixture{router: r, metrics: reg}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) call(t *testing.T, kind, op string, args ...string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(CallRequest{Args: args})
	require.NoError(t, err)
	return f.do(t, http.MethodPost, "/v1/"+kind+"/"+op, string(body))
}

func errorType(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ErrorType
}

func TestSubmitAndEvaluate(t *testing.T) {
	f := newFixture(t, 0, 0)

	w := f.call(t, "submit", "createBook", "B1", "Go", "CNTT", "A", "2024", "100")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Op     string        `json:"op"`
		Result v1.BookRecord `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "createBook", resp.Op)
	assert.Equal(t, int64(100), resp.Result.QuantityOnHand)

	w = f.call(t, "submit", "purchase", "B1", "30", "alice")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.call(t, "evaluate", "getBook", "B1")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(70), resp.Result.QuantityOnHand)
}

func TestErrorMapping(t *testing.T) {
	f := newFixture(t, 0, 0)
	require.Equal(t, http.StatusOK, f.call(t, "submit", "createBook", "B1", "Go", "CNTT", "A", "2024", "10").Code)

	tests := []struct {
		name           string
		kind, op       string
		args           []string
		expectedStatus int
		expectedType   string
	}{
		{"duplicate create", "submit", "createBook", []string{"B1", "Go", "CNTT", "A", "2024", "10"}, http.StatusConflict, httperr.HttpAlreadyExists},
		{"missing book", "evaluate", "getBook", []string{"B404"}, http.StatusNotFound, httperr.HttpNotFound},
		{"insufficient stock", "submit", "purchase", []string{"B1", "11", "alice"}, http.StatusConflict, httperr.HttpInsufficientStock},
		{"bad quantity", "submit", "setQuantity", []string{"B1", "-1"}, http.StatusBadRequest, httperr.HttpInvalidArgument},
		{"wrong arity", "evaluate", "getBook", nil, http.StatusBadRequest, httperr.HttpInvalidArgument},
		{"unknown op", "submit", "burnBooks", nil, http.StatusBadRequest, httperr.HttpUnknownOperation},
		{"submit via evaluate", "evaluate", "purchase", []string{"B1", "1", "alice"}, http.StatusBadRequest, httperr.HttpInvalidArgument},
		{"evaluate via submit", "submit", "listBooks", nil, http.StatusBadRequest, httperr.HttpInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.call(t, tt.kind, tt.op, tt.args...)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.expectedType, errorType(t, w))
		})
	}
}

func TestInvalidBody(t *testing.T) {
	f := newFixture(t, 0, 0)

	w := f.do(t, http.MethodPost, "/v1/evaluate/listBooks", `{"args": [`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, httperr.HttpInvalidJsonError, errorType(t, w))

	w = f.do(t, http.MethodPost, "/v1/evaluate/listBooks", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"op":"listBooks","result":[]}`, w.Body.String())
}

func TestBodyTooLarge(t *testing.T) {
	f := newFixture(t, 0, 0)

	big := `{"args":["` + strings.Repeat("x", 1024*1024) + `"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate/getBook", bytes.NewReader([]byte(big)))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, httperr.HttpInvalidJsonError, errorType(t, w))
}

func TestBookRoutes(t *testing.T) {
	f := newFixture(t, 0, 0)
	require.Equal(t, http.StatusOK, f.call(t, "submit", "initLedger").Code)

	w := f.do(t, http.MethodGet, "/v1/books/S003", "")
	require.Equal(t, http.StatusOK, w.Code)
	var rec v1.BookRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "Kinh Te Vi Mo", rec.Title)

	w = f.do(t, http.MethodGet, "/v1/books?category=CNTT", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []v1.BookRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	ids := make([]string, 0, len(list))
	for _, b := range list {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"S001", "S002", "S005"}, ids)

	w = f.do(t, http.MethodGet, "/v1/books", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 5)

	w = f.do(t, http.MethodGet, "/v1/books/NOPE", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPurchaseShowsUpInReports(t *testing.T) {
	f := newFixture(t, 0, 0)
	require.Equal(t, http.StatusOK, f.call(t, "submit", "initLedger").Code)
	require.Equal(t, http.StatusOK, f.call(t, "submit", "purchase", "S002", "4", "bob").Code)

	w := f.do(t, http.MethodGet, "/v1/reports/top-sellers?period=1d&limit=5", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"S002"`)
}

func TestSubmitRateLimited(t *testing.T) {
	f := newFixture(t, 0.001, 1)

	assert.Equal(t, http.StatusOK, f.call(t, "submit", "initLedger").Code)
	w := f.call(t, "submit", "initLedger")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, httperr.HttpRateLimited, errorType(t, w))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RateLimited))

	// Evaluate is not limited.
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, f.call(t, "evaluate", "listBooks").Code)
	}
}
