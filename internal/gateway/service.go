package gateway

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/qlsach-lab/catalog-ledger/internal/dispatch"
	"github.com/qlsach-lab/catalog-ledger/internal/metrics"
	"github.com/qlsach-lab/catalog-ledger/internal/server"
	"golang.org/x/time/rate"
)

// Dispatcher is the submit/evaluate boundary the gateway forwards to.
type Dispatcher interface {
	Submit(ctx context.Context, op string, args ...string) (json.RawMessage, error)
	Evaluate(ctx context.Context, op string, args ...string) (json.RawMessage, error)
	Lookup(op string) (dispatch.Kind, bool)
}

type Service struct {
	table            Dispatcher
	limiter          *rate.Limiter
	metrics          *metrics.Registry
	maxBodySizeBytes int
}

func NewService(table Dispatcher, limiter *rate.Limiter, m *metrics.Registry, maxBodySizeMB int) *Service {
	if table == nil {
		panic("gateway: dispatcher must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		table:            table,
		limiter:          limiter,
		metrics:          m,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// RegisterRoutes registers the gateway routes. Only submit is rate limited.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/submit/:op", server.RateLimit(s.limiter, s.metrics), s.SubmitHandler)
	r.POST("/v1/evaluate/:op", s.EvaluateHandler)

	r.GET("/v1/books", s.ListBooksHandler)
	r.GET("/v1/books/:id", s.GetBookHandler)
}
