package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	httperr "github.com/qlsach-lab/catalog-ledger/internal/core/errors"
	"github.com/qlsach-lab/catalog-ledger/internal/metrics"
	"golang.org/x/time/rate"
)

// RateLimit rejects requests with 429 once the token bucket is empty.
// A nil limiter lets everything through.
func RateLimit(limiter *rate.Limiter, m *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limiter.Allow() {
			c.Next()
			return
		}

		m.IncRateLimited()
		slog.Warn("Request rate limited", "path", c.FullPath(), "client", c.ClientIP())
		c.AbortWithStatusJSON(http.StatusTooManyRequests, httperr.ErrorResponse{
			ErrorType: httperr.HttpRateLimited,
			Message:   "Too many requests",
			Details: map[string]interface{}{
				"limit_rps": float64(limiter.Limit()),
				"burst":     limiter.Burst(),
			},
		})
	}
}

// NewLimiter builds a token bucket; rps <= 0 disables limiting.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
