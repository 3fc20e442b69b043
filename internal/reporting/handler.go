package reporting

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	httperr "github.com/qlsach-lab/catalog-ledger/internal/core/errors"
)

// RegisterRoutes registers the report endpoints on the given router.
func (r *Reports) RegisterRoutes(g gin.IRouter) {
	g.GET("/v1/reports/inventory", r.HandleInventory)
	g.GET("/v1/reports/top-sellers", r.HandleTopSellers)
	g.GET("/v1/reports/sales", r.HandleSales)
}

// HandleInventory handles GET /v1/reports/inventory
func (r *Reports) HandleInventory(c *gin.Context) {
	rep, err := r.Inventory(c.Request.Context())
	if err != nil {
		c.JSON(httperr.Response(err))
		return
	}
	c.JSON(http.StatusOK, rep)
}

// HandleTopSellers handles GET /v1/reports/top-sellers
// Query parameters: period (default 1d), limit (default 10)
func (r *Reports) HandleTopSellers(c *gin.Context) {
	var query struct {
		Period string `form:"period"`
		Limit  string `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidArgument,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	limit := 0
	if query.Limit != "" {
		n, err := strconv.Atoi(query.Limit)
		if err != nil {
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidArgument,
				Message:   "limit must be an integer",
				Details:   query.Limit,
			})
			return
		}
		limit = n
	}

	rep, err := r.TopSellers(c.Request.Context(), query.Period, limit)
	if err != nil {
		c.JSON(httperr.Response(err))
		return
	}
	c.JSON(http.StatusOK, rep)
}

// HandleSales handles GET /v1/reports/sales
// Query parameters: period (default 7d), bucket (default 1d)
func (r *Reports) HandleSales(c *gin.Context) {
	period := c.DefaultQuery("period", "7d")
	bucket := c.DefaultQuery("bucket", "1d")

	buckets, err := r.SalesByBucket(c.Request.Context(), period, bucket)
	if err != nil {
		c.JSON(httperr.Response(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"period":  period,
		"bucket":  bucket,
		"buckets": buckets,
	})
}
