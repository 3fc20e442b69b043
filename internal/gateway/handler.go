package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	httperr "github.com/qlsach-lab/catalog-ledger/internal/core/errors"
	"github.com/qlsach-lab/catalog-ledger/internal/dispatch"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgBodyTooLarge   = "Request body exceeds maximum allowed size"
)

// CallRequest is the body of a submit or evaluate call.
type CallRequest struct {
	Args []string `json:"args"`
}

// CallResponse echoes the operation name alongside its JSON result.
type CallResponse struct {
	Op     string          `json:"op"`
	Result json.RawMessage `json:"result"`
}

// gatewayError carries the structured HTTP error shape from a helper back to the handler.
type gatewayError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *gatewayError) Error() string {
	return e.message
}

// fromDispatch converts a ledger error into its HTTP shape.
func fromDispatch(err error) *gatewayError {
	status, resp := httperr.Response(err)
	return &gatewayError{
		statusCode: status,
		errorType:  resp.ErrorType,
		message:    resp.Message,
		details:    resp.Details,
	}
}

func (s *Service) SubmitHandler(c *gin.Context) {
	s.handleCall(c, dispatch.Submit)
}

func (s *Service) EvaluateHandler(c *gin.Context) {
	s.handleCall(c, dispatch.Evaluate)
}

func (s *Service) handleCall(c *gin.Context, kind dispatch.Kind) {
	op := c.Param("op")
	if gerr := s.checkOperation(op, kind); gerr != nil {
		writeError(c, gerr)
		return
	}

	req, gerr := s.parseCall(c)
	if gerr != nil {
		writeError(c, gerr)
		return
	}

	ctx := c.Request.Context()
	var (
		out json.RawMessage
		err error
	)
	if kind == dispatch.Submit {
		out, err = s.table.Submit(ctx, op, req.Args...)
	} else {
		out, err = s.table.Evaluate(ctx, op, req.Args...)
	}
	if err != nil {
		slog.Info("[Gateway] Operation rejected", "op", op, "kind", kind, "error", err)
		writeError(c, fromDispatch(err))
		return
	}

	c.JSON(http.StatusOK, CallResponse{Op: op, Result: out})
}

// checkOperation rejects unknown ops and ops routed to the wrong kind before the body is read.
func (s *Service) checkOperation(op string, kind dispatch.Kind) *gatewayError {
	actual, ok := s.table.Lookup(op)
	if !ok {
		return &gatewayError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpUnknownOperation,
			message:    "Unknown operation",
			details:    map[string]interface{}{"op": op},
		}
	}
	if actual != kind {
		return &gatewayError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidArgument,
			message:    "Operation must be called via /v1/" + actual.String(),
			details:    map[string]interface{}{"op": op},
		}
	}
	return nil
}

// parseCall reads the capped body. An empty body means no arguments.
func (s *Service) parseCall(c *gin.Context) (*CallRequest, *gatewayError) {
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return nil, &gatewayError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, &gatewayError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgBodyTooLarge,
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	var req CallRequest
	if len(bytes.TrimSpace(bodyBytes)) == 0 {
		return &req, nil
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, &gatewayError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}
	return &req, nil
}

// GetBookHandler serves GET /v1/books/:id.
func (s *Service) GetBookHandler(c *gin.Context) {
	out, err := s.table.Evaluate(c.Request.Context(), "getBook", c.Param("id"))
	if err != nil {
		writeError(c, fromDispatch(err))
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", out)
}

// ListBooksHandler serves GET /v1/books, filtered by ?category= when present.
func (s *Service) ListBooksHandler(c *gin.Context) {
	var (
		out json.RawMessage
		err error
	)
	if category, ok := c.GetQuery("category"); ok {
		out, err = s.table.Evaluate(c.Request.Context(), "listByCategory", category)
	} else {
		out, err = s.table.Evaluate(c.Request.Context(), "listBooks")
	}
	if err != nil {
		writeError(c, fromDispatch(err))
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", out)
}

// writeError serializes a gatewayError as the JSON HTTP response.
func writeError(c *gin.Context, err *gatewayError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
