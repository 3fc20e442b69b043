package errors

import (
	stderrors "errors"
	"net/http"
)

const (
	HttpInternalError     = "internal_error"
	HttpInvalidJsonError  = "invalid_json"
	HttpInvalidArgument   = "invalid_argument"
	HttpNotFound          = "not_found"
	HttpAlreadyExists     = "already_exists"
	HttpInsufficientStock = "insufficient_stock"
	HttpPartialFailure    = "partial_failure"
	HttpUnknownOperation  = "unknown_operation"
	HttpRateLimited       = "rate_limited"
)

// ErrorResponse is the error response body for gateway errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// HttpType maps a kind to its error_type string.
func HttpType(k Kind) string {
	switch k {
	case KindNotFound:
		return HttpNotFound
	case KindAlreadyExists:
		return HttpAlreadyExists
	case KindInvalidArgument:
		return HttpInvalidArgument
	case KindInsufficientStock:
		return HttpInsufficientStock
	case KindPartialFailure:
		return HttpPartialFailure
	default:
		return HttpInternalError
	}
}

// HttpStatus maps a kind to its HTTP status code.
func HttpStatus(k Kind) int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists, KindInsufficientStock:
		return http.StatusConflict
	case KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Response builds the status and body for err. A PartialFailure carries the
// committed record in Details.
func Response(err error) (int, ErrorResponse) {
	kind := KindOf(err)
	resp := ErrorResponse{
		ErrorType: HttpType(kind),
		Message:   err.Error(),
	}

	var e *Error
	if stderrors.As(err, &e) && e.Record != nil {
		resp.Details = map[string]interface{}{"record": e.Record}
	}
	return HttpStatus(kind), resp
}
