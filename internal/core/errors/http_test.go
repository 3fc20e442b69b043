package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	"github.com/stretchr/testify/assert"
)

func TestResponse_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"invalid argument", InvalidArgumentf("purchase", "bad"), http.StatusBadRequest, HttpInvalidArgument},
		{"not found", NotFound("getBook", "S9"), http.StatusNotFound, HttpNotFound},
		{"already exists", AlreadyExists("createBook", "S1"), http.StatusConflict, HttpAlreadyExists},
		{"insufficient stock", New(KindInsufficientStock, "purchase", "short"), http.StatusConflict, HttpInsufficientStock},
		{"partial failure", PartialFailure("purchase", v1.BookRecord{ID: "S1"}, stderrors.New("x")), http.StatusInternalServerError, HttpPartialFailure},
		{"wrapped", fmt.Errorf("gateway: %w", NotFound("getBook", "S9")), http.StatusNotFound, HttpNotFound},
		{"plain error", stderrors.New("boom"), http.StatusInternalServerError, HttpInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := Response(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantType, body.ErrorType)
			assert.Equal(t, tt.err.Error(), body.Message)
		})
	}
}

func TestResponse_PartialFailureDetails(t *testing.T) {
	rec := v1.BookRecord{ID: "S001", QuantityOnHand: 6}
	_, body := Response(PartialFailure("purchase", rec, stderrors.New("log down")))

	details, ok := body.Details.(map[string]interface{})
	if assert.True(t, ok) {
		assert.Equal(t, &rec, details["record"])
	}
}
