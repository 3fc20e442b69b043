package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesSentinelByKind(t *testing.T) {
	err := NotFound("getBook", "S001")
	require.ErrorIs(t, err, ErrNotFound)
	require.NotErrorIs(t, err, ErrAlreadyExists)

	wrapped := fmt.Errorf("dispatch: %w", err)
	require.ErrorIs(t, wrapped, ErrNotFound)
	require.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestError_MessageIncludesOpAndCause(t *testing.T) {
	err := Wrap(KindInternal, "purchase", io.ErrUnexpectedEOF, "read failed")
	require.Equal(t, "purchase: read failed: unexpected EOF", err.Error())
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestPartialFailure_CarriesRecordAndCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := PartialFailure("purchase", v1.BookRecord{ID: "B1", QuantityOnHand: 70}, cause)

	require.ErrorIs(t, err, ErrPartialFailure)
	require.ErrorIs(t, err, cause)

	var typed *Error
	require.True(t, stderrors.As(err, &typed))
	require.NotNil(t, typed.Record)
	require.Equal(t, int64(70), typed.Record.QuantityOnHand)
}

func TestKindOf_UnknownErrorIsInternal(t *testing.T) {
	require.Equal(t, KindInternal, KindOf(stderrors.New("boom")))
	require.Equal(t, KindInternal, KindOf(nil))
}

func TestHttpType(t *testing.T) {
	require.Equal(t, HttpNotFound, HttpType(KindNotFound))
	require.Equal(t, HttpInsufficientStock, HttpType(KindInsufficientStock))
	require.Equal(t, HttpInternalError, HttpType(Kind("other")))
}
