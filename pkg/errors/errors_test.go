package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeMissingCredential, status: http.StatusPreconditionFailed, publicMsg: "provider credential not configured"},
		{code: CodeProviderRejected, status: http.StatusBadGateway, publicMsg: "payment provider rejected the request", detailsOK: true},
		{code: CodeTransport, status: http.StatusBadGateway, publicMsg: "payment provider unreachable", retryable: true, detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			meta := MetadataFor(tt.code)
			require.Equal(t, tt.status, meta.HTTPStatus)
			require.Equal(t, tt.publicMsg, meta.PublicMessage)
			require.Equal(t, tt.retryable, meta.Retryable)
			require.Equal(t, tt.detailsOK, meta.DetailsAllowed)
		})
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	require.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing amount")
	require.Equal(t, CodeValidation, base.Code())
	require.Equal(t, "missing amount", base.Message())
	require.Nil(t, base.Details())

	base.WithDetails(map[string]any{"field": "amount"})
	require.NotNil(t, base.Details())

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "creating refund")
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, CodeConflict, wrapped.Code())
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeProviderRejected, "422 unprocessable")
	typed := As(err)
	require.NotNil(t, typed)
	require.Equal(t, CodeProviderRejected, typed.Code())
	require.Nil(t, As(nil))
	require.Nil(t, As(stdErrors.New("plain")))
}
