package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:    http.StatusBadRequest,
		KindUnauthorized:  http.StatusUnauthorized,
		KindNotFound:      http.StatusNotFound,
		KindConflict:      http.StatusConflict,
		KindConfiguration: http.StatusInternalServerError,
		KindUpstream:      http.StatusInternalServerError,
		KindInternal:      http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.Status(), kind.String())
	}
}

func TestKindOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("apply: %w", Conflict("invoice already applied"))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestFromError_HidesInternalDetails(t *testing.T) {
	status, body := FromError(errors.New("pq: relation \"products\" does not exist"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", body.Error)
	assert.Empty(t, body.Code)
}

func TestFromError_ExtractionCodes(t *testing.T) {
	status, body := FromError(Configuration("GEMINI_API_KEY is not configured"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "GEMINI_API_KEY is not configured", body.Error)
	assert.Equal(t, "extraction_not_configured", body.Code)

	status, body = FromError(Upstream("extraction call failed", errors.New("dial tcp: timeout")))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "extraction call failed", body.Error)
	assert.Equal(t, "extraction_failed", body.Code)
}

func TestError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("EOF")
	err := Upstream("failed to parse extraction response as JSON", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to parse extraction response as JSON: EOF", err.Error())
	assert.Equal(t, "Invalid quantity for line 3", Validation("Invalid quantity for %s", "line 3").Error())
}
