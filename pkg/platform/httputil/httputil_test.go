package httputil

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "treasury/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "internal_error", body["error"])
		assert.NotContains(t, body, "error_description")
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "bad_request", body["error"])
		assert.Equal(t, "invalid input", body["error_description"])
	})
}

func TestStatusFor(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeUnauthorized:        http.StatusForbidden,
		dErrors.CodeNotOwner:            http.StatusForbidden,
		dErrors.CodeNotActive:           http.StatusConflict,
		dErrors.CodeNotFinalized:        http.StatusConflict,
		dErrors.CodeInsufficientFunding: http.StatusConflict,
		dErrors.CodeTransferFailure:     http.StatusConflict,
		dErrors.CodeDeprecatedSkill:     http.StatusUnprocessableEntity,
		dErrors.CodeInvariantViolation:  http.StatusUnprocessableEntity,
		dErrors.CodeUnauthenticated:     http.StatusUnauthorized,
		dErrors.CodeNotFound:            http.StatusNotFound,
		dErrors.CodeTimeout:             http.StatusGatewayTimeout,
		dErrors.CodeRateLimited:         http.StatusTooManyRequests,
		dErrors.CodeValidation:          http.StatusBadRequest,
	}
	for code, want := range cases {
		assert.Equal(t, want, StatusFor(code), string(code))
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("decodes a body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
		var p payload
		require.NoError(t, DecodeJSON(req, &p))
		assert.Equal(t, "x", p.Name)
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		var p payload
		assert.True(t, dErrors.HasCode(DecodeJSON(req, &p), dErrors.CodeBadRequest))
	})

	t.Run("unknown fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nope":1}`))
		var p payload
		assert.True(t, dErrors.HasCode(DecodeJSON(req, &p), dErrors.CodeBadRequest))
	})
}

type namedRequest struct {
	Name string `json:"name"`
}

func (r *namedRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("valid request is normalized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"  pot  "}`))
		w := httptest.NewRecorder()
		got, ok := DecodeAndPrepare[namedRequest](w, req, logger, req.Context(), "req-1")
		require.True(t, ok)
		assert.Equal(t, "pot", got.Name)
	})

	t.Run("validation failure writes 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":" "}`))
		w := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[namedRequest](w, req, logger, req.Context(), "req-1")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
