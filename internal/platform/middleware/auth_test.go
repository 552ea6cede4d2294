package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "registrar/pkg/domain-errors"
)

type staticValidator struct {
	err error
}

func (v staticValidator) ValidateToken(string) (*Claims, error) {
	if v.err != nil {
		return nil, v.err
	}
	return &Claims{Subject: "writer"}, nil
}

func writeGate(v TokenValidator) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return RequireWriteToken(v, logger)(next)
}

func TestRequireWriteTokenIgnoresReadVerbs(t *testing.T) {
	gate := writeGate(staticValidator{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/school", nil)
	w := httptest.NewRecorder()
	gate.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireWriteTokenRejectsMissingToken(t *testing.T) {
	gate := writeGate(staticValidator{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/school", nil)
	w := httptest.NewRecorder()
	gate.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireWriteTokenRejectsInvalidToken(t *testing.T) {
	gate := writeGate(staticValidator{err: dErrors.New(dErrors.CodeUnauthorized, "invalid token")})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/school", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	w := httptest.NewRecorder()
	gate.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireWriteTokenAcceptsValidToken(t *testing.T) {
	gate := writeGate(staticValidator{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/school", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	gate.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
