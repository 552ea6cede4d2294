package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"registrar/internal/platform/config"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		name        string
		serviceType config.ServiceType
		method      string
		want        bool
	}{
		{"default serves GET", config.ServiceTypeDefault, http.MethodGet, true},
		{"default serves POST", config.ServiceTypeDefault, http.MethodPost, true},
		{"default serves DELETE", config.ServiceTypeDefault, http.MethodDelete, true},
		{"reader serves GET", config.ServiceTypeReader, http.MethodGet, true},
		{"reader blocks POST", config.ServiceTypeReader, http.MethodPost, false},
		{"reader blocks PUT", config.ServiceTypeReader, http.MethodPut, false},
		{"reader blocks DELETE", config.ServiceTypeReader, http.MethodDelete, false},
		{"reader blocks PATCH", config.ServiceTypeReader, http.MethodPatch, false},
		{"writer blocks GET", config.ServiceTypeWriter, http.MethodGet, false},
		{"writer serves POST", config.ServiceTypeWriter, http.MethodPost, true},
		{"writer serves PUT", config.ServiceTypeWriter, http.MethodPut, true},
		{"writer serves DELETE", config.ServiceTypeWriter, http.MethodDelete, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.serviceType, tt.method))
		})
	}
}

func TestServiceTypeGateRejectsBeforeHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handlerCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	})

	gate := ServiceTypeGate(config.ServiceTypeReader, logger)(next)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/school", nil)
	w := httptest.NewRecorder()
	gate.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, handlerCalled, "gate must reject before the handler runs")
}

func TestServiceTypeGatePassesAllowedVerbs(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	gate := ServiceTypeGate(config.ServiceTypeReader, logger)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/school", nil)
	w := httptest.NewRecorder()
	gate.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
