package httpapi

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"registrar/internal/platform/config"
	schoolhandler "registrar/internal/school/handler"
	"registrar/internal/school/handler/mocks"
	"registrar/internal/school/models"
)

type RouterSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
}

func (s *RouterSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *RouterSuite) newRouter(serviceType config.ServiceType) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Server{ServiceType: serviceType}
	return NewRouter(cfg, schoolhandler.New(s.service, logger), logger, Options{})
}

// TestReaderRejectsWritesWithoutServiceCall is the boundary guarantee: on a
// reader instance a POST never reaches the service layer, so the mock
// records zero invocations.
func (s *RouterSuite) TestReaderRejectsWritesWithoutServiceCall() {
	router := s.newRouter(config.ServiceTypeReader)

	body := strings.NewReader(`{"name":"Northside High","address":"1 Main Street"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/school", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	s.Equal(http.StatusForbidden, w.Code)
}

func (s *RouterSuite) TestReaderServesReads() {
	router := s.newRouter(config.ServiceTypeReader)
	s.service.EXPECT().GetAll(gomock.Any()).Return([]models.School{{ID: 1}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/school/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterSuite) TestWriterRejectsReadsWithoutServiceCall() {
	router := s.newRouter(config.ServiceTypeWriter)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/school/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	s.Equal(http.StatusForbidden, w.Code)
}

func (s *RouterSuite) TestWriterServesWrites() {
	router := s.newRouter(config.ServiceTypeWriter)
	s.service.EXPECT().Delete(gomock.Any(), int64(1)).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/school/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	s.Equal(http.StatusNoContent, w.Code)
}

func (s *RouterSuite) TestDefaultServesEverything() {
	router := s.newRouter(config.ServiceTypeDefault)
	s.service.EXPECT().GetAll(gomock.Any()).Return([]models.School{{ID: 1}}, nil)
	s.service.EXPECT().Delete(gomock.Any(), int64(1)).Return(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/school/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/school/1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	s.Equal(http.StatusNoContent, w.Code)
}

func (s *RouterSuite) TestHealthEndpointBypassesGate() {
	router := s.newRouter(config.ServiceTypeWriter)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterSuite) TestRequestIDPropagatesToResponse() {
	router := s.newRouter(config.ServiceTypeDefault)
	s.service.EXPECT().GetAll(gomock.Any()).Return([]models.School{{ID: 1}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/school/", nil)
	req.Header.Set("X-Request-Id", "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	s.Equal("req-123", w.Header().Get("X-Request-Id"))
}
