package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"registrar/internal/school/models"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/httputil"
	"registrar/pkg/requestcontext"
)

// Service defines the school operations the HTTP layer consumes.
type Service interface {
	Add(ctx context.Context, name, address, principalName string) (*models.School, error)
	Update(ctx context.Context, school *models.School, expectedVersion int64) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.School, error)
	GetAll(ctx context.Context) ([]models.School, error)
	GetByDateRange(ctx context.Context, from, to time.Time) ([]models.Version, error)
	GetAllVersions(ctx context.Context, id int64) ([]models.Version, error)
}

// Handler handles the versioned school endpoints.
type Handler struct {
	logger  *slog.Logger
	schools Service
}

// New creates a school Handler.
func New(schools Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, schools: schools}
}

// Register mounts the school routes on the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/v1/school", func(r chi.Router) {
		r.Get("/", h.handleGetAll)
		r.Post("/", h.handleCreate)
		r.Get("/by-date-range", h.handleGetByDateRange)
		r.Get("/history/{id}", h.handleGetHistory)
		r.Get("/{id}", h.handleGetByID)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleGetAll(w http.ResponseWriter, r *http.Request) {
	schools, err := h.schools.GetAll(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "list schools", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSchoolResponses(schools))
}

func (h *Handler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	school, err := h.schools.GetByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "get school", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSchoolResponse(*school))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSchoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	school, err := h.schools.Add(r.Context(), req.Name, req.Address, req.PrincipalName)
	if err != nil {
		h.writeServiceError(w, r, "create school", err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/school/%d", school.ID))
	httputil.WriteJSON(w, http.StatusCreated, toSchoolResponse(*school))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req UpdateSchoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	if err := req.Validate(id); err != nil {
		httputil.WriteError(w, err)
		return
	}

	expectedVersion, err := expectedVersionHeader(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	school := &models.School{
		ID:            req.ID,
		Name:          req.Name,
		Address:       req.Address,
		PrincipalName: req.PrincipalName,
	}
	if err := h.schools.Update(r.Context(), school, expectedVersion); err != nil {
		h.writeServiceError(w, r, "update school", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.schools.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, "delete school", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	versions, err := h.schools.GetAllVersions(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "get school history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVersionResponses(versions))
}

func (h *Handler) handleGetByDateRange(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRangeParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	versions, err := h.schools.GetByDateRange(r.Context(), from, to)
	if err != nil {
		h.writeServiceError(w, r, "get schools by date range", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVersionResponses(versions))
}

// writeServiceError logs unexpected failures and translates everything into
// the JSON error envelope. Expected conditions stay at debug-level noise.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), "operation failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"operation", operation,
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "invalid school id")
	}
	return id, nil
}

// expectedVersionHeader reads the optional If-Match row version. Zero means
// the caller opted out of the optimistic concurrency check.
func expectedVersionHeader(r *http.Request) (int64, error) {
	raw := r.Header.Get("If-Match")
	if raw == "" {
		return 0, nil
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || version <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "invalid If-Match row version")
	}
	return version, nil
}

// dateRangeParams parses fromDate (required) and toDate (optional, open
// interval when omitted). Accepts RFC3339 or plain dates.
func dateRangeParams(r *http.Request) (time.Time, time.Time, error) {
	from, err := parseDate(r.URL.Query().Get("fromDate"))
	if err != nil {
		return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeValidation, "invalid fromDate")
	}

	to := models.MaxValidTo
	if raw := r.URL.Query().Get("toDate"); raw != "" {
		to, err = parseDate(raw)
		if err != nil {
			return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeValidation, "invalid toDate")
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeValidation, "toDate must not precede fromDate")
	}
	return from, to, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
