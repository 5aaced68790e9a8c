package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "scoutlens/internal/errors"
	"scoutlens/internal/operations"
	"scoutlens/internal/services"
	"scoutlens/internal/store"
	"scoutlens/internal/validation"
)

// defaultListLimit caps the upload listing when no limit is given.
const defaultListLimit = 50

// AnalysisHandler handles upload, status, insight and report requests.
type AnalysisHandler struct {
	service        AnalysisServiceInterface
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewAnalysisHandler creates the analysis handler.
func NewAnalysisHandler(service AnalysisServiceInterface, maxUploadBytes int64, logger *slog.Logger) *AnalysisHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("handler", "analysis")),
	}
}

// Routes returns the analysis routes.
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/uploads", func(r chi.Router) {
		r.Post("/", h.CreateUpload)
		r.Get("/", h.ListUploads)
		r.Route("/{fileID}", func(r chi.Router) {
			r.Get("/status", h.GetStatus)
			r.Get("/insights", h.GetInsights)
			r.Post("/report", h.ComposeReport)
			r.Get("/report", h.GetReport)
		})
	})
	r.Post("/insights/{insightID}/dismiss", h.DismissInsight)

	return r
}

// CreateUpload handles POST /api/uploads as a multipart form with a
// "file" part plus category, subject and level fields.
func (h *AnalysisHandler) CreateUpload(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.renderError(w, r, apierrors.ErrUploadTooLarge)
			return
		}
		h.renderError(w, r, apierrors.ErrValidation("file", "multipart file field is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.renderError(w, r, apierrors.ErrUploadTooLarge)
			return
		}
		h.renderError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	result, err := h.service.CreateUpload(r.Context(), services.UploadParams{
		Filename:    header.Filename,
		Size:        int64(len(data)),
		Category:    r.FormValue("category"),
		SubjectID:   r.FormValue("subject_id"),
		SubjectName: r.FormValue("subject_name"),
		Level:       r.FormValue("level"),
		Data:        data,
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, result)
}

// ListUploads handles GET /api/uploads.
func (h *AnalysisHandler) ListUploads(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.renderError(w, r, apierrors.ErrValidation("limit", "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	files, err := h.service.ListFiles(r.Context(), limit)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"files": files, "count": len(files)})
}

// GetStatus handles GET /api/uploads/{fileID}/status.
func (h *AnalysisHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.renderError(w, r, apierrors.ErrFileNotFound)
			return
		}
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, status)
}

// GetInsights handles GET /api/uploads/{fileID}/insights.
func (h *AnalysisHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.service.Insights(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.renderError(w, r, apierrors.ErrFileNotFound)
			return
		}
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"insights": insights, "count": len(insights)})
}

// DismissInsight handles POST /api/insights/{insightID}/dismiss.
func (h *AnalysisHandler) DismissInsight(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DismissInsight(r.Context(), chi.URLParam(r, "insightID")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.renderError(w, r, apierrors.ErrInsightNotFound)
			return
		}
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"success": true})
}

// ComposeReport handles POST /api/uploads/{fileID}/report. The body is
// an optional JSON object with date_range and focus_areas.
func (h *AnalysisHandler) ComposeReport(w http.ResponseWriter, r *http.Request) {
	var opts services.ReportOptions
	if r.Body != nil && r.ContentLength != 0 {
		if err := render.DecodeJSON(r.Body, &opts); err != nil {
			h.renderError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
	}

	rec, err := h.service.ComposeReport(r.Context(), chi.URLParam(r, "fileID"), opts)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.renderError(w, r, apierrors.ErrFileNotFound)
			return
		}
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, rec)
}

// GetReport handles GET /api/uploads/{fileID}/report.
func (h *AnalysisHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Report(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.renderError(w, r, apierrors.ErrReportNotFound)
			return
		}
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, rec)
}

// renderError maps service-level failures onto the JSON error envelope.
func (h *AnalysisHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apierrors.APIError
	var uploadErr *validation.UploadError

	switch {
	case errors.As(err, &apiErr):
		// Already shaped.
	case errors.As(err, &uploadErr):
		if errors.Is(err, validation.ErrUnsupportedExtension) {
			apiErr = apierrors.ErrUnsupportedFileKind
		} else {
			apiErr = apierrors.ErrValidation(uploadErr.Field, uploadErr.Reason)
		}
	case errors.Is(err, operations.ErrFileNotPending):
		apiErr = apierrors.ErrAlreadyProcessing
	case errors.Is(err, services.ErrFileNotCompleted):
		apiErr = apierrors.ErrFileNotCompleted
	case errors.Is(err, operations.ErrQueueFull):
		apiErr = apierrors.New(http.StatusServiceUnavailable, "QUEUE_FULL", "Analysis queue is full, try again shortly")
	case errors.Is(err, store.ErrNotFound):
		apiErr = apierrors.ErrNotFound
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		apiErr = apierrors.ErrInternalServer
	}

	if err := render.Render(w, r, apierrors.NewErrorResponse(apiErr)); err != nil {
		apierrors.WriteError(w, apiErr)
	}
}
