package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/efisher/markreview/internal/application"
	"github.com/efisher/markreview/internal/domain/model"
	"github.com/efisher/markreview/internal/domain/port/driven"
	"github.com/efisher/markreview/internal/ledger"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	store           driven.DocumentStore
	reviewSvc       *application.ReviewService
	healthSvc       *application.HealthService
	baseRef         string
	showLineNumbers bool
	logger          *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. baseRef and
// showLineNumbers are the render defaults; requests may override both.
func NewHandler(
	store driven.DocumentStore,
	reviewSvc *application.ReviewService,
	healthSvc *application.HealthService,
	baseRef string,
	showLineNumbers bool,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		store:           store,
		reviewSvc:       reviewSvc,
		healthSvc:       healthSvc,
		baseRef:         baseRef,
		showLineNumbers: showLineNumbers,
		logger:          logger,
	}
}

// NewServeMux creates an http.Handler with all API routes registered and
// wrapped with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger)
}

// RegisterAPIRoutes registers all JSON API routes on the provided mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/documents", h.ListDocuments)
	mux.HandleFunc("GET /api/v1/documents/{path...}", h.GetDocument)
	mux.HandleFunc("PUT /api/v1/documents/{path...}", h.PutDocument)
	mux.HandleFunc("DELETE /api/v1/documents/{path...}", h.DeleteDocument)
	mux.HandleFunc("GET /api/v1/render/{path...}", h.RenderDocument)
	mux.HandleFunc("POST /api/v1/comments/{path...}", h.AddComment)
	mux.HandleFunc("PATCH /api/v1/comments/{id}/plan", h.UpdatePlan)
	mux.HandleFunc("PATCH /api/v1/comments/{id}/response", h.UpdateResponse)
	mux.HandleFunc("PATCH /api/v1/lines/{path...}", h.EditLine)
}

// ApplyMiddleware wraps a handler with logging and recovery middleware.
func ApplyMiddleware(next http.Handler, logger *slog.Logger) http.Handler {
	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, next)
	return loggingMiddleware(logger, wrapped)
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	summary, err := h.healthSvc.Check(r.Context())
	if err != nil {
		h.logger.Error("health check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "unhealthy")
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        summary.Status,
		DocumentCount: summary.DocumentCount,
		Time:          time.Now().UTC().Format(time.RFC3339),
	})
}

// ListDocuments returns all stored documents without their content.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list documents", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]DocumentSummaryResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toDocumentSummaryResponse(doc))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetDocument returns a single document with its raw content.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")

	doc, err := h.store.Get(r.Context(), path)
	if errors.Is(err, driven.ErrDocumentNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get document", "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toDocumentResponse(*doc))
}

// PutDocument creates or replaces a document's content.
func (h *Handler) PutDocument(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")

	var req PutDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc := model.Document{Path: path, Content: req.Content, UpdatedAt: time.Now().UTC()}
	if err := h.store.Upsert(r.Context(), doc); err != nil {
		h.logger.Error("failed to store document", "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toDocumentSummaryResponse(doc))
}

// DeleteDocument removes a document.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")

	err := h.store.Delete(r.Context(), path)
	if errors.Is(err, driven.ErrDocumentNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to delete document", "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RenderDocument returns the rendered review view of a document. Query
// parameters: base overrides the diff base ref, line_numbers (true/false)
// overrides the line badge default.
func (h *Handler) RenderDocument(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")

	baseRef := h.baseRef
	if base := r.URL.Query().Get("base"); base != "" {
		baseRef = base
	}

	showLineNumbers := h.showLineNumbers
	if v := r.URL.Query().Get("line_numbers"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid line_numbers value")
			return
		}
		showLineNumbers = parsed
	}

	rendered, err := h.reviewSvc.Render(r.Context(), path, baseRef, showLineNumbers)
	if errors.Is(err, driven.ErrDocumentNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to render document", "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, rendered)
}

// AddComment opens a new comment thread on a document.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")

	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	author := req.Author
	if author == "" {
		author = model.AuthorUser
	}

	comment, err := h.reviewSvc.AddComment(r.Context(), path, req.Target, author, req.Content)
	if errors.Is(err, driven.ErrDocumentNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		h.logger.Warn("failed to add comment", "path", path, "error", err)
		writeError(w, http.StatusBadRequest, "invalid comment target")
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

// UpdatePlan sets the plan content of an existing comment.
func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	h.updateComment(w, r, h.reviewSvc.UpdatePlan)
}

// UpdateResponse sets the response content of an existing comment.
func (h *Handler) UpdateResponse(w http.ResponseWriter, r *http.Request) {
	h.updateComment(w, r, h.reviewSvc.UpdateResponse)
}

func (h *Handler) updateComment(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, path string, id int, content string) error,
) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	var req UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	err = apply(r.Context(), req.Path, id, req.Content)
	switch {
	case errors.Is(err, driven.ErrDocumentNotFound):
		writeError(w, http.StatusNotFound, "document not found")
	case errors.Is(err, ledger.ErrCommentNotFound):
		writeError(w, http.StatusNotFound, "comment not found")
	case err != nil:
		h.logger.Error("failed to update comment", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// EditLine rewrites one rendered element's text back into the raw source line.
func (h *Handler) EditLine(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")

	var req EditLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.reviewSvc.EditLine(r.Context(), path, req.Line, req.ElementType, req.CellIndex, req.OldText, req.NewText)
	if errors.Is(err, driven.ErrDocumentNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
