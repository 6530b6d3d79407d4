// Package web implements the HTML viewer driving adapter. It wraps the
// rendered document fragment in a minimal layout; all mutation goes through
// the JSON API.
package web

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/efisher/markreview/internal/application"
	"github.com/efisher/markreview/internal/domain/model"
	"github.com/efisher/markreview/internal/domain/port/driven"
)

// Handler is the web viewer driving adapter.
type Handler struct {
	store     driven.DocumentStore
	reviewSvc *application.ReviewService
	baseRef   string
	indexTmpl *template.Template
	viewTmpl  *template.Template
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. It parses the
// embedded page templates and fails when they are invalid.
func NewHandler(
	store driven.DocumentStore,
	reviewSvc *application.ReviewService,
	baseRef string,
	logger *slog.Logger,
) (*Handler, error) {
	indexTmpl, err := template.ParseFS(TemplateFS, "templates/layout.tmpl", "templates/index.tmpl")
	if err != nil {
		return nil, err
	}
	viewTmpl, err := template.ParseFS(TemplateFS, "templates/layout.tmpl", "templates/view.tmpl")
	if err != nil {
		return nil, err
	}

	return &Handler{
		store:     store,
		reviewSvc: reviewSvc,
		baseRef:   baseRef,
		indexTmpl: indexTmpl,
		viewTmpl:  viewTmpl,
		logger:    logger,
	}, nil
}

type pageData struct {
	Title     string
	Branch    string
	Status    model.FileStatus
	Documents []documentEntry
	Fragment  template.HTML
}

type documentEntry struct {
	Path      string
	UpdatedAt string
}

// Index renders the document list page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list documents", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	entries := make([]documentEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, documentEntry{
			Path:      doc.Path,
			UpdatedAt: doc.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	h.renderPage(w, h.indexTmpl, pageData{Title: "Documents", Documents: entries})
}

// ViewDocument renders the review view of one document.
func (h *Handler) ViewDocument(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")

	baseRef := h.baseRef
	if base := r.URL.Query().Get("base"); base != "" {
		baseRef = base
	}

	rendered, err := h.reviewSvc.Render(r.Context(), path, baseRef, true)
	if errors.Is(err, driven.ErrDocumentNotFound) {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to render document", "path", path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.renderPage(w, h.viewTmpl, pageData{
		Title:  path,
		Branch: rendered.Branch,
		Status: rendered.Status,
		// The fragment is produced by the document renderer, which escapes
		// all document text itself.
		Fragment: template.HTML(rendered.HTML),
	})
}

func (h *Handler) renderPage(w http.ResponseWriter, tmpl *template.Template, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		h.logger.Error("failed to execute template", "template", tmpl.Name(), "error", err)
	}
}
