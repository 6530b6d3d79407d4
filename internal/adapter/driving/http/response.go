package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/efisher/markreview/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status        string `json:"status"`
	DocumentCount int    `json:"documentCount"`
	Time          string `json:"time"`
}

// DocumentSummaryResponse is the content-free JSON representation of a
// document, used by the list endpoint.
type DocumentSummaryResponse struct {
	Path      string `json:"path"`
	UpdatedAt string `json:"updatedAt"`
}

// DocumentResponse is the JSON representation of a document with content.
type DocumentResponse struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	UpdatedAt string `json:"updatedAt"`
}

// PutDocumentRequest is the JSON body for the document upsert endpoint.
type PutDocumentRequest struct {
	Content string `json:"content"`
}

// AddCommentRequest is the JSON body for the add comment endpoint.
type AddCommentRequest struct {
	Target  model.CommentTarget `json:"target"`
	Author  model.Author        `json:"author"`
	Content string              `json:"content"`
}

// UpdateCommentRequest is the JSON body for the plan/response update endpoints.
type UpdateCommentRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// EditLineRequest is the JSON body for the line edit endpoint.
type EditLineRequest struct {
	Line        int    `json:"line"`
	ElementType string `json:"elementType"`
	CellIndex   int    `json:"cellIndex"`
	OldText     string `json:"oldText"`
	NewText     string `json:"newText"`
}

// toDocumentSummaryResponse converts a document to its content-free JSON form.
func toDocumentSummaryResponse(doc model.Document) DocumentSummaryResponse {
	return DocumentSummaryResponse{
		Path:      doc.Path,
		UpdatedAt: doc.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// toDocumentResponse converts a document to its full JSON representation.
func toDocumentResponse(doc model.Document) DocumentResponse {
	return DocumentResponse{
		Path:      doc.Path,
		Content:   doc.Content,
		UpdatedAt: doc.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
