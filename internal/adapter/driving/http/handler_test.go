package httphandler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efisher/markreview/internal/application"
	"github.com/efisher/markreview/internal/domain/model"
	"github.com/efisher/markreview/internal/domain/port/driven"
)

type memStore struct {
	docs map[string]model.Document
}

func newMemStore(docs ...model.Document) *memStore {
	s := &memStore{docs: make(map[string]model.Document)}
	for _, d := range docs {
		s.docs[d.Path] = d
	}
	return s
}

func (s *memStore) Upsert(_ context.Context, doc model.Document) error {
	s.docs[doc.Path] = doc
	return nil
}

func (s *memStore) Get(_ context.Context, path string) (*model.Document, error) {
	doc, ok := s.docs[path]
	if !ok {
		return nil, driven.ErrDocumentNotFound
	}
	return &doc, nil
}

func (s *memStore) List(_ context.Context) ([]model.Document, error) {
	docs := make([]model.Document, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, d)
	}
	return docs, nil
}

func (s *memStore) Delete(_ context.Context, path string) error {
	if _, ok := s.docs[path]; !ok {
		return driven.ErrDocumentNotFound
	}
	delete(s.docs, path)
	return nil
}

func newTestHandler(store *memStore) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reviewSvc := application.NewReviewService(store, nil, "")
	healthSvc := application.NewHealthService(store)
	h := NewHandler(store, reviewSvc, healthSvc, "HEAD", true, logger)
	return NewServeMux(h, logger)
}

const commentedDoc = "# Title\n\nHello<!--comment:1--> world\n\n<!--\nCOMMENTS-DATA\n" +
	`{"1": {"id": 1, "target": {"type": "inline", "line": 3, "text": "Hello"}, "thread": []}}` +
	"\n-->\n"

func doRequest(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Health(t *testing.T) {
	handler := newTestHandler(newMemStore(model.Document{Path: "a.md"}))

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.DocumentCount)
}

func TestHandler_ListDocuments(t *testing.T) {
	handler := newTestHandler(newMemStore(
		model.Document{Path: "a.md", Content: "a"},
		model.Document{Path: "b.md", Content: "b"},
	))

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/documents", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []DocumentSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)
	assert.NotContains(t, rec.Body.String(), `"content"`)
}

func TestHandler_GetDocument(t *testing.T) {
	handler := newTestHandler(newMemStore(model.Document{Path: "docs/a.md", Content: "# A\n"}))

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/documents/docs/a.md", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp DocumentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "docs/a.md", resp.Path)
	assert.Equal(t, "# A\n", resp.Content)
}

func TestHandler_GetDocumentNotFound(t *testing.T) {
	handler := newTestHandler(newMemStore())

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/documents/missing.md", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_PutDocument(t *testing.T) {
	store := newMemStore()
	handler := newTestHandler(store)

	rec := doRequest(t, handler, http.MethodPut, "/api/v1/documents/new.md", `{"content": "# New\n"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# New\n", store.docs["new.md"].Content)
}

func TestHandler_PutDocumentInvalidBody(t *testing.T) {
	handler := newTestHandler(newMemStore())

	rec := doRequest(t, handler, http.MethodPut, "/api/v1/documents/new.md", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_DeleteDocument(t *testing.T) {
	store := newMemStore(model.Document{Path: "a.md"})
	handler := newTestHandler(store)

	rec := doRequest(t, handler, http.MethodDelete, "/api/v1/documents/a.md", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotContains(t, store.docs, "a.md")
}

func TestHandler_DeleteDocumentNotFound(t *testing.T) {
	handler := newTestHandler(newMemStore())

	rec := doRequest(t, handler, http.MethodDelete, "/api/v1/documents/a.md", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_RenderDocument(t *testing.T) {
	handler := newTestHandler(newMemStore(model.Document{Path: "doc.md", Content: commentedDoc}))

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/render/doc.md", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp application.RenderedDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "doc.md", resp.Path)
	assert.Equal(t, 1, resp.CommentCount)
	assert.Contains(t, resp.HTML, `data-line="1"`)
	assert.Contains(t, resp.HTML, `data-comment-id="1"`)
}

func TestHandler_RenderDocumentNotFound(t *testing.T) {
	handler := newTestHandler(newMemStore())

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/render/missing.md", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_RenderDocumentInvalidLineNumbers(t *testing.T) {
	handler := newTestHandler(newMemStore(model.Document{Path: "doc.md", Content: "x\n"}))

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/render/doc.md?line_numbers=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_AddComment(t *testing.T) {
	store := newMemStore(model.Document{Path: "doc.md", Content: "# Title\n\nHello world\n"})
	handler := newTestHandler(store)

	body := `{"target": {"type": "inline", "line": 3, "text": "Hello"}, "content": "Reword this."}`
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/comments/doc.md", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp model.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.ID)
	assert.Equal(t, model.AuthorUser, resp.Thread[0].Author)
	assert.Contains(t, store.docs["doc.md"].Content, "<!--comment:1-->")
}

func TestHandler_AddCommentMissingContent(t *testing.T) {
	handler := newTestHandler(newMemStore(model.Document{Path: "doc.md", Content: "x\n"}))

	body := `{"target": {"type": "inline", "line": 1}}`
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/comments/doc.md", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_AddCommentUnknownDocument(t *testing.T) {
	handler := newTestHandler(newMemStore())

	body := `{"target": {"type": "inline", "line": 1}, "content": "x"}`
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/comments/missing.md", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_AddCommentTargetOutOfRange(t *testing.T) {
	handler := newTestHandler(newMemStore(model.Document{Path: "doc.md", Content: "x\n"}))

	body := `{"target": {"type": "inline", "line": 99}, "content": "x"}`
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/comments/doc.md", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_UpdatePlan(t *testing.T) {
	store := newMemStore(model.Document{Path: "doc.md", Content: commentedDoc})
	handler := newTestHandler(store)

	body := `{"path": "doc.md", "content": "Fix the greeting."}`
	rec := doRequest(t, handler, http.MethodPatch, "/api/v1/comments/1/plan", body)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, store.docs["doc.md"].Content, "Fix the greeting.")
}

func TestHandler_UpdateResponseUnknownComment(t *testing.T) {
	handler := newTestHandler(newMemStore(model.Document{Path: "doc.md", Content: commentedDoc}))

	body := `{"path": "doc.md", "content": "done"}`
	rec := doRequest(t, handler, http.MethodPatch, "/api/v1/comments/42/response", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_UpdatePlanInvalidID(t *testing.T) {
	handler := newTestHandler(newMemStore())

	rec := doRequest(t, handler, http.MethodPatch, "/api/v1/comments/abc/plan", `{"path": "doc.md"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_UpdatePlanMissingPath(t *testing.T) {
	handler := newTestHandler(newMemStore())

	rec := doRequest(t, handler, http.MethodPatch, "/api/v1/comments/1/plan", `{"content": "x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_EditLine(t *testing.T) {
	store := newMemStore(model.Document{Path: "doc.md", Content: "# Title\n\nHello world\n"})
	handler := newTestHandler(store)

	body := `{"line": 3, "elementType": "plain", "oldText": "Hello world", "newText": "Hi world"}`
	rec := doRequest(t, handler, http.MethodPatch, "/api/v1/lines/doc.md", body)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, store.docs["doc.md"].Content, "Hi world")
}

func TestHandler_EditLineOutOfRange(t *testing.T) {
	handler := newTestHandler(newMemStore(model.Document{Path: "doc.md", Content: "x\n"}))

	body := `{"line": 9, "elementType": "plain", "oldText": "x", "newText": "y"}`
	rec := doRequest(t, handler, http.MethodPatch, "/api/v1/lines/doc.md", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
