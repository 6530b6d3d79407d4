package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efisher/markreview/internal/domain/model"
	"github.com/efisher/markreview/internal/domain/port/driven"
	"github.com/efisher/markreview/internal/ledger"
)

type fakeStore struct {
	docs map[string]model.Document
}

func newFakeStore(docs ...model.Document) *fakeStore {
	s := &fakeStore{docs: make(map[string]model.Document)}
	for _, d := range docs {
		s.docs[d.Path] = d
	}
	return s
}

func (f *fakeStore) Upsert(_ context.Context, doc model.Document) error {
	f.docs[doc.Path] = doc
	return nil
}

func (f *fakeStore) Get(_ context.Context, path string) (*model.Document, error) {
	doc, ok := f.docs[path]
	if !ok {
		return nil, driven.ErrDocumentNotFound
	}
	return &doc, nil
}

func (f *fakeStore) List(_ context.Context) ([]model.Document, error) {
	docs := make([]model.Document, 0, len(f.docs))
	for _, d := range f.docs {
		docs = append(docs, d)
	}
	return docs, nil
}

func (f *fakeStore) Delete(_ context.Context, path string) error {
	if _, ok := f.docs[path]; !ok {
		return driven.ErrDocumentNotFound
	}
	delete(f.docs, path)
	return nil
}

type fakeProvider struct {
	diffText string
	status   model.FileStatus
	branch   string
	err      error
}

func (f *fakeProvider) Diff(_ context.Context, _, _ string) (string, model.FileStatus, error) {
	return f.diffText, f.status, f.err
}

func (f *fakeProvider) Branch(_ context.Context) (string, error) {
	return f.branch, f.err
}

const sampleDoc = "# Title\n\nHello world.\n"

func TestReviewService_RenderWithoutProvider(t *testing.T) {
	store := newFakeStore(model.Document{Path: "doc.md", Content: sampleDoc})
	svc := NewReviewService(store, nil, "")

	out, err := svc.Render(context.Background(), "doc.md", "HEAD", true)

	require.NoError(t, err)
	assert.Equal(t, "doc.md", out.Path)
	assert.Equal(t, model.FileStatusUnchanged, out.Status)
	assert.Empty(t, out.Branch)
	assert.Zero(t, out.CommentCount)
	assert.Contains(t, out.HTML, `<h1 data-line="1"><span class="plain">Title</span></h1>`)
	assert.NotContains(t, out.HTML, `class="added"`)
}

func TestReviewService_RenderDecoratesModifiedDocument(t *testing.T) {
	store := newFakeStore(model.Document{Path: "doc.md", Content: "one\n\nadded line\n"})
	provider := &fakeProvider{
		diffText: "@@ -1,1 +1,3 @@\n one\n+\n+added line\n",
		status:   model.FileStatusModified,
		branch:   "feature-x",
	}
	svc := NewReviewService(store, provider, "")

	out, err := svc.Render(context.Background(), "doc.md", "main", true)

	require.NoError(t, err)
	assert.Equal(t, model.FileStatusModified, out.Status)
	assert.Equal(t, "feature-x", out.Branch)
	assert.Contains(t, out.HTML, `<div class="added">`)
	assert.Contains(t, out.HTML, "added line")
}

func TestReviewService_RenderNewFileAllAdded(t *testing.T) {
	store := newFakeStore(model.Document{Path: "doc.md", Content: "first\n\nsecond\n"})
	provider := &fakeProvider{status: model.FileStatusNew, branch: "feature-x"}
	svc := NewReviewService(store, provider, "")

	out, err := svc.Render(context.Background(), "doc.md", "main", false)

	require.NoError(t, err)
	assert.Equal(t, model.FileStatusNew, out.Status)
	assert.Contains(t, out.HTML, `<div class="added"><p data-line="1"><span class="plain">first</span></p></div>`)
	assert.Contains(t, out.HTML, `<div class="added"><p data-line="3"><span class="plain">second</span></p></div>`)
}

func TestReviewService_RenderDeletedDocument(t *testing.T) {
	store := newFakeStore(model.Document{Path: "doc.md", Content: sampleDoc})
	provider := &fakeProvider{status: model.FileStatusDeleted, branch: "feature-x"}
	svc := NewReviewService(store, provider, "")

	out, err := svc.Render(context.Background(), "doc.md", "main", false)

	require.NoError(t, err)
	assert.Equal(t, model.FileStatusDeleted, out.Status)
	assert.NotContains(t, out.HTML, `class="added"`)
}

func TestBuildFileDiff_DeletedFileFlagged(t *testing.T) {
	fd := buildFileDiff(model.FileStatusDeleted, "doc.md", sampleDoc, "")

	assert.True(t, fd.IsDeleted)
	assert.False(t, fd.HasChanges())
}

func TestReviewService_RenderProviderErrorDegrades(t *testing.T) {
	store := newFakeStore(model.Document{Path: "doc.md", Content: sampleDoc})
	provider := &fakeProvider{err: errors.New("git unavailable")}
	svc := NewReviewService(store, provider, "")

	out, err := svc.Render(context.Background(), "doc.md", "HEAD", true)

	require.NoError(t, err)
	assert.Equal(t, model.FileStatusUnchanged, out.Status)
	assert.Contains(t, out.HTML, "Hello world.")
}

func TestReviewService_RenderUnknownDocument(t *testing.T) {
	svc := NewReviewService(newFakeStore(), nil, "")

	_, err := svc.Render(context.Background(), "missing.md", "HEAD", true)
	assert.ErrorIs(t, err, driven.ErrDocumentNotFound)
}

func TestReviewService_RenderCountsLedgerComments(t *testing.T) {
	content := "Hello<!--comment:1--> world\n\n<!--\nCOMMENTS-DATA\n" +
		`{"1": {"id": 1, "target": {"type": "inline", "line": 1, "text": "Hello"}, "thread": []}}` +
		"\n-->\n"
	store := newFakeStore(model.Document{Path: "doc.md", Content: content})
	svc := NewReviewService(store, nil, "")

	out, err := svc.Render(context.Background(), "doc.md", "HEAD", true)

	require.NoError(t, err)
	assert.Equal(t, 1, out.CommentCount)
	assert.Contains(t, out.HTML, `data-comment-id="1"`)
	assert.NotContains(t, out.HTML, "COMMENTS-DATA")
}

func TestReviewService_AddCommentInline(t *testing.T) {
	store := newFakeStore(model.Document{Path: "doc.md", Content: sampleDoc})
	svc := NewReviewService(store, nil, "")

	target := model.CommentTarget{Type: model.TargetInline, Line: 3, Text: "Hello"}
	comment, err := svc.AddComment(context.Background(), "doc.md", target, model.AuthorUser, "Please reword.")

	require.NoError(t, err)
	assert.Equal(t, 1, comment.ID)
	require.Len(t, comment.Thread, 1)
	assert.Equal(t, "1-1", comment.Thread[0].ID)

	stored := store.docs["doc.md"].Content
	assert.Contains(t, stored, "Hello<!--comment:1--> world.")
	assert.Contains(t, stored, "COMMENTS-DATA")

	data := ledger.Parse(stored)
	require.Contains(t, data, "1")
	assert.Equal(t, "Please reword.", data["1"].Thread[0].Content)
}

func TestReviewService_AddCommentBlockMarkerOwnLine(t *testing.T) {
	store := newFakeStore(model.Document{Path: "doc.md", Content: sampleDoc})
	svc := NewReviewService(store, nil, "")

	target := model.CommentTarget{Type: model.TargetBlock, Line: 1, Element: "h1"}
	_, err := svc.AddComment(context.Background(), "doc.md", target, model.AuthorAI, "Consider a subtitle.")

	require.NoError(t, err)
	assert.Contains(t, store.docs["doc.md"].Content, "<!--comment:1-->\n# Title")
}

func TestReviewService_AddCommentAssignsNextID(t *testing.T) {
	content := "Hello<!--comment:3--> world\n\n<!--\nCOMMENTS-DATA\n" +
		`{"3": {"id": 3, "target": {"type": "inline", "line": 1, "text": "Hello"}, "thread": []}}` +
		"\n-->\n"
	store := newFakeStore(model.Document{Path: "doc.md", Content: content})
	svc := NewReviewService(store, nil, "")

	target := model.CommentTarget{Type: model.TargetInline, Line: 1, Text: "world"}
	comment, err := svc.AddComment(context.Background(), "doc.md", target, model.AuthorUser, "Second thread.")

	require.NoError(t, err)
	assert.Equal(t, 4, comment.ID)

	data := ledger.Parse(store.docs["doc.md"].Content)
	assert.Contains(t, data, "3")
	assert.Contains(t, data, "4")
}

func TestReviewService_AddCommentRecordsInsertPosition(t *testing.T) {
	content := "Hello<!--comment:3--> world\n\n<!--\nCOMMENTS-DATA\n" +
		`{"3": {"id": 3, "target": {"type": "inline", "line": 1, "text": "Hello"}, "thread": []}}` +
		"\n-->\n"
	store := newFakeStore(model.Document{Path: "doc.md", Content: content})
	svc := NewReviewService(store, nil, "")

	// A bogus caller-supplied position is replaced by the measured one.
	target := model.CommentTarget{Type: model.TargetInline, Line: 1, Text: "world", Position: 99}
	comment, err := svc.AddComment(context.Background(), "doc.md", target, model.AuthorUser, "note")

	require.NoError(t, err)
	// Offsets count visible text only; the earlier marker token is invisible.
	assert.Equal(t, len("Hello world"), comment.Target.Position)

	data := ledger.Parse(store.docs["doc.md"].Content)
	require.Contains(t, data, "4")
	assert.Equal(t, len("Hello world"), data["4"].Target.Position)
}

func TestReviewService_AddCommentTargetOutOfRange(t *testing.T) {
	store := newFakeStore(model.Document{Path: "doc.md", Content: sampleDoc})
	svc := NewReviewService(store, nil, "")

	target := model.CommentTarget{Type: model.TargetInline, Line: 99}
	_, err := svc.AddComment(context.Background(), "doc.md", target, model.AuthorUser, "x")
	assert.Error(t, err)
}

func TestReviewService_AddCommentMirrorsFileBackedDocument(t *testing.T) {
	repoDir := t.TempDir()
	path := filepath.Join(repoDir, "doc.md")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

	store := newFakeStore(model.Document{Path: "doc.md", Content: sampleDoc})
	svc := NewReviewService(store, nil, repoDir)

	target := model.CommentTarget{Type: model.TargetInline, Line: 3, Text: "Hello"}
	_, err := svc.AddComment(context.Background(), "doc.md", target, model.AuthorUser, "note")
	require.NoError(t, err)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, store.docs["doc.md"].Content, string(onDisk))
}

func TestReviewService_UpdatePlan(t *testing.T) {
	content := "Hello<!--comment:1--> world\n\n<!--\nCOMMENTS-DATA\n" +
		`{"1": {"id": 1, "target": {"type": "inline", "line": 1, "text": "Hello"}, "thread": []}}` +
		"\n-->\n"
	store := newFakeStore(model.Document{Path: "doc.md", Content: content})
	svc := NewReviewService(store, nil, "")

	err := svc.UpdatePlan(context.Background(), "doc.md", 1, "Reword the greeting.")
	require.NoError(t, err)

	data := ledger.Parse(store.docs["doc.md"].Content)
	require.NotNil(t, data["1"].Plan)
	assert.Equal(t, "Reword the greeting.", data["1"].Plan.Content)
	assert.Equal(t, model.PlanPending, data["1"].Plan.Status)
	assert.True(t, data["1"].Plan.Editable)
}

func TestReviewService_UpdateResponseUnknownID(t *testing.T) {
	content := "x\n\n<!--\nCOMMENTS-DATA\n{}\n-->\n"
	store := newFakeStore(model.Document{Path: "doc.md", Content: content})
	svc := NewReviewService(store, nil, "")

	err := svc.UpdateResponse(context.Background(), "doc.md", 7, "reply")
	assert.ErrorIs(t, err, ledger.ErrCommentNotFound)
}

func TestReviewService_UpdatePlanWithoutLedger(t *testing.T) {
	store := newFakeStore(model.Document{Path: "doc.md", Content: sampleDoc})
	svc := NewReviewService(store, nil, "")

	err := svc.UpdatePlan(context.Background(), "doc.md", 1, "plan")
	assert.ErrorIs(t, err, ledger.ErrCommentNotFound)
}

func TestReviewService_EditLine(t *testing.T) {
	store := newFakeStore(model.Document{Path: "doc.md", Content: sampleDoc})
	svc := NewReviewService(store, nil, "")

	err := svc.EditLine(context.Background(), "doc.md", 3, "plain", 0, "Hello world.", "Hi world.")
	require.NoError(t, err)
	assert.Contains(t, store.docs["doc.md"].Content, "Hi world.")
	assert.NotContains(t, store.docs["doc.md"].Content, "Hello world.")
}

func TestReviewService_EditLineOutOfRange(t *testing.T) {
	store := newFakeStore(model.Document{Path: "doc.md", Content: sampleDoc})
	svc := NewReviewService(store, nil, "")

	err := svc.EditLine(context.Background(), "doc.md", 42, "plain", 0, "a", "b")
	assert.Error(t, err)
}

func TestReviewService_EditLinePreservesLedger(t *testing.T) {
	content := "Hello<!--comment:1--> world\n\n<!--\nCOMMENTS-DATA\n" +
		`{"1": {"id": 1, "target": {"type": "inline", "line": 1, "text": "Hello"}, "thread": []}}` +
		"\n-->\n"
	store := newFakeStore(model.Document{Path: "doc.md", Content: content})
	svc := NewReviewService(store, nil, "")

	err := svc.EditLine(context.Background(), "doc.md", 1, "block", 0, "", "Hi<!--comment:1--> world")
	require.NoError(t, err)

	stored := store.docs["doc.md"].Content
	assert.Contains(t, stored, "COMMENTS-DATA")
	require.NotNil(t, ledger.Parse(stored))
}
