package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/efisher/markreview/internal/diff"
	"github.com/efisher/markreview/internal/domain/model"
	"github.com/efisher/markreview/internal/domain/port/driven"
	"github.com/efisher/markreview/internal/ledger"
	"github.com/efisher/markreview/internal/render"
)

// RenderedDocument is the assembled review view of one document.
type RenderedDocument struct {
	Path         string           `json:"path"`
	HTML         string           `json:"html"`
	Branch       string           `json:"branch,omitempty"`
	Status       model.FileStatus `json:"status"`
	CommentCount int              `json:"commentCount"`
}

// ReviewService orchestrates document rendering and the comment write path.
// It depends only on port interfaces. The diff provider may be nil; rendering
// then shows the document without change decoration.
type ReviewService struct {
	store    driven.DocumentStore
	provider driven.DiffProvider
	repoDir  string
}

// NewReviewService creates a new ReviewService. repoDir, when non-empty, is
// the working tree root that file-backed documents are mirrored to on every
// write so the ledger stays in sync with the file the diff provider sees.
func NewReviewService(store driven.DocumentStore, provider driven.DiffProvider, repoDir string) *ReviewService {
	return &ReviewService{
		store:    store,
		provider: provider,
		repoDir:  repoDir,
	}
}

// Render loads a document, overlays its diff state and comment ledger, and
// returns the rendered HTML fragment. Diff provider failures degrade to an
// undecorated render rather than failing the request; the document itself is
// always shown.
func (s *ReviewService) Render(ctx context.Context, path, baseRef string, showLineNumbers bool) (*RenderedDocument, error) {
	doc, err := s.store.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	comments := ledger.Parse(doc.Content)
	body := ledger.StripContent(doc.Content)

	fd := model.NewEmptyFileDiff(path)
	status := model.FileStatusUnchanged
	branch := ""

	if s.provider != nil {
		diffText, st, err := s.provider.Diff(ctx, path, baseRef)
		if err != nil {
			slog.Warn("diff provider failed, rendering without change decoration",
				"path", path, "base_ref", baseRef, "error", err)
		} else {
			status = st
			fd = buildFileDiff(st, path, body, diffText)
		}

		if branch, err = s.provider.Branch(ctx); err != nil {
			slog.Warn("branch lookup failed", "path", path, "error", err)
			branch = ""
		}
	}

	return &RenderedDocument{
		Path:         path,
		HTML:         render.Render(body, fd, showLineNumbers, comments),
		Branch:       branch,
		Status:       status,
		CommentCount: len(comments),
	}, nil
}

// buildFileDiff converts the provider's verdict for a document into the
// renderer's diff model.
func buildFileDiff(status model.FileStatus, path, body, diffText string) *model.FileDiff {
	switch status {
	case model.FileStatusNew:
		return diff.ParseNewFile(path, body)
	case model.FileStatusDeleted:
		fd := model.NewEmptyFileDiff(path)
		fd.IsDeleted = true
		return fd
	case model.FileStatusUnchanged:
		return model.NewEmptyFileDiff(path)
	default:
		return diff.Parse(path, diffText)
	}
}

// AddComment opens a new comment thread on the document: it assigns the next
// ledger id, inserts the marker token at the target, and persists the
// rewritten document. The returned comment carries the assigned id.
func (s *ReviewService) AddComment(ctx context.Context, path string, target model.CommentTarget, author model.Author, content string) (*model.Comment, error) {
	doc, err := s.store.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		Target: target,
		Thread: []model.CommentThreadItem{{
			Author:    author,
			Content:   content,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}},
	}
	merged := ledger.Merge(ledger.Parse(doc.Content), comment)

	body, err := insertMarker(ledger.StripContent(doc.Content), comment.Target, comment.ID)
	if err != nil {
		return nil, fmt.Errorf("add comment to %s: %w", path, err)
	}

	// Record where the marker actually landed, in stripped-text offsets,
	// rather than trusting the caller-supplied position.
	if comment.Target.Type == model.TargetInline {
		line := strings.Split(body, "\n")[comment.Target.Line-1]
		for _, m := range ledger.MarkerPositions(line) {
			if m.ID == comment.ID {
				comment.Target.Position = m.Offset
				break
			}
		}
	}

	if err := s.persist(ctx, path, ledger.ReplaceBlock(body, merged)); err != nil {
		return nil, err
	}
	return comment, nil
}

// UpdatePlan sets the plan content of an existing comment and persists the
// rewritten ledger.
func (s *ReviewService) UpdatePlan(ctx context.Context, path string, id int, content string) error {
	return s.updateLedger(ctx, path, func(data model.CommentsData) error {
		return ledger.UpdatePlan(data, id, content)
	})
}

// UpdateResponse sets the response content of an existing comment and
// persists the rewritten ledger.
func (s *ReviewService) UpdateResponse(ctx context.Context, path string, id int, content string) error {
	return s.updateLedger(ctx, path, func(data model.CommentsData) error {
		return ledger.UpdateResponse(data, id, content)
	})
}

// EditLine rewrites one rendered element's text back into the raw Markdown
// source line and persists the document. elementType and cellIndex follow the
// renderer's element vocabulary.
func (s *ReviewService) EditLine(ctx context.Context, path string, line int, elementType string, cellIndex int, oldText, newText string) error {
	doc, err := s.store.Get(ctx, path)
	if err != nil {
		return err
	}

	body := ledger.StripContent(doc.Content)
	lines := strings.Split(body, "\n")
	if line < 1 || line > len(lines) {
		return fmt.Errorf("edit %s line %d: out of range", path, line)
	}

	updated, err := render.UpdateLine(lines[line-1], elementType, cellIndex, oldText, newText)
	if err != nil {
		return fmt.Errorf("edit %s line %d: %w", path, line, err)
	}
	lines[line-1] = updated

	content := strings.Join(lines, "\n")
	if data := ledger.Parse(doc.Content); data != nil {
		content = ledger.ReplaceBlock(content, data)
	}
	return s.persist(ctx, path, content)
}

func (s *ReviewService) updateLedger(ctx context.Context, path string, apply func(model.CommentsData) error) error {
	doc, err := s.store.Get(ctx, path)
	if err != nil {
		return err
	}

	data := ledger.Parse(doc.Content)
	if data == nil {
		return fmt.Errorf("update comment in %s: %w", path, ledger.ErrCommentNotFound)
	}
	if err := apply(data); err != nil {
		return fmt.Errorf("update comment in %s: %w", path, err)
	}

	return s.persist(ctx, path, ledger.ReplaceBlock(ledger.StripContent(doc.Content), data))
}

func (s *ReviewService) persist(ctx context.Context, path, content string) error {
	err := s.store.Upsert(ctx, model.Document{
		Path:      path,
		Content:   content,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if s.repoDir == "" {
		return nil
	}
	target := filepath.Join(s.repoDir, filepath.FromSlash(path))
	if _, err := os.Stat(target); err != nil {
		// Not file-backed; the store copy is authoritative.
		return nil
	}
	if err := atomic.WriteFile(target, strings.NewReader(content)); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}

// insertMarker places the comment marker token for id at the target location.
// Inline targets get the token inside the target line, right after the first
// occurrence of the target text (end of line when the text is absent). Block
// targets get the token on its own line immediately above the element.
func insertMarker(body string, target model.CommentTarget, id int) (string, error) {
	lines := strings.Split(body, "\n")
	idx := target.Line - 1
	if idx < 0 || idx >= len(lines) {
		return "", fmt.Errorf("target line %d out of range", target.Line)
	}

	token := ledger.MarkerToken(id)
	if target.Type == model.TargetBlock {
		lines = append(lines[:idx], append([]string{token}, lines[idx:]...)...)
		return strings.Join(lines, "\n"), nil
	}

	line := lines[idx]
	if target.Text != "" {
		if pos := strings.Index(line, target.Text); pos >= 0 {
			at := pos + len(target.Text)
			lines[idx] = line[:at] + token + line[at:]
			return strings.Join(lines, "\n"), nil
		}
	}
	lines[idx] = line + token
	return strings.Join(lines, "\n"), nil
}
