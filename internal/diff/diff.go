// Package diff builds a line-indexed change model from unified diff text.
//
// Hunk splitting is delegated to sourcegraph/go-diff; the per-line walk over
// each hunk body maintains old/new line counters so that every addition and
// removal is addressed by its 1-indexed position in the *current* document,
// which is the only numbering the renderer understands.
package diff

import (
	"log/slog"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"

	"github.com/efisher/markreview/internal/domain/model"
)

// Parse converts unified diff text for a single file into a FileDiff.
// Lines before the first @@ header (---/+++ file headers, extended git
// headers) are ignored. Malformed diff text degrades to an empty model so a
// bad diff never blocks rendering; the problem is logged instead.
func Parse(filePath, unifiedDiffText string) *model.FileDiff {
	fd := model.NewEmptyFileDiff(filePath)

	hunkText := fromFirstHunkHeader(unifiedDiffText)
	if hunkText == "" {
		return fd
	}

	hunks, err := godiff.ParseHunks([]byte(hunkText))
	if err != nil {
		slog.Warn("unparseable diff, skipping diff decoration", "path", filePath, "error", err)
		return model.NewEmptyFileDiff(filePath)
	}

	for _, h := range hunks {
		fd.Hunks = append(fd.Hunks, parseHunk(fd, h))
	}

	return fd
}

// ParseNewFile builds the model for a file with no base revision: every line
// is an addition and there are no hunks. The renderer treats this uniformly
// with hunk-derived additions.
func ParseNewFile(filePath, content string) *model.FileDiff {
	fd := model.NewEmptyFileDiff(filePath)
	fd.IsNew = true

	for i := 1; i <= lineCount(content); i++ {
		fd.AddedLines[i] = true
	}

	return fd
}

// parseHunk walks one hunk body with new/old line counters seeded from the
// hunk header. Removed lines accumulate in a pending buffer that is flushed
// into RemovedLines -- keyed at the current new-file position -- as soon as a
// surviving line (addition or context) is reached, or at hunk end for
// trailing deletions.
func parseHunk(fd *model.FileDiff, h *godiff.Hunk) model.DiffHunk {
	hunk := model.DiffHunk{
		OldStart: int(h.OrigStartLine),
		OldLines: int(h.OrigLines),
		NewStart: int(h.NewStartLine),
		NewLines: int(h.NewLines),
	}

	newLine := hunk.NewStart
	oldLine := hunk.OldStart
	var pending []string

	flush := func() {
		if len(pending) == 0 {
			return
		}
		block := strings.Join(pending, "\n")
		if prev, ok := fd.RemovedLines[newLine]; ok {
			block = prev + "\n" + block
		}
		fd.RemovedLines[newLine] = block
		pending = nil
	}

	body := strings.TrimSuffix(string(h.Body), "\n")
	for _, raw := range strings.Split(body, "\n") {
		prefix := byte(' ')
		content := raw
		if raw != "" {
			prefix = raw[0]
			content = raw[1:]
		}

		switch prefix {
		case '+':
			flush()
			hunk.Changes = append(hunk.Changes, model.DiffChange{
				Type:       model.ChangeAdded,
				LineNumber: newLine,
				Content:    content,
			})
			fd.AddedLines[newLine] = true
			newLine++
		case '-':
			hunk.Changes = append(hunk.Changes, model.DiffChange{
				Type:          model.ChangeRemoved,
				LineNumber:    newLine,
				OldLineNumber: oldLine,
				Content:       content,
			})
			pending = append(pending, content)
			oldLine++
		case '\\':
			// "\ No newline at end of file" -- not document content.
		default:
			flush()
			hunk.Changes = append(hunk.Changes, model.DiffChange{
				Type:          model.ChangeContext,
				LineNumber:    newLine,
				OldLineNumber: oldLine,
				Content:       content,
			})
			newLine++
			oldLine++
		}
	}

	// Trailing deletions attach past the last surviving line.
	flush()

	return hunk
}

// fromFirstHunkHeader returns the diff text starting at the first @@ line,
// or "" when the text contains no hunks.
func fromFirstHunkHeader(text string) string {
	if strings.HasPrefix(text, "@@ -") {
		return text
	}
	if i := strings.Index(text, "\n@@ -"); i >= 0 {
		return text[i+1:]
	}
	return ""
}

func lineCount(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n") + 1
	if strings.HasSuffix(content, "\n") {
		n--
	}
	return n
}
