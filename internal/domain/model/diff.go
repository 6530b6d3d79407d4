package model

// ChangeType classifies a single line of a unified diff.
type ChangeType string

// Change types recorded in a DiffHunk.
const (
	ChangeAdded   ChangeType = "added"
	ChangeRemoved ChangeType = "removed"
	ChangeContext ChangeType = "context"
)

// DiffChange is one line's diff status. LineNumber is the 1-indexed position
// in the new file; OldLineNumber is the position in the old file and is only
// meaningful for removed and context lines.
type DiffChange struct {
	Type          ChangeType
	LineNumber    int
	OldLineNumber int
	Content       string
}

// DiffHunk is one contiguous diff region with the start positions and line
// counts taken from its @@ header.
type DiffHunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Changes  []DiffChange
}

// FileDiff is the whole-file diff model the renderer consumes. AddedLines and
// RemovedLines are both keyed by 1-indexed line numbers in the *current*
// document, never by the diff's own numbering. A RemovedLines entry holds the
// verbatim (possibly multi-line) removed text displayed immediately before
// that line; a key one past the last line means the deletions were trailing.
type FileDiff struct {
	FilePath     string
	IsNew        bool
	IsDeleted    bool
	Hunks        []DiffHunk
	AddedLines   map[int]bool
	RemovedLines map[int]string
}

// NewEmptyFileDiff returns a FileDiff with no changes for the given path.
func NewEmptyFileDiff(filePath string) *FileDiff {
	return &FileDiff{
		FilePath:     filePath,
		AddedLines:   map[int]bool{},
		RemovedLines: map[int]string{},
	}
}

// LineAdded reports whether the given current-document line is an addition.
// Nil-safe so the renderer can be called without a diff model.
func (fd *FileDiff) LineAdded(line int) bool {
	return fd != nil && fd.AddedLines[line]
}

// RemovedBefore returns the removed text block displayed before the given
// current-document line, if any.
func (fd *FileDiff) RemovedBefore(line int) (string, bool) {
	if fd == nil {
		return "", false
	}
	text, ok := fd.RemovedLines[line]
	return text, ok
}

// HasChanges reports whether the diff contains any additions or removals.
func (fd *FileDiff) HasChanges() bool {
	return fd != nil && (len(fd.AddedLines) > 0 || len(fd.RemovedLines) > 0)
}
