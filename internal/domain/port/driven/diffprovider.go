package driven

import (
	"context"

	"github.com/efisher/markreview/internal/domain/model"
)

// DiffProvider is the driven port for obtaining unified diff text for a
// document relative to a base ref. Diff returns the raw diff text ("" when
// the file is unchanged or untracked) together with the file's status; a
// FileStatusNew result means there is no base revision and the whole file
// should be treated as added.
type DiffProvider interface {
	Diff(ctx context.Context, path, baseRef string) (string, model.FileStatus, error)
	Branch(ctx context.Context) (string, error)
}
