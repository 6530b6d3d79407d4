// Package git implements the DiffProvider port by shelling out to the git
// CLI in the repository working directory.
package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/efisher/markreview/internal/domain/model"
	"github.com/efisher/markreview/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DiffProvider = (*Provider)(nil)

// Provider obtains unified diff text for documents under a local git
// repository.
type Provider struct {
	dir string
}

// NewProvider creates a Provider rooted at the given repository directory.
func NewProvider(dir string) *Provider {
	return &Provider{dir: dir}
}

// Diff returns the unified diff for path relative to baseRef, along with the
// file's status. An untracked file has no base revision: it reports
// FileStatusNew with empty diff text, and the caller builds the all-lines
// added model from the file content instead.
func (p *Provider) Diff(ctx context.Context, path, baseRef string) (string, model.FileStatus, error) {
	if !p.tracked(ctx, path) {
		return "", model.FileStatusNew, nil
	}

	out, err := p.git(ctx, "diff", baseRef, "--", path)
	if err != nil {
		return "", "", fmt.Errorf("git diff %s for %s: %w", baseRef, path, err)
	}

	return out, StatusFromDiff(out), nil
}

// Branch returns the current branch name.
func (p *Provider) Branch(ctx context.Context) (string, error) {
	out, err := p.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// tracked reports whether the path is known to git.
func (p *Provider) tracked(ctx context.Context, path string) bool {
	_, err := p.git(ctx, "ls-files", "--error-unmatch", "--", path)
	return err == nil
}

func (p *Provider) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = p.dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// StatusFromDiff classifies tracked-file diff output into a FileStatus.
// Exported separately from Diff so the mapping is testable without a git
// checkout.
func StatusFromDiff(diffText string) model.FileStatus {
	trimmed := strings.TrimSpace(diffText)
	switch {
	case trimmed == "":
		return model.FileStatusUnchanged
	case strings.Contains(diffText, "deleted file mode"):
		return model.FileStatusDeleted
	case strings.Contains(diffText, "\n@@ -") || strings.HasPrefix(diffText, "@@ -"):
		return model.FileStatusModified
	default:
		// Mode-only or rename-only changes: content identical, file changed.
		return model.FileStatusChanged
	}
}
