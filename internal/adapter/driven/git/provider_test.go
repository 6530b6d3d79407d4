package git

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/efisher/markreview/internal/domain/model"
)

func TestStatusFromDiff_Empty(t *testing.T) {
	assert.Equal(t, model.FileStatusUnchanged, StatusFromDiff(""))
	assert.Equal(t, model.FileStatusUnchanged, StatusFromDiff("\n"))
}

func TestStatusFromDiff_Modified(t *testing.T) {
	text := "diff --git a/doc.md b/doc.md\n--- a/doc.md\n+++ b/doc.md\n@@ -1,1 +1,2 @@\n same\n+added\n"
	assert.Equal(t, model.FileStatusModified, StatusFromDiff(text))
}

func TestStatusFromDiff_Deleted(t *testing.T) {
	text := "diff --git a/doc.md b/doc.md\ndeleted file mode 100644\n--- a/doc.md\n+++ /dev/null\n@@ -1,2 +0,0 @@\n-one\n-two\n"
	assert.Equal(t, model.FileStatusDeleted, StatusFromDiff(text))
}

func TestStatusFromDiff_ModeOnlyChange(t *testing.T) {
	text := "diff --git a/doc.md b/doc.md\nold mode 100644\nnew mode 100755\n"
	assert.Equal(t, model.FileStatusChanged, StatusFromDiff(text))
}
