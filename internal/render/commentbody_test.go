package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderCommentBody_EmptyInput(t *testing.T) {
	assert.Equal(t, "", RenderCommentBody(""))
}

func TestRenderCommentBody_PlainText(t *testing.T) {
	result := RenderCommentBody("hello world")
	assert.Contains(t, result, "hello world")
}

func TestRenderCommentBody_Bold(t *testing.T) {
	result := RenderCommentBody("**bold text**")
	assert.Contains(t, result, "<strong>bold text</strong>")
}

func TestRenderCommentBody_InlineCode(t *testing.T) {
	result := RenderCommentBody("use `fmt.Println`")
	assert.Contains(t, result, "<code>fmt.Println</code>")
}

func TestRenderCommentBody_SanitizesScript(t *testing.T) {
	result := RenderCommentBody(`<script>alert("xss")</script>`)
	assert.NotContains(t, result, "<script>")
}

func TestRenderCommentBody_GFMStrikethrough(t *testing.T) {
	result := RenderCommentBody("~~deleted~~")
	assert.Contains(t, result, "<del>deleted</del>")
}
