package render

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	bodyRenderer  goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	bodyRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
}

// RenderCommentBody converts a comment's markdown content (thread items,
// plan, response) to sanitized HTML. Comment bodies are opaque user/AI text,
// not part of the reviewed document, so they go through a full GFM renderer
// rather than the line-addressed document pass. Returns empty string for
// empty input.
func RenderCommentBody(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := bodyRenderer.Convert([]byte(src), &buf); err != nil {
		return htmlSanitizer.Sanitize(src)
	}

	return htmlSanitizer.Sanitize(buf.String())
}
