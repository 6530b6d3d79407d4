package ledger

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/efisher/markreview/internal/domain/model"
)

// ledgerHeader is the literal token identifying the trailing HTML-comment
// block that carries the serialized CommentsData mapping.
const ledgerHeader = "COMMENTS-DATA"

const blockOpen = "<!--\n" + ledgerHeader + "\n"

// Parse locates the trailing ledger block in the document and returns the
// CommentsData it contains. A document without a ledger returns nil, which is
// not an error: the renderer simply skips comment decoration. Invalid JSON or
// a body that is not a plain id->Comment mapping also returns nil, with a
// warning logged, so a corrupt ledger degrades rather than fails a render.
func Parse(markdownText string) model.CommentsData {
	body, ok := blockBody(markdownText)
	if !ok {
		return nil
	}

	var data model.CommentsData
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		slog.Warn("invalid comments ledger JSON, skipping comment decoration", "error", err)
		return nil
	}

	for key, comment := range data {
		if comment == nil {
			slog.Warn("comments ledger entry is not an object, skipping comment decoration", "id", key)
			return nil
		}
		if _, err := strconv.Atoi(key); err != nil {
			slog.Warn("comments ledger key is not a comment id, skipping comment decoration", "key", key)
			return nil
		}
	}

	return data
}

// Serialize renders CommentsData as the ledger block: an HTML comment holding
// pretty-printed JSON. Keys marshal in sorted order, so serializing an
// unchanged mapping is stable across round trips.
func Serialize(data model.CommentsData) string {
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		// CommentsData contains only marshalable types; this is unreachable
		// for well-typed callers.
		slog.Error("serialize comments ledger", "error", err)
		body = []byte("{}")
	}
	return blockOpen + string(body) + "\n-->"
}

// ReplaceBlock returns the document text with its ledger block replaced by
// the serialization of data, appending one when the document has none yet.
func ReplaceBlock(markdownText string, data model.CommentsData) string {
	content := StripContent(markdownText)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + Serialize(data) + "\n"
}

// StripContent returns the document text without the trailing ledger block,
// which is the text line addressing and rendering operate on.
func StripContent(markdownText string) string {
	start := strings.LastIndex(markdownText, blockOpen)
	if start < 0 {
		return markdownText
	}
	end := strings.Index(markdownText[start:], "-->")
	if end < 0 {
		return markdownText
	}
	return strings.TrimRight(markdownText[:start], "\n")
}

// blockBody extracts the JSON body from the document's ledger block.
func blockBody(markdownText string) (string, bool) {
	start := strings.LastIndex(markdownText, blockOpen)
	if start < 0 {
		return "", false
	}
	rest := markdownText[start+len(blockOpen):]
	end := strings.Index(rest, "-->")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}
