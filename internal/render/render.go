// Package render converts Markdown review documents to annotated HTML.
//
// The document renderer is a single forward pass over source lines driven by
// an explicit state machine (code block, list, table, ledger block, default).
// Every top-level element carries its 1-indexed source line in a data-line
// attribute, and the pass overlays two kinds of out-of-band metadata on those
// same line numbers: version-control diff status (added/removed) and review
// comment anchors resolved from markers in the text.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/efisher/markreview/internal/domain/model"
	"github.com/efisher/markreview/internal/ledger"
)

// Render produces the annotated HTML fragment for a Markdown document.
// fd may be nil (no diff decoration) and comments may be nil (no comment
// decoration); both degrade independently. showLineNumbers controls the
// visible line badges on added elements; data-line attributes are always
// emitted. All scanner state lives for the duration of one call.
func Render(markdownText string, fd *model.FileDiff, showLineNumbers bool, comments model.CommentsData) string {
	r := &renderer{
		fd:              fd,
		comments:        comments,
		showLineNumbers: showLineNumbers,
		processed:       map[int]bool{},
		lineMarkers:     map[int][]int{},
		blockMarkers:    map[int][]int{},
	}
	return r.run(markdownText)
}

// renderer holds the scanner state for a single Render call.
type renderer struct {
	out             strings.Builder
	fd              *model.FileDiff
	comments        model.CommentsData
	showLineNumbers bool

	// Comment bookkeeping. processed enforces the render-at-most-once rule;
	// panels collects decorated comment ids in render order for the thread
	// panels appended after the content.
	processed    map[int]bool
	panels       []int
	lineMarkers  map[int][]int
	blockMarkers map[int][]int
	pendingBlock []int

	// Block construct state. The states are mutually exclusive: opening one
	// construct flushes the previous one.
	inCode   bool
	inLedger bool
	list     *listState
	table    *tableState
	lines    []string
}

func (r *renderer) run(markdownText string) string {
	r.lines = strings.Split(markdownText, "\n")

	for i, raw := range r.lines {
		r.scanLine(i+1, raw)
	}

	r.flushList()
	r.flushTable()
	r.closeCode()

	// Deletions trailing at end of file attach one past the last line.
	if removed, ok := r.fd.RemovedBefore(len(r.lines) + 1); ok {
		r.out.WriteString(r.renderRemovedBlock(removed))
	}

	r.writeThreadPanels()

	return r.out.String()
}

// scanLine dispatches one source line to the handler for the current state,
// applying the block grammar priority order within the default state.
func (r *renderer) scanLine(lineNo int, raw string) {
	// The trailing ledger block is metadata, never content.
	if r.inLedger {
		if strings.Contains(raw, "-->") {
			r.inLedger = false
		}
		return
	}
	if r.startsLedgerBlock(lineNo, raw) {
		r.flushList()
		r.flushTable()
		r.inLedger = true
		return
	}

	if r.inCode {
		r.scanCodeLine(lineNo, raw)
		return
	}

	// Comment markers are extracted before block classification so that the
	// token text never reaches the HTML output. Inside code blocks the token
	// stays literal, which is why this happens after the code-state check.
	if id, ok := ledger.IsBlockMarker(raw); ok {
		r.pendingBlock = append(r.pendingBlock, id)
		return
	}
	line := r.claimMarkers(lineNo, raw)
	trimmed := strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(trimmed, "```"):
		r.flushList()
		r.flushTable()
		r.openCode(lineNo, trimmed)

	case trimmed == "":
		r.flushList()
		r.flushTable()
		if removed, ok := r.fd.RemovedBefore(lineNo); ok {
			r.out.WriteString(r.renderRemovedBlock(removed))
		}

	case isTableRow(line):
		r.flushList()
		r.addTableRow(lineNo, line)

	case isHeader(trimmed):
		r.flushList()
		r.flushTable()
		r.renderHeader(lineNo, trimmed)

	case isHorizontalRule(trimmed):
		r.flushList()
		r.flushTable()
		r.renderTopLevel(lineNo, fmt.Sprintf(`<hr data-line="%d">`, lineNo))

	case strings.HasPrefix(trimmed, ">"):
		r.flushList()
		r.flushTable()
		text := strings.TrimPrefix(strings.TrimPrefix(trimmed, ">"), " ")
		html := fmt.Sprintf(`<blockquote data-line="%d">%s</blockquote>`, lineNo, r.inline(text))
		r.renderTopLevel(lineNo, html)

	case isListItem(line):
		r.flushTable()
		r.addListItem(lineNo, line)

	default:
		r.flushList()
		r.flushTable()
		html := fmt.Sprintf(`<p data-line="%d">%s</p>`, lineNo, r.inline(trimmed))
		r.renderTopLevel(lineNo, html)
	}
}

// claimMarkers records the line's inline markers, assigns any pending block
// markers to this line, and returns the line with marker tokens stripped.
// Pending block markers bind to the next line with content, never to blanks.
func (r *renderer) claimMarkers(lineNo int, raw string) string {
	if ids := ledger.ExtractMarkers(raw); len(ids) > 0 {
		r.lineMarkers[lineNo] = ids
	}
	stripped := ledger.StripMarkers(raw)
	if len(r.pendingBlock) > 0 && strings.TrimSpace(stripped) != "" {
		r.blockMarkers[lineNo] = append(r.blockMarkers[lineNo], r.pendingBlock...)
		r.pendingBlock = nil
	}
	return stripped
}

// startsLedgerBlock detects the opening line of the trailing ledger block:
// a lone "<!--" immediately followed by the COMMENTS-DATA header line.
func (r *renderer) startsLedgerBlock(lineNo int, raw string) bool {
	if strings.TrimSpace(raw) != "<!--" || lineNo >= len(r.lines) {
		return false
	}
	return strings.TrimSpace(r.lines[lineNo]) == "COMMENTS-DATA"
}

// renderTopLevel emits one top-level element, preceded by any removed block
// anchored to its line, wrapped by the added decoration when the line is an
// addition, and decorated with its comment badges.
func (r *renderer) renderTopLevel(lineNo int, html string) {
	if removed, ok := r.fd.RemovedBefore(lineNo); ok {
		r.out.WriteString(r.renderRemovedBlock(removed))
	}

	html = r.blockBadges(lineNo) + r.inlineBadges(lineNo, html)

	if r.fd.LineAdded(lineNo) {
		r.out.WriteString(`<div class="added">`)
		r.out.WriteString(r.lineBadge(lineNo))
		r.out.WriteString(html)
		r.out.WriteString(`</div>`)
	} else {
		r.out.WriteString(html)
	}
	r.out.WriteByte('\n')
}

// lineBadge returns the visible line-number badge, or "" when badges are off.
func (r *renderer) lineBadge(lineNo int) string {
	if !r.showLineNumbers {
		return ""
	}
	return fmt.Sprintf(`<span class="line-number">%d</span>`, lineNo)
}

func (r *renderer) renderHeader(lineNo int, trimmed string) {
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	text := strings.TrimSpace(trimmed[level:])
	html := fmt.Sprintf(`<h%d data-line="%d">%s</h%d>`, level, lineNo, r.inline(text), level)
	r.renderTopLevel(lineNo, html)
}

// isHeader matches ATX headers: one to six '#' followed by a space and text.
func isHeader(trimmed string) bool {
	if !strings.HasPrefix(trimmed, "#") {
		return false
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	return level <= 6 && level < len(trimmed) && trimmed[level] == ' '
}

// isHorizontalRule matches three or more of '-', '*' or '_' alone on a line.
func isHorizontalRule(trimmed string) bool {
	if len(trimmed) < 3 {
		return false
	}
	first := rune(trimmed[0])
	if first != '-' && first != '*' && first != '_' {
		return false
	}
	for _, c := range trimmed {
		if c != first {
			return false
		}
	}
	return true
}

func dataLine(lineNo int) string {
	return ` data-line="` + strconv.Itoa(lineNo) + `"`
}
