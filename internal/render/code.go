package render

import (
	"fmt"
	"html"
	"strings"
)

// openCode starts a fenced code block. The fence line itself is addressable;
// an optional language tag after the backticks becomes a language-* class.
func (r *renderer) openCode(lineNo int, trimmed string) {
	lang := strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))

	if removed, ok := r.fd.RemovedBefore(lineNo); ok {
		r.out.WriteString(r.renderRemovedBlock(removed))
	}

	r.out.WriteString(`<pre class="code-block"` + dataLine(lineNo) + `>`)
	if lang != "" {
		r.out.WriteString(`<code class="language-` + html.EscapeString(lang) + `">`)
	} else {
		r.out.WriteString(`<code>`)
	}
	r.inCode = true
}

// scanCodeLine handles one line inside an open code block: the closing fence
// ends the state, anything else is captured verbatim and individually
// diff-annotated.
func (r *renderer) scanCodeLine(lineNo int, raw string) {
	if strings.HasPrefix(strings.TrimSpace(raw), "```") {
		// Deletions anchored at the closing fence still belong inside the
		// block.
		if removed, ok := r.fd.RemovedBefore(lineNo); ok {
			r.writeRemovedCodeLines(removed)
		}
		r.closeCode()
		return
	}

	if removed, ok := r.fd.RemovedBefore(lineNo); ok {
		r.writeRemovedCodeLines(removed)
	}

	class := "code-line"
	if r.fd.LineAdded(lineNo) {
		class += " added"
	}
	r.out.WriteString(fmt.Sprintf(`<span class="%s"%s>%s</span>`, class, dataLine(lineNo), html.EscapeString(raw)))
	r.out.WriteByte('\n')
}

func (r *renderer) writeRemovedCodeLines(text string) {
	for _, line := range strings.Split(text, "\n") {
		r.out.WriteString(`<span class="code-line removed">` + html.EscapeString(line) + "</span>\n")
	}
}

// closeCode ends the code-block state, also used at end of input for an
// unterminated fence.
func (r *renderer) closeCode() {
	if !r.inCode {
		return
	}
	r.out.WriteString("</code></pre>\n")
	r.inCode = false
}
