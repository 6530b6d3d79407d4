package render

import (
	"fmt"
	"html"
	"strings"
)

// renderRemovedBlock renders a block of deleted source text as a synthetic
// removed construct displayed before its anchor line. The removed text is run
// back through the block classification so deleted headers, quotes and list
// items keep their shape. Removed content carries no data-line attributes and
// no comment decoration: it is not addressable in the current document.
func (r *renderer) renderRemovedBlock(text string) string {
	var out strings.Builder
	out.WriteString(`<div class="removed-block">`)

	lines := strings.Split(text, "\n")
	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			i++

		case isHeader(trimmed):
			level := strings.IndexFunc(trimmed, func(c rune) bool { return c != '#' })
			out.WriteString(fmt.Sprintf("<h%d>%s</h%d>", level, applyInline(html.EscapeString(strings.TrimSpace(trimmed[level:])), false), level))
			i++

		case isHorizontalRule(trimmed):
			out.WriteString("<hr>")
			i++

		case strings.HasPrefix(trimmed, ">"):
			quote := strings.TrimPrefix(strings.TrimPrefix(trimmed, ">"), " ")
			out.WriteString("<blockquote>" + applyInline(html.EscapeString(quote), false) + "</blockquote>")
			i++

		case isListItem(line):
			// Group consecutive removed list items into one list.
			out.WriteString("<ul>")
			for i < len(lines) && isListItem(lines[i]) {
				out.WriteString("<li>" + r.renderRemovedInline(lines[i]) + "</li>")
				i++
			}
			out.WriteString("</ul>")

		default:
			out.WriteString("<p>" + applyInline(html.EscapeString(trimmed), false) + "</p>")
			i++
		}
	}

	out.WriteString("</div>\n")
	return out.String()
}

// renderRemovedInline renders one removed line for display inside a surviving
// construct (a list), stripping its own bullet when it has one.
func (r *renderer) renderRemovedInline(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	switch {
	case isBullet(trimmed):
		trimmed = bulletText(trimmed)
	case isOrderedBullet(trimmed):
		trimmed = orderedText(trimmed)
	}
	return applyInline(html.EscapeString(trimmed), false)
}
