package render

import (
	"strings"
)

// listItem is one accumulated list line awaiting flush. Indent is the
// leading-whitespace length, which is the only input to nesting depth.
type listItem struct {
	line    int
	indent  int
	ordered bool
	text    string
}

type listState struct {
	items []listItem
}

// isListItem matches unordered (-, *, + bullet) and ordered (digits + dot)
// list items, allowing leading indentation.
func isListItem(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	return isBullet(trimmed) || isOrderedBullet(trimmed)
}

func isBullet(trimmed string) bool {
	return len(trimmed) >= 2 && strings.ContainsRune("-*+", rune(trimmed[0])) && trimmed[1] == ' '
}

func isOrderedBullet(trimmed string) bool {
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	return i > 0 && i+1 < len(trimmed) && trimmed[i] == '.' && trimmed[i+1] == ' '
}

func bulletText(trimmed string) string {
	if isBullet(trimmed) {
		return strings.TrimSpace(trimmed[2:])
	}
	return ""
}

func orderedText(trimmed string) string {
	if !isOrderedBullet(trimmed) {
		return ""
	}
	return strings.TrimSpace(trimmed[strings.Index(trimmed, ".")+2:])
}

// addListItem accumulates a list line into the open list, starting one if
// needed.
func (r *renderer) addListItem(lineNo int, line string) {
	trimmed := strings.TrimLeft(line, " \t")
	indent := len(line) - len(trimmed)

	item := listItem{line: lineNo, indent: indent}
	if isBullet(trimmed) {
		item.text = bulletText(trimmed)
	} else {
		item.ordered = true
		item.text = orderedText(trimmed)
	}

	if r.list == nil {
		r.list = &listState{}
	}
	r.list.items = append(r.list.items, item)
}

// flushList materializes the accumulated list into nested <ul>/<ol> HTML.
func (r *renderer) flushList() {
	if r.list == nil || len(r.list.items) == 0 {
		r.list = nil
		return
	}
	items := r.list.items
	r.list = nil

	htmlOut, _ := r.renderListLevel(items, 0)

	// The outermost list element is itself addressable.
	attr := dataLine(items[0].line)
	if strings.HasPrefix(htmlOut, "<ul>") {
		htmlOut = "<ul" + attr + ">" + htmlOut[len("<ul>"):]
	} else if strings.HasPrefix(htmlOut, "<ol>") {
		htmlOut = "<ol" + attr + ">" + htmlOut[len("<ol>"):]
	}

	r.out.WriteString(htmlOut)
	r.out.WriteByte('\n')
}

// renderListLevel renders items[start:] that belong to one nesting level.
// A later item indented deeper than its predecessor opens a nested list
// inside that predecessor's element; the level ends when indentation drops
// below the level's base. Returns the HTML and the index after the level.
func (r *renderer) renderListLevel(items []listItem, start int) (string, int) {
	base := items[start].indent
	tag := "ul"
	if items[start].ordered {
		tag = "ol"
	}

	var out strings.Builder
	out.WriteString("<" + tag + ">")

	var open bool // an <li> is open, awaiting possible nested list
	i := start
	for i < len(items) {
		it := items[i]
		if it.indent < base {
			break
		}
		if it.indent > base {
			nested, next := r.renderListLevel(items, i)
			out.WriteString(nested)
			i = next
			continue
		}

		if open {
			out.WriteString("</li>")
		}
		out.WriteString(r.renderListItem(it))
		open = true
		i++
	}
	if open {
		out.WriteString("</li>")
	}
	out.WriteString("</" + tag + ">")

	return out.String(), i
}

// renderListItem renders one <li>, opened but not closed so a nested list can
// be placed inside it. Removed list content anchored to this item renders as
// its own removed <li> elements inline in the surviving list.
func (r *renderer) renderListItem(it listItem) string {
	var out strings.Builder

	if removed, ok := r.fd.RemovedBefore(it.line); ok {
		for _, line := range strings.Split(removed, "\n") {
			out.WriteString(`<li class="removed-block">` + r.renderRemovedInline(line) + `</li>`)
		}
	}

	class := ""
	if r.fd.LineAdded(it.line) {
		class = ` class="added"`
	}

	out.WriteString("<li" + class + dataLine(it.line) + ">")
	if class != "" {
		out.WriteString(r.lineBadge(it.line))
	}
	out.WriteString(r.blockBadges(it.line))
	out.WriteString(r.inlineBadges(it.line, r.inline(it.text)))

	return out.String()
}
