package render

import (
	"strings"
)

type tableRow struct {
	line  int
	cells []string
	raw   string
}

type tableState struct {
	rows []tableRow
}

// isTableRow is the table-row heuristic: the line starts with a pipe, or
// contains at least two pipes that are not nested inside [...] link brackets,
// and is not a list item or blockquote.
func isTableRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, ">") || isListItem(line) {
		return false
	}
	if strings.HasPrefix(trimmed, "|") {
		return true
	}
	return unbracketedPipes(trimmed) >= 2
}

// unbracketedPipes counts '|' characters outside [...] spans.
func unbracketedPipes(s string) int {
	count, depth := 0, 0
	for _, c := range s {
		switch c {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case '|':
			if depth == 0 {
				count++
			}
		}
	}
	return count
}

// isSeparatorRow matches the header separator (|---|---| and variants with
// alignment colons).
func isSeparatorRow(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if !strings.ContainsRune(trimmed, '-') {
		return false
	}
	for _, c := range trimmed {
		switch c {
		case '|', '-', ':', ' ':
		default:
			return false
		}
	}
	return true
}

// splitTableCells splits a row into trimmed cell texts, ignoring pipes inside
// [...] and dropping the empty outer cells produced by leading/trailing
// pipes.
func splitTableCells(line string) []string {
	trimmed := strings.TrimSpace(line)
	var cells []string
	var cur strings.Builder
	depth := 0
	for _, c := range trimmed {
		switch {
		case c == '[':
			depth++
			cur.WriteRune(c)
		case c == ']':
			if depth > 0 {
				depth--
			}
			cur.WriteRune(c)
		case c == '|' && depth == 0:
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(c)
		}
	}
	cells = append(cells, strings.TrimSpace(cur.String()))

	if len(cells) > 0 && cells[0] == "" && strings.HasPrefix(trimmed, "|") {
		cells = cells[1:]
	}
	if len(cells) > 0 && cells[len(cells)-1] == "" && strings.HasSuffix(trimmed, "|") {
		cells = cells[:len(cells)-1]
	}
	return cells
}

func (r *renderer) addTableRow(lineNo int, line string) {
	if r.table == nil {
		r.table = &tableState{}
	}
	r.table.rows = append(r.table.rows, tableRow{line: lineNo, cells: splitTableCells(line), raw: line})
}

// flushTable materializes the accumulated rows. The presence of a separator
// row immediately after the first row decides the header/body split. A table
// whose content rows are all additions gets the whole-table added treatment;
// a mixed table gets per-row markers instead.
func (r *renderer) flushTable() {
	if r.table == nil || len(r.table.rows) == 0 {
		r.table = nil
		return
	}
	rows := r.table.rows
	r.table = nil

	var header *tableRow
	body := rows
	if len(rows) >= 2 && isSeparatorRow(rows[1].raw) {
		header = &rows[0]
		body = rows[2:]
	}

	allAdded := r.tableAllAdded(header, body)
	perRow := !allAdded && r.fd.HasChanges()

	// Without per-row markers, removed blocks anchored anywhere inside the
	// table render before it; with them, the rows handle their own.
	if !perRow {
		for _, row := range rows {
			if removed, ok := r.fd.RemovedBefore(row.line); ok {
				r.out.WriteString(r.renderRemovedBlock(removed))
			}
		}
	}

	var out strings.Builder
	out.WriteString("<table" + dataLine(rows[0].line) + ">")

	if header != nil {
		out.WriteString("<thead>")
		out.WriteString(r.renderTableRow(*header, "th", perRow))
		out.WriteString("</thead>")
	}
	out.WriteString("<tbody>")
	if perRow && header != nil {
		// The separator row is never rendered, so deletions anchored at its
		// line surface at the top of the body.
		if removed, ok := r.fd.RemovedBefore(rows[1].line); ok {
			out.WriteString(r.removedTableRows(removed, "td"))
		}
	}
	for _, row := range body {
		out.WriteString(r.renderTableRow(row, "td", perRow))
	}
	out.WriteString("</tbody></table>")

	html := r.blockBadges(rows[0].line) + out.String()
	if allAdded {
		r.out.WriteString(`<div class="added">` + r.lineBadge(rows[0].line) + html + "</div>\n")
	} else {
		r.out.WriteString(html + "\n")
	}
}

// tableAllAdded reports whether every content row (header plus body, not the
// separator) is an added line.
func (r *renderer) tableAllAdded(header *tableRow, body []tableRow) bool {
	if !r.fd.HasChanges() {
		return false
	}
	if header != nil && !r.fd.LineAdded(header.line) {
		return false
	}
	for _, row := range body {
		if !r.fd.LineAdded(row.line) {
			return false
		}
	}
	return header != nil || len(body) > 0
}

// removedTableRows renders deleted source rows as removed-row <tr>s.
func (r *renderer) removedTableRows(text, cellTag string) string {
	var out strings.Builder
	for _, line := range strings.Split(text, "\n") {
		out.WriteString(`<tr class="removed-row">`)
		for _, cell := range splitTableCells(line) {
			out.WriteString("<" + cellTag + ">" + r.inline(cell) + "</" + cellTag + ">")
		}
		out.WriteString("</tr>")
	}
	return out.String()
}

// renderTableRow renders one <tr>. With perRow set, added rows get a subtle
// class marker and removed rows anchored here render before this one.
func (r *renderer) renderTableRow(row tableRow, cellTag string, perRow bool) string {
	var out strings.Builder

	if perRow {
		if removed, ok := r.fd.RemovedBefore(row.line); ok {
			out.WriteString(r.removedTableRows(removed, cellTag))
		}
	}

	class := ""
	if perRow && r.fd.LineAdded(row.line) {
		class = ` class="added"`
	}

	var tr strings.Builder
	tr.WriteString("<tr" + class + dataLine(row.line) + ">")
	for _, cell := range row.cells {
		tr.WriteString("<" + cellTag + ">" + r.inline(cell) + "</" + cellTag + ">")
	}
	tr.WriteString("</tr>")
	out.WriteString(r.inlineBadges(row.line, tr.String()))

	return out.String()
}
