package render

import (
	"fmt"
	"strings"
)

// UpdateLine translates an edit made on a rendered element back into an
// updated raw Markdown line. elementType uses the same vocabulary the
// renderer emits: strong, em, del, code, a, td, th, plain, block. cellIndex
// selects the cell for td/th edits and is ignored otherwise. oldText is the
// element's previous text content; newText replaces it.
//
// The host editor owns writing the updated line back into the document; this
// function is a pure line transform.
func UpdateLine(line, elementType string, cellIndex int, oldText, newText string) (string, error) {
	switch elementType {
	case "strong":
		return replaceSpan(line, oldText, newText, "**", "__")
	case "em":
		return replaceSpan(line, oldText, newText, "*", "_")
	case "del":
		return replaceSpan(line, oldText, newText, "~~")
	case "code":
		return replaceSpan(line, oldText, newText, "`")
	case "a":
		return replaceLinkLabel(line, oldText, newText)
	case "td", "th":
		return replaceTableCell(line, cellIndex, newText)
	case "plain":
		if oldText == "" || !strings.Contains(line, oldText) {
			return "", fmt.Errorf("text %q not found in line", oldText)
		}
		return strings.Replace(line, oldText, newText, 1), nil
	case "block":
		return replaceBlockText(line, newText), nil
	default:
		return "", fmt.Errorf("unknown element type %q", elementType)
	}
}

// replaceSpan rewrites the first delimited span whose interior matches
// oldText, trying each delimiter variant in turn.
func replaceSpan(line, oldText, newText string, delims ...string) (string, error) {
	for _, d := range delims {
		needle := d + oldText + d
		if strings.Contains(line, needle) {
			return strings.Replace(line, needle, d+newText+d, 1), nil
		}
	}
	return "", fmt.Errorf("span %q not found in line", oldText)
}

// replaceLinkLabel rewrites the label of the first [label](url) whose label
// matches oldText, keeping the URL.
func replaceLinkLabel(line, oldText, newText string) (string, error) {
	needle := "[" + oldText + "]("
	at := strings.Index(line, needle)
	if at < 0 {
		return "", fmt.Errorf("link %q not found in line", oldText)
	}
	return line[:at+1] + newText + line[at+1+len(oldText):], nil
}

// replaceTableCell rewrites cell cellIndex (0-based, outer pipes excluded) of
// a table row, preserving the row's pipe layout.
func replaceTableCell(line string, cellIndex int, newText string) (string, error) {
	cells := splitTableCells(line)
	if cellIndex < 0 || cellIndex >= len(cells) {
		return "", fmt.Errorf("cell index %d out of range for row with %d cells", cellIndex, len(cells))
	}
	cells[cellIndex] = newText
	return "| " + strings.Join(cells, " | ") + " |", nil
}

// replaceBlockText replaces a block element's whole text while preserving its
// structural prefix: header hashes, blockquote marker, or list bullet.
func replaceBlockText(line, newText string) string {
	trimmed := strings.TrimLeft(line, " \t")
	indent := line[:len(line)-len(trimmed)]

	switch {
	case isHeader(strings.TrimSpace(trimmed)):
		level := 0
		for level < len(trimmed) && trimmed[level] == '#' {
			level++
		}
		return indent + trimmed[:level] + " " + newText
	case strings.HasPrefix(trimmed, ">"):
		return indent + "> " + newText
	case isBullet(trimmed):
		return indent + trimmed[:2] + newText
	case isOrderedBullet(trimmed):
		dot := strings.Index(trimmed, ".")
		return indent + trimmed[:dot+2] + newText
	default:
		return indent + newText
	}
}
