// Package ledger manages review-comment markers embedded in Markdown text and
// the JSON comment ledger persisted at the end of the document.
package ledger

import (
	"regexp"
	"strconv"
	"strings"
)

// markerRe matches the inline comment marker token. The id is always a
// positive integer assigned by Merge.
var markerRe = regexp.MustCompile(`<!--comment:(\d+)-->`)

// Marker is one marker occurrence within a line. Offset is the character
// position of the marker within the line *after* all markers are stripped,
// i.e. the position in the text the reader actually sees.
type Marker struct {
	ID     int
	Offset int
}

// ExtractMarkers returns the comment ids of every marker token in the line,
// in order of appearance. Malformed tokens are not matched and stay literal.
func ExtractMarkers(line string) []int {
	var ids []int
	for _, m := range markerRe.FindAllStringSubmatch(line, -1) {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// IsBlockMarker reports whether the line consists of exactly one marker token
// and nothing else. Such a marker is block-style: it belongs to the next
// non-marker line.
func IsBlockMarker(line string) (int, bool) {
	trimmed := strings.TrimSpace(line)
	m := markerRe.FindStringSubmatch(trimmed)
	if m == nil || m[0] != trimmed {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

// StripMarkers removes every marker token from the line, leaving the
// surrounding text untouched.
func StripMarkers(line string) string {
	return markerRe.ReplaceAllString(line, "")
}

// MarkerPositions returns each marker in the line together with its offset in
// the stripped text. Offsets are what CommentTarget.Position records: the
// point where the marker was inserted relative to the visible line.
func MarkerPositions(line string) []Marker {
	var markers []Marker
	removed := 0
	for _, loc := range markerRe.FindAllStringSubmatchIndex(line, -1) {
		id, err := strconv.Atoi(line[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		markers = append(markers, Marker{ID: id, Offset: loc[0] - removed})
		removed += loc[1] - loc[0]
	}
	return markers
}

// MarkerToken renders the marker token for a comment id, used when inserting
// a new comment anchor into document text.
func MarkerToken(id int) string {
	return "<!--comment:" + strconv.Itoa(id) + "-->"
}
