package model

import "time"

// Document is a Markdown file under review. Content holds the full raw text
// including any embedded comment markers and the trailing ledger block.
type Document struct {
	Path      string
	Content   string
	UpdatedAt time.Time
}
