package render

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/efisher/markreview/internal/domain/model"
)

// comment looks up a ledger entry by id, applying the render-at-most-once
// rule: the first marker occurrence wins and later ones are ignored. Returns
// nil for unknown ids (marker without ledger entry) and for ids already
// decorated in this pass.
func (r *renderer) comment(id int) *model.Comment {
	if r.processed[id] {
		return nil
	}
	c, ok := r.comments[strconv.Itoa(id)]
	if !ok || c == nil {
		return nil
	}
	r.processed[id] = true
	r.panels = append(r.panels, id)
	return c
}

// badge renders the small clickable comment badge.
func badge(id int) string {
	return fmt.Sprintf(`<span class="comment-badge" data-comment-id="%d">[%d]</span>`, id, id)
}

// inlineBadges inserts badges for the line's inline markers into the rendered
// HTML. The anchor is re-located by searching for the escaped target text in
// the rendered output; the badge goes immediately after the first occurrence.
// When upstream formatting transformed the text beyond recognition, the badge
// is appended at the end of the line's output instead of being dropped.
func (r *renderer) inlineBadges(lineNo int, rendered string) string {
	ids, ok := r.lineMarkers[lineNo]
	if !ok || len(r.comments) == 0 {
		return rendered
	}

	for _, id := range ids {
		c := r.comment(id)
		if c == nil {
			continue
		}

		inserted := false
		if c.Target.Type == model.TargetInline && c.Target.Text != "" {
			needle := html.EscapeString(c.Target.Text)
			if at := strings.Index(rendered, needle); at >= 0 {
				pos := at + len(needle)
				rendered = rendered[:pos] + badge(id) + rendered[pos:]
				inserted = true
			}
		}
		if !inserted {
			// Fallback: place the badge at the end of the line's output,
			// inside the element's closing tag when there is one.
			if at := strings.LastIndex(rendered, "</"); at >= 0 {
				rendered = rendered[:at] + badge(id) + rendered[at:]
			} else {
				rendered += badge(id)
			}
		}
	}

	return rendered
}

// blockBadges renders the badges for block-style markers targeting this line;
// they sit immediately before the block element.
func (r *renderer) blockBadges(lineNo int) string {
	ids, ok := r.blockMarkers[lineNo]
	if !ok || len(r.comments) == 0 {
		return ""
	}

	var out strings.Builder
	for _, id := range ids {
		if c := r.comment(id); c != nil {
			out.WriteString(badge(id))
		}
	}
	return out.String()
}

// writeThreadPanels appends one collapsible thread panel per decorated
// comment after all document content, in the order the badges were rendered.
func (r *renderer) writeThreadPanels() {
	for _, id := range r.panels {
		c := r.comments[strconv.Itoa(id)]
		if c == nil {
			continue
		}
		r.out.WriteString(r.renderThreadPanel(id, c))
	}
}

func (r *renderer) renderThreadPanel(id int, c *model.Comment) string {
	var out strings.Builder

	fmt.Fprintf(&out, `<details class="comment-thread" id="comment-thread-%d" data-comment-id="%d">`, id, id)
	fmt.Fprintf(&out, `<summary>Comment #%d%s</summary>`, id, threadAnchorLabel(c))

	for _, item := range c.Thread {
		fmt.Fprintf(&out, `<div class="thread-item thread-item-%s" data-thread-id="%s">`, item.Author, html.EscapeString(item.ID))
		fmt.Fprintf(&out, `<span class="thread-author">%s</span>`, item.Author)
		if item.Timestamp != "" {
			fmt.Fprintf(&out, `<span class="thread-timestamp">%s</span>`, html.EscapeString(item.Timestamp))
		}
		out.WriteString(`<div class="thread-content">` + RenderCommentBody(item.Content) + `</div>`)
		out.WriteString(`</div>`)
	}

	if c.Plan != nil {
		fmt.Fprintf(&out, `<div class="comment-plan" data-status="%s" data-editable="%t">`,
			html.EscapeString(c.Plan.Status), c.Plan.Editable)
		out.WriteString(`<span class="field-label">Plan</span>`)
		out.WriteString(`<div class="field-content">` + RenderCommentBody(c.Plan.Content) + `</div>`)
		out.WriteString(`</div>`)
	}

	if c.Response != nil {
		fmt.Fprintf(&out, `<div class="comment-response" data-status="%s" data-editable="%t">`,
			html.EscapeString(c.Response.Status), c.Response.Editable)
		out.WriteString(`<span class="field-label">Response</span>`)
		out.WriteString(`<div class="field-content">` + RenderCommentBody(c.Response.Content) + `</div>`)
		out.WriteString(`</div>`)
	}

	out.WriteString("</details>\n")
	return out.String()
}

// threadAnchorLabel describes the comment's anchor in the panel summary.
func threadAnchorLabel(c *model.Comment) string {
	if c.Target.Type == model.TargetBlock && c.Target.Element != "" {
		return fmt.Sprintf(` <span class="thread-anchor">%s, line %d</span>`, html.EscapeString(c.Target.Element), c.Target.Line)
	}
	if c.Target.Line > 0 {
		return fmt.Sprintf(` <span class="thread-anchor">line %d</span>`, c.Target.Line)
	}
	return ""
}
