package model

// TargetType distinguishes inline comments (anchored to a text span) from
// block comments (anchored to a whole element).
type TargetType string

// Comment target types.
const (
	TargetInline TargetType = "inline"
	TargetBlock  TargetType = "block"
)

// Author identifies who wrote a thread item.
type Author string

// Thread item authors.
const (
	AuthorUser Author = "user"
	AuthorAI   Author = "ai"
)

// Plan statuses.
const (
	PlanPending  = "pending"
	PlanApproved = "approved"
	PlanRejected = "rejected"
)

// Response statuses.
const (
	ResponseDraft = "draft"
	ResponseFinal = "final"
)

// CommentTarget locates the content a comment is anchored to. Line is the
// 1-indexed line of the commented content itself -- for a block marker on its
// own preceding line, Line refers to the following element, not the marker.
// Text and Position are set for inline targets: the exact substring matched
// and the character offset within the line where the marker was inserted.
// Element is set for block targets: the semantic tag name of the construct.
type CommentTarget struct {
	Type     TargetType `json:"type"`
	Line     int        `json:"line"`
	Text     string     `json:"text,omitempty"`
	Position int        `json:"position,omitempty"`
	Element  string     `json:"element,omitempty"`
}

// CommentThreadItem is one entry in a comment's conversation thread.
// ID is "<commentId>-<sequence>"; Timestamp is ISO-8601.
type CommentThreadItem struct {
	ID        string `json:"id"`
	Author    Author `json:"author"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// CommentPlan describes proposed document changes attached to a comment.
type CommentPlan struct {
	Content  string `json:"content"`
	Status   string `json:"status"`
	Editable bool   `json:"editable"`
}

// CommentResponse is a direct reply to the commenter.
type CommentResponse struct {
	Content  string `json:"content"`
	Status   string `json:"status"`
	Editable bool   `json:"editable"`
}

// Comment is one review comment: a target anchor, an ordered thread, and
// optional plan/response fields.
type Comment struct {
	ID       int                 `json:"id"`
	Target   CommentTarget       `json:"target"`
	Thread   []CommentThreadItem `json:"thread"`
	Plan     *CommentPlan        `json:"plan,omitempty"`
	Response *CommentResponse    `json:"response,omitempty"`
}

// CommentsData is the persisted ledger: stringified comment id -> Comment.
type CommentsData map[string]*Comment
