package ledger

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/efisher/markreview/internal/domain/model"
)

// ErrCommentNotFound indicates a plan/response update named a comment id that
// is not in the ledger. This is caller-misuse class: it means marker text and
// ledger have drifted apart, so it is reported rather than ignored.
var ErrCommentNotFound = errors.New("comment not found")

// NextID returns the smallest positive integer greater than every id in the
// mapping. Ids are never reused, even for retired entries, so this is the id
// the next merged comment receives.
func NextID(data model.CommentsData) int {
	max := 0
	for key := range data {
		if id, err := strconv.Atoi(key); err == nil && id > max {
			max = id
		}
	}
	return max + 1
}

// Merge returns a new mapping containing every existing entry unchanged plus
// the given new comments, each assigned the next unused integer id. Thread
// item ids are re-keyed to "<commentId>-<sequence>" once the comment id is
// known. The input mapping is not mutated.
func Merge(existing model.CommentsData, entries ...*model.Comment) model.CommentsData {
	merged := model.CommentsData{}
	for key, comment := range existing {
		merged[key] = comment
	}

	id := NextID(merged)
	for _, entry := range entries {
		entry.ID = id
		for i := range entry.Thread {
			entry.Thread[i].ID = fmt.Sprintf("%d-%d", id, i+1)
		}
		merged[strconv.Itoa(id)] = entry
		id++
	}

	return merged
}

// UpdatePlan sets the plan content of an existing comment, creating the plan
// sub-object with status "pending" and editable=true when the comment has
// none yet. Returns ErrCommentNotFound for an unknown id.
func UpdatePlan(data model.CommentsData, id int, content string) error {
	comment, ok := data[strconv.Itoa(id)]
	if !ok {
		return fmt.Errorf("update plan for comment %d: %w", id, ErrCommentNotFound)
	}

	if comment.Plan == nil {
		comment.Plan = &model.CommentPlan{Status: model.PlanPending, Editable: true}
	}
	comment.Plan.Content = content
	return nil
}

// UpdateResponse sets the response content of an existing comment, creating
// the response sub-object with status "draft" and editable=true when the
// comment has none yet. Returns ErrCommentNotFound for an unknown id.
func UpdateResponse(data model.CommentsData, id int, content string) error {
	comment, ok := data[strconv.Itoa(id)]
	if !ok {
		return fmt.Errorf("update response for comment %d: %w", id, ErrCommentNotFound)
	}

	if comment.Response == nil {
		comment.Response = &model.CommentResponse{Status: model.ResponseDraft, Editable: true}
	}
	comment.Response.Content = content
	return nil
}
