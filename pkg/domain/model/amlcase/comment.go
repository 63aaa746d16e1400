package amlcase

import (
	"time"

	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

// Comment is a free-text note on a case.
type Comment struct {
	ID          types.CommentID `json:"id"`
	TenantID    types.TenantID  `json:"tenantId"`
	CaseID      types.CaseID    `json:"caseId"`
	ActorUserID types.UserID    `json:"actorUserId"`
	At          time.Time       `json:"at"`
	Text        string          `json:"text"`
}

func NewComment(c *Case, actor types.UserID, text string, now time.Time) *Comment {
	return &Comment{
		ID:          types.NewCommentID(),
		TenantID:    c.TenantID,
		CaseID:      c.ID,
		ActorUserID: actor,
		At:          now,
		Text:        text,
	}
}
