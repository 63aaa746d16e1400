package amlcase

import (
	"time"

	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

// Attachment is the metadata of a completed evidence upload. File bytes live in object storage.
type Attachment struct {
	ID          types.AttachmentID `json:"id"`
	TenantID    types.TenantID     `json:"tenantId"`
	CaseID      types.CaseID       `json:"caseId"`
	FileKey     string             `json:"fileKey"`
	FileName    string             `json:"fileName"`
	ContentType string             `json:"contentType"`
	Size        int64              `json:"size"`
	Tags        []string           `json:"tags,omitempty"`
	SHA256      string             `json:"sha256,omitempty"`
	UploadedBy  types.UserID       `json:"uploadedBy"`
	UploadedAt  time.Time          `json:"uploadedAt"`
}
