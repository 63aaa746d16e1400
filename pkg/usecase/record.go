package usecase

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/model/auth"
	"github.com/secmon-lab/amlcase/pkg/domain/model/changeset"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/utils/clock"
	"github.com/secmon-lab/amlcase/pkg/utils/errutil"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
	"github.com/secmon-lab/amlcase/pkg/utils/metrics"
)

// loadCase resolves a case of the acting tenant for operations that attach
// records without changing the case itself.
func (uc *UseCases) loadCase(ctx context.Context, id auth.Identity, caseID types.CaseID) (*amlcase.Case, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	c, err := uc.repository.GetCase(ctx, id.TenantID, caseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get case", goerr.TV(errutil.CaseIDKey, caseID))
	}
	return c, nil
}

// Timeline returns the audit trail of a case newest first.
func (uc *UseCases) Timeline(ctx context.Context, id auth.Identity, caseID types.CaseID) ([]*audit.Event, error) {
	if _, err := uc.loadCase(ctx, id, caseID); err != nil {
		return nil, err
	}

	events, err := uc.repository.ListCaseEvents(ctx, id.TenantID, caseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list case events", goerr.TV(errutil.CaseIDKey, caseID))
	}
	audit.Reverse(events)
	return events, nil
}

// AddComment stores a comment and its CommentAdded event. The case version is unchanged.
func (uc *UseCases) AddComment(ctx context.Context, id auth.Identity, caseID types.CaseID, text string) (result *amlcase.Comment, err error) {
	defer func() { metrics.ObserveOperation("add_comment", err) }()

	if strings.TrimSpace(text) == "" {
		return nil, goerr.New("comment text is required", goerr.T(errs.TagValidation))
	}

	c, err := uc.loadCase(ctx, id, caseID)
	if err != nil {
		return nil, err
	}

	now := clock.Now(ctx)
	comment := amlcase.NewComment(c, id.UserID, text, now)
	ev := audit.New(id.TenantID, c.ID, types.EventCommentAdded, id.UserID, now).With("text", text)

	if err := uc.repository.Commit(ctx, id.TenantID, changeset.New().AddComment(comment).AppendEvent(ev)); err != nil {
		return nil, goerr.Wrap(err, "failed to commit comment", goerr.TV(errutil.CaseIDKey, caseID))
	}
	uc.publish(ctx, c, ev)

	return comment, nil
}

// Comments returns comments of a case newest first.
func (uc *UseCases) Comments(ctx context.Context, id auth.Identity, caseID types.CaseID) ([]*amlcase.Comment, error) {
	if _, err := uc.loadCase(ctx, id, caseID); err != nil {
		return nil, err
	}

	comments, err := uc.repository.ListComments(ctx, id.TenantID, caseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list comments", goerr.TV(errutil.CaseIDKey, caseID))
	}
	return comments, nil
}

// PresignedUpload is where a client uploads one evidence file.
type PresignedUpload struct {
	FileKey          string `json:"fileKey"`
	UploadURL        string `json:"uploadUrl"`
	ExpiresInSeconds int    `json:"expiresInSeconds"`
}

// PresignAttachment allocates a storage key under the case and signs an upload URL for it.
func (uc *UseCases) PresignAttachment(ctx context.Context, id auth.Identity, caseID types.CaseID, contentType string) (*PresignedUpload, error) {
	if uc.presigner == nil {
		return nil, ErrPresignerNotConfigured
	}
	c, err := uc.loadCase(ctx, id, caseID)
	if err != nil {
		return nil, err
	}

	key := attachmentKeyPrefix(c.ID) + uuid.NewString()
	url, err := uc.presigner.UploadURL(ctx, key, contentType, uc.presignTTL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to sign upload URL",
			goerr.T(errs.TagExternal),
			goerr.TV(errutil.ObjectKey, key))
	}

	return &PresignedUpload{
		FileKey:          key,
		UploadURL:        url,
		ExpiresInSeconds: int(uc.presignTTL.Seconds()),
	}, nil
}

func attachmentKeyPrefix(caseID types.CaseID) string {
	return "cases/" + caseID.String() + "/"
}

// isCaseObjectKey accepts only keys issued by PresignAttachment for caseID:
// the case prefix followed by a single path segment.
func isCaseObjectKey(caseID types.CaseID, key string) bool {
	name, ok := strings.CutPrefix(key, attachmentKeyPrefix(caseID))
	return ok && name != "" && name != "." && name != ".." && !strings.Contains(name, "/")
}

// CompleteAttachmentInput is the metadata of a finished upload.
type CompleteAttachmentInput struct {
	FileKey     string
	FileName    string
	ContentType string
	Size        int64
	Tags        []string
	SHA256      string
}

// CompleteAttachment records an uploaded file and its EvidenceAdded event.
func (uc *UseCases) CompleteAttachment(ctx context.Context, id auth.Identity, caseID types.CaseID, input CompleteAttachmentInput) (result *amlcase.Attachment, err error) {
	defer func() { metrics.ObserveOperation("complete_attachment", err) }()

	if strings.TrimSpace(input.FileKey) == "" || strings.TrimSpace(input.FileName) == "" {
		return nil, goerr.New("file key and file name are required", goerr.T(errs.TagValidation))
	}
	if input.Size < 0 {
		return nil, goerr.New("size must not be negative", goerr.T(errs.TagValidation), goerr.V("size", input.Size))
	}

	c, err := uc.loadCase(ctx, id, caseID)
	if err != nil {
		return nil, err
	}
	if !isCaseObjectKey(c.ID, input.FileKey) {
		return nil, goerr.New("file key does not belong to the case",
			goerr.T(errs.TagValidation),
			goerr.TV(errutil.CaseIDKey, c.ID),
			goerr.TV(errutil.ObjectKey, input.FileKey))
	}

	now := clock.Now(ctx)
	attachment := &amlcase.Attachment{
		ID:          types.NewAttachmentID(),
		TenantID:    id.TenantID,
		CaseID:      c.ID,
		FileKey:     input.FileKey,
		FileName:    input.FileName,
		ContentType: input.ContentType,
		Size:        input.Size,
		Tags:        input.Tags,
		SHA256:      input.SHA256,
		UploadedBy:  id.UserID,
		UploadedAt:  now,
	}
	ev := audit.New(id.TenantID, c.ID, types.EventEvidenceAdded, id.UserID, now).
		With("fileName", input.FileName).
		With("size", strconv.FormatInt(input.Size, 10)).
		With("sha256", input.SHA256)

	if err := uc.repository.Commit(ctx, id.TenantID, changeset.New().AddAttachment(attachment).AppendEvent(ev)); err != nil {
		return nil, goerr.Wrap(err, "failed to commit attachment", goerr.TV(errutil.CaseIDKey, caseID))
	}

	logging.From(ctx).Info("evidence added", "case_id", c.ID, "attachment_id", attachment.ID, "file_name", attachment.FileName)
	uc.publish(ctx, c, ev)

	return attachment, nil
}

// Attachments returns the evidence metadata of a case newest first.
func (uc *UseCases) Attachments(ctx context.Context, id auth.Identity, caseID types.CaseID) ([]*amlcase.Attachment, error) {
	if _, err := uc.loadCase(ctx, id, caseID); err != nil {
		return nil, err
	}

	attachments, err := uc.repository.ListAttachments(ctx, id.TenantID, caseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list attachments", goerr.TV(errutil.CaseIDKey, caseID))
	}
	return attachments, nil
}

// AttachmentDownload is a signed location of a stored evidence file.
type AttachmentDownload struct {
	AttachmentID types.AttachmentID `json:"attachmentId"`
	FileName     string             `json:"fileName"`
	SignedURL    string             `json:"signedUrl"`
}

// AttachmentDownloadURL signs a download URL for an attachment of the acting tenant.
func (uc *UseCases) AttachmentDownloadURL(ctx context.Context, id auth.Identity, attachmentID types.AttachmentID) (*AttachmentDownload, error) {
	if uc.presigner == nil {
		return nil, ErrPresignerNotConfigured
	}
	if err := id.Validate(); err != nil {
		return nil, err
	}

	a, err := uc.repository.GetAttachment(ctx, id.TenantID, attachmentID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get attachment", goerr.TV(errutil.AttachmentIDKey, attachmentID))
	}

	url, err := uc.presigner.DownloadURL(ctx, a.FileKey, uc.presignTTL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to sign download URL",
			goerr.T(errs.TagExternal),
			goerr.TV(errutil.ObjectKey, a.FileKey))
	}

	return &AttachmentDownload{
		AttachmentID: a.ID,
		FileName:     a.FileName,
		SignedURL:    url,
	}, nil
}
