package http

import (
	"fmt"
	"net/http"

	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/usecase"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
)

type addCommentRequest struct {
	Text string `json:"text" validate:"required,max=10000"`
}

type presignRequest struct {
	ContentType string `json:"contentType" validate:"max=200"`
}

type completeAttachmentRequest struct {
	FileKey     string   `json:"fileKey" validate:"required"`
	FileName    string   `json:"fileName" validate:"required,max=500"`
	ContentType string   `json:"contentType" validate:"max=200"`
	Size        int64    `json:"size" validate:"gte=0"`
	Tags        []string `json:"tags" validate:"max=50,dive,max=100"`
	SHA256      string   `json:"sha256" validate:"omitempty,hexadecimal,max=128"`
}

func timelineHandler(uc RecordUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseID, err := caseIDParam(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		events, err := uc.Timeline(r.Context(), identityOf(r), caseID)
		if err != nil {
			handleError(w, r, err)
			return
		}
		if events == nil {
			events = []*audit.Event{}
		}
		writeJSON(w, r, http.StatusOK, events)
	}
}

func listCommentsHandler(uc RecordUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseID, err := caseIDParam(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		comments, err := uc.Comments(r.Context(), identityOf(r), caseID)
		if err != nil {
			handleError(w, r, err)
			return
		}
		if comments == nil {
			comments = []*amlcase.Comment{}
		}
		writeJSON(w, r, http.StatusOK, comments)
	}
}

func addCommentHandler(uc RecordUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseID, err := caseIDParam(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		req, err := decodeJSON[addCommentRequest](r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		comment, err := uc.AddComment(r.Context(), identityOf(r), caseID, req.Text)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusCreated, comment)
	}
}

func presignAttachmentHandler(uc RecordUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseID, err := caseIDParam(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		req, err := decodeJSON[presignRequest](r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		upload, err := uc.PresignAttachment(r.Context(), identityOf(r), caseID, req.ContentType)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, upload)
	}
}

func completeAttachmentHandler(uc RecordUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseID, err := caseIDParam(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		req, err := decodeJSON[completeAttachmentRequest](r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		attachment, err := uc.CompleteAttachment(r.Context(), identityOf(r), caseID, usecase.CompleteAttachmentInput{
			FileKey:     req.FileKey,
			FileName:    req.FileName,
			ContentType: req.ContentType,
			Size:        req.Size,
			Tags:        req.Tags,
			SHA256:      req.SHA256,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusCreated, attachment)
	}
}

func listAttachmentsHandler(uc RecordUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseID, err := caseIDParam(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		attachments, err := uc.Attachments(r.Context(), identityOf(r), caseID)
		if err != nil {
			handleError(w, r, err)
			return
		}
		if attachments == nil {
			attachments = []*amlcase.Attachment{}
		}
		writeJSON(w, r, http.StatusOK, attachments)
	}
}

func downloadAttachmentHandler(uc RecordUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attachmentID, err := attachmentIDParam(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		dl, err := uc.AttachmentDownloadURL(r.Context(), identityOf(r), attachmentID)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, dl)
	}
}

func evidencePackHandler(uc RecordUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseID, err := caseIDParam(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		pack, err := uc.ExportEvidencePack(r.Context(), identityOf(r), caseID)
		if err != nil {
			handleError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", pack.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pack.FileName))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(pack.Data); err != nil {
			logging.From(r.Context()).Error("failed to write evidence pack", logging.ErrAttr(err))
		}
	}
}
