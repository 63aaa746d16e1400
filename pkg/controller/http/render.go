package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/auth"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
)

const maxBodySize = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.From(r.Context()).Error("failed to write response", logging.ErrAttr(err))
	}
}

// decodeJSON reads and validates a request body. An empty body decodes to
// the zero value so optional bodies such as {"expectedVersion": 3} may be omitted.
func decodeJSON[T any](r *http.Request) (*T, error) {
	var req T
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, goerr.Wrap(err, "invalid JSON body", goerr.T(errs.TagValidation))
	}

	if err := validate.Struct(&req); err != nil {
		return nil, goerr.Wrap(err, "invalid request", goerr.T(errs.TagValidation))
	}
	return &req, nil
}

// identityOf returns the identity set by the authenticate middleware.
func identityOf(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFrom(r.Context())
	return id
}

// caseIDParam returns the {id} path parameter. Malformed IDs are reported as
// not found, like an unknown case.
func caseIDParam(r *http.Request) (types.CaseID, error) {
	caseID := types.CaseID(chi.URLParam(r, "id"))
	if err := caseID.Validate(); err != nil {
		return "", goerr.Wrap(err, "case not found", goerr.T(errs.TagNotFound))
	}
	return caseID, nil
}

func attachmentIDParam(r *http.Request) (types.AttachmentID, error) {
	attachmentID := types.AttachmentID(chi.URLParam(r, "id"))
	if err := attachmentID.Validate(); err != nil {
		return "", goerr.Wrap(err, "attachment not found", goerr.T(errs.TagNotFound))
	}
	return attachmentID, nil
}
