package http

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
)

type errorResponse struct {
	Error string `json:"error"`
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.From(r.Context())

	status := http.StatusInternalServerError
	switch {
	case goerr.HasTag(err, errs.TagNotFound):
		logger.Warn("Not Found", "error", err)
		status = http.StatusNotFound

	case goerr.HasTag(err, errs.TagValidation):
		logger.Warn("Bad Request", "error", err)
		status = http.StatusBadRequest

	case goerr.HasTag(err, errs.TagUnauthorized):
		logger.Warn("Unauthorized", "error", err)
		status = http.StatusUnauthorized

	case goerr.HasTag(err, errs.TagForbidden):
		logger.Warn("Forbidden", "error", err)
		status = http.StatusForbidden

	case goerr.HasTag(err, errs.TagConflict), goerr.HasTag(err, errs.TagDuplicateResource), goerr.HasTag(err, errs.TagInvalidState):
		logger.Warn("Conflict", "error", err)
		status = http.StatusConflict

	case goerr.HasTag(err, errs.TagExternal):
		errs.Handle(r.Context(), err)
		status = http.StatusBadGateway

	default:
		errs.Handle(r.Context(), err)
	}

	// Internal details stay in the log and Sentry.
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	writeJSON(w, r, status, errorResponse{Error: msg})
}
