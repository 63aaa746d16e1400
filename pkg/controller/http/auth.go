package http

import (
	"net/http"

	"github.com/secmon-lab/amlcase/pkg/usecase"
)

type loginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required" masq:"secret"`
	TenantID string `json:"tenantId" validate:"omitempty,uuid"`
	Role     string `json:"role" validate:"omitempty,oneof=ComplianceAdmin Analyst"`
}

func loginHandler(uc AuthUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeJSON[loginRequest](r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		result, err := uc.Login(r.Context(), usecase.LoginInput{
			Username: req.Username,
			Password: req.Password,
			TenantID: req.TenantID,
			Role:     req.Role,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, result)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
