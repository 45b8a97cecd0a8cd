package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"empdir/internal/domain/auth"
	"empdir/internal/platform/logger"
	"empdir/internal/transport/http/api"
	"empdir/internal/transport/http/middleware"
	"empdir/internal/transport/http/shared"
)

type Handler struct {
	Service *auth.Service
}

func NewHandler(service *auth.Service) *Handler {
	return &Handler{Service: service}
}

type tokenRequest struct {
	ClientID     string `json:"clientId" validate:"required"`
	ClientSecret string `json:"clientSecret" validate:"required"`
}

func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if !h.Service.Enabled() {
		api.Fail(w, http.StatusNotFound, "not_found", "token issuance is not enabled", requestID)
		return
	}

	var payload tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, requestID) {
		return
	}

	token, err := h.Service.IssueToken(payload.ClientID, payload.ClientSecret)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		logger.FromContext(r.Context()).Warn().Str("clientId", payload.ClientID).Msg("token request rejected")
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("token issuance failed")
		api.Fail(w, http.StatusInternalServerError, "token_failed", "failed to issue token", requestID)
		return
	}
	api.Success(w, token, requestID)
}
