package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ChertChill/otp-service/internal/otp/domain"
	"github.com/ChertChill/otp-service/internal/otp/service"
	"github.com/ChertChill/otp-service/internal/otp/session"
	"github.com/ChertChill/otp-service/pkg/httpx"
	"github.com/ChertChill/otp-service/pkg/otpsdk"
	"github.com/ChertChill/otp-service/pkg/slogx"
)

const minPasswordLength = 8

type AuthHandler struct {
	UserService *service.UserService
	Sessions    *session.Manager
}

// HandleRegister godoc
//
//	@Summary		User Registration Endpoint
//	@Description	Create a new account. The username doubles as the delivery address for
//	@Description	notification channels (email address, phone number, chat id). At most one
//	@Description	admin account may exist.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		otpsdk.RegisterRequest	true	"Registration request"
//	@Success		201		{object}	otpsdk.RegisterResponse	"user_id, username, role"
//	@Failure		400		{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Failure		409		{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Failure		500		{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Router			/v1/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req otpsdk.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, otpsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	if req.Username == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, otpsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "username is required",
		})
		return
	}
	if len(req.Password) < minPasswordLength {
		httpx.WriteJSON(w, http.StatusBadRequest, otpsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "password must be at least 8 characters",
		})
		return
	}

	role := domain.RoleUser
	switch req.Role {
	case "", string(domain.RoleUser):
	case string(domain.RoleAdmin):
		role = domain.RoleAdmin
	default:
		httpx.WriteJSON(w, http.StatusBadRequest, otpsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "role must be USER or ADMIN",
		})
		return
	}

	user, err := h.UserService.Register(ctx, req.Username, req.Password, role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			httpx.WriteJSON(w, http.StatusConflict, otpsdk.ErrorResponse{
				Error:            "username_taken",
				ErrorDescription: "Username is already registered",
			})
		case errors.Is(err, service.ErrAdminExists):
			httpx.WriteJSON(w, http.StatusConflict, otpsdk.ErrorResponse{
				Error:            "admin_already_exists",
				ErrorDescription: "An admin account already exists",
			})
		default:
			log.Error("failed to register user", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, otpsdk.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to register user",
			})
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, otpsdk.RegisterResponse{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	})
}

// HandleLogin godoc
//
//	@Summary		Login Endpoint
//	@Description	Authenticate with username and password and receive a bearer session token.
//	@Description	Sessions last 30 minutes by default with no sliding expiration.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		otpsdk.LoginRequest		true	"Login request"
//	@Success		200		{object}	otpsdk.LoginResponse	"session_token, token_type, expires_in"
//	@Failure		400		{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Failure		500		{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req otpsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, otpsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}
	if req.Username == "" || req.Password == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, otpsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "username and password are required",
		})
		return
	}

	token, err := h.UserService.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.NoCache(w)
			httpx.WriteJSON(w, http.StatusUnauthorized, otpsdk.ErrorResponse{
				Error:            "invalid_credentials",
				ErrorDescription: "Invalid username or password",
			})
			return
		}
		log.Error("failed to log in user", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, otpsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to log in",
		})
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, otpsdk.LoginResponse{
		SessionToken: token,
		TokenType:    "Bearer",
		ExpiresIn:    int64(h.Sessions.TTL().Seconds()),
	})
}

// HandleLogout godoc
//
//	@Summary		Logout Endpoint
//	@Description	Revoke the presented session token. Revocation takes effect immediately;
//	@Description	logging out an already-dead token is still a success.
//	@Tags			Auth
//	@Produce		json
//	@Success		204	"session revoked"
//	@Failure		401	{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token := httpx.BearerToken(r)
	h.UserService.Logout(r.Context(), token)
	w.WriteHeader(http.StatusNoContent)
}
