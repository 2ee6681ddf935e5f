package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ChertChill/otp-service/internal/otp/service"
	"github.com/ChertChill/otp-service/pkg/httpx"
	"github.com/ChertChill/otp-service/pkg/otpsdk"
	"github.com/ChertChill/otp-service/pkg/slogx"
)

type AdminHandler struct {
	AdminService *service.AdminService
	OtpService   *service.OtpService
}

// HandleGetPolicy godoc
//
//	@Summary		Policy Read Endpoint
//	@Description	Return the OTP policy currently in effect.
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{object}	otpsdk.PolicyResponse	"length, ttl_seconds"
//	@Failure		401	{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Failure		403	{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Failure		500	{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/admin/policy [get].
func (h *AdminHandler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	policy, err := h.OtpService.GetPolicy(ctx)
	if err != nil {
		log.Error("failed to read otp policy", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, otpsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to read policy",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, otpsdk.PolicyResponse{
		Length:     policy.Length,
		TTLSeconds: int64(policy.TTL.Seconds()),
	})
}

// HandleUpdatePolicy godoc
//
//	@Summary		Policy Update Endpoint
//	@Description	Replace the OTP policy. Length must be at least 4 and ttl_seconds at least 60.
//	@Description	The new policy applies to codes generated afterwards and to every expiry
//	@Description	decision made afterwards, including codes already outstanding.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			request	body		otpsdk.PolicyRequest	true	"New policy"
//	@Success		200		{object}	otpsdk.PolicyResponse	"length, ttl_seconds"
//	@Failure		400		{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Failure		403		{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Failure		500		{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/admin/policy [put].
func (h *AdminHandler) HandleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req otpsdk.PolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, otpsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	if err := h.AdminService.UpdateOtpPolicy(ctx, req.Length, ttl); err != nil {
		if errors.Is(err, service.ErrPolicyBounds) {
			httpx.WriteJSON(w, http.StatusBadRequest, otpsdk.ErrorResponse{
				Error:            "invalid_policy",
				ErrorDescription: "length must be >= 4 and ttl_seconds >= 60",
			})
			return
		}
		log.Error("failed to update otp policy", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, otpsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to update policy",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, otpsdk.PolicyResponse{
		Length:     req.Length,
		TTLSeconds: req.TTLSeconds,
	})
}

// HandleListUsers godoc
//
//	@Summary		User List Endpoint
//	@Description	List every non-admin user.
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{object}	otpsdk.UsersResponse	"users"
//	@Failure		401	{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Failure		403	{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Failure		500	{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/admin/users [get].
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	users, err := h.AdminService.ListUsers(ctx)
	if err != nil {
		log.Error("failed to list users", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, otpsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to list users",
		})
		return
	}

	resp := otpsdk.UsersResponse{Users: make([]otpsdk.UserResponse, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, otpsdk.UserResponse{
			ID:        u.ID,
			Username:  u.Username,
			Role:      string(u.Role),
			CreatedAt: u.CreatedAt.Unix(),
		})
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleDeleteUser godoc
//
//	@Summary		User Deletion Endpoint
//	@Description	Delete a user together with every code they own, in one transaction.
//	@Tags			Admin
//	@Produce		json
//	@Param			id	path	string	true	"User ID"
//	@Success		204	"user deleted"
//	@Failure		401	{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Failure		403	{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Failure		404	{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Failure		500	{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/admin/users/{id} [delete].
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := r.PathValue("id")
	if userID == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, otpsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "user id is required",
		})
		return
	}

	if err := h.AdminService.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			httpx.WriteJSON(w, http.StatusNotFound, otpsdk.ErrorResponse{
				Error:            "user_not_found",
				ErrorDescription: "User does not exist",
			})
			return
		}
		log.Error("failed to delete user", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, otpsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to delete user",
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
