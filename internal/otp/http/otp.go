package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ChertChill/otp-service/internal/otp/notify"
	"github.com/ChertChill/otp-service/internal/otp/service"
	"github.com/ChertChill/otp-service/pkg/httpx"
	"github.com/ChertChill/otp-service/pkg/otpsdk"
	"github.com/ChertChill/otp-service/pkg/slogx"
)

type OtpHandler struct {
	OtpService *service.OtpService
}

// HandleGenerate godoc
//
//	@Summary		Code Generation Endpoint
//	@Description	Generate a one-time code for the authenticated user and return it directly
//	@Description	without delivery. The code is single-use and expires after the configured TTL.
//	@Tags			OTP
//	@Accept			json
//	@Produce		json
//	@Param			request	body		otpsdk.GenerateRequest	false	"Optional operation binding"
//	@Success		200		{object}	otpsdk.GenerateResponse	"code"
//	@Failure		400		{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Failure		500		{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/otp/generate [post].
func (h *OtpHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// Body is optional: no body means no operation binding.
	var req otpsdk.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httpx.WriteJSON(w, http.StatusBadRequest, otpsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	principal, ok := httpx.PrincipalFromCtx(ctx)
	if !ok {
		httpx.WriteJSON(w, http.StatusUnauthorized, otpsdk.ErrorResponse{
			Error:            "unauthorized",
			ErrorDescription: "Authentication required",
		})
		return
	}

	code, err := h.OtpService.Generate(ctx, principal.UserID, req.OperationID)
	if err != nil {
		log.Error("failed to generate otp", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, otpsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to generate code",
		})
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, otpsdk.GenerateResponse{Code: code})
}

// HandleDispatch godoc
//
//	@Summary		Code Dispatch Endpoint
//	@Description	Generate a one-time code and deliver it to the authenticated user over the
//	@Description	requested channel (EMAIL, SMS, CHATBOT, or FILE). A delivery failure does not
//	@Description	invalidate the generated code; it stays usable until it expires.
//	@Tags			OTP
//	@Accept			json
//	@Produce		json
//	@Param			request	body		otpsdk.DispatchRequest	true	"Dispatch request"
//	@Success		200		{object}	otpsdk.DispatchResponse	"delivered, channel"
//	@Failure		400		{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Failure		502		{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/otp/dispatch [post].
func (h *OtpHandler) HandleDispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req otpsdk.DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, otpsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	channel, err := notify.ParseChannel(req.Channel)
	if err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, otpsdk.ErrorResponse{
			Error:            "unsupported_channel",
			ErrorDescription: "channel must be one of EMAIL, SMS, CHATBOT, FILE",
		})
		return
	}

	principal, ok := httpx.PrincipalFromCtx(ctx)
	if !ok {
		httpx.WriteJSON(w, http.StatusUnauthorized, otpsdk.ErrorResponse{
			Error:            "unauthorized",
			ErrorDescription: "Authentication required",
		})
		return
	}

	err = h.OtpService.DispatchToUser(ctx, principal.UserID, req.OperationID, channel)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			httpx.WriteJSON(w, http.StatusNotFound, otpsdk.ErrorResponse{
				Error:            "user_not_found",
				ErrorDescription: "User does not exist",
			})
		case errors.Is(err, service.ErrUnsupportedChannel):
			httpx.WriteJSON(w, http.StatusBadRequest, otpsdk.ErrorResponse{
				Error:            "unsupported_channel",
				ErrorDescription: "Channel is not configured on this deployment",
			})
		case errors.Is(err, service.ErrDeliveryFailed):
			httpx.WriteJSON(w, http.StatusBadGateway, otpsdk.ErrorResponse{
				Error:            "delivery_failed",
				ErrorDescription: "Code was generated but could not be delivered",
			})
		default:
			log.Error("failed to dispatch otp", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, otpsdk.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to dispatch code",
			})
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, otpsdk.DispatchResponse{
		Delivered: true,
		Channel:   string(channel),
	})
}

// HandleValidate godoc
//
//	@Summary		Code Validation Endpoint
//	@Description	Attempt to consume a one-time code. The response reports only valid or
//	@Description	invalid; unknown, already-used, and expired codes are indistinguishable.
//	@Tags			OTP
//	@Accept			json
//	@Produce		json
//	@Param			request	body		otpsdk.ValidateRequest	true	"Validation request"
//	@Success		200		{object}	otpsdk.ValidateResponse	"valid"
//	@Failure		400		{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Failure		500		{object}	otpsdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/otp/validate [post].
func (h *OtpHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req otpsdk.ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, otpsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}
	if req.Code == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, otpsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "code is required",
		})
		return
	}

	valid, err := h.OtpService.Validate(ctx, req.Code)
	if err != nil {
		log.Error("failed to validate otp", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, otpsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to validate code",
		})
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, otpsdk.ValidateResponse{Valid: valid})
}
