package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ChertChill/otp-service/internal/otp/notify"
	"github.com/ChertChill/otp-service/internal/otp/service"
	"github.com/ChertChill/otp-service/internal/otp/session"
	"github.com/ChertChill/otp-service/internal/otp/store/drivers/sqlite"
	"github.com/ChertChill/otp-service/pkg/otpsdk"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	sessions, err := session.NewManager(session.NewMemory(), []byte("test-secret"), "otp-test", 30*time.Minute)
	require.NoError(t, err)

	dispatcher := notify.NewDispatcher(nil, nil, nil,
		notify.NewFileSender(filepath.Join(t.TempDir(), "codes.txt")))

	otpService := &service.OtpService{Store: st, Dispatcher: dispatcher}

	router := NewRouter(sessions, "test", st, slog.Default())
	router.OtpService = otpService
	router.UserService = &service.UserService{Store: st, Sessions: sessions}
	router.AdminService = &service.AdminService{Store: st, Otp: otpService}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestAPIEndToEnd(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	sdk := otpsdk.NewClient(srv.URL)

	reg, err := sdk.Register(ctx, otpsdk.RegisterRequest{
		Username: "alice@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	require.NotEmpty(t, reg.UserID)
	require.Equal(t, "USER", reg.Role)

	login, err := sdk.Login(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	require.Equal(t, "Bearer", login.TokenType)
	require.EqualValues(t, 1800, login.ExpiresIn)

	gen, err := sdk.GenerateCode(ctx, "order-7")
	require.NoError(t, err)
	require.Len(t, gen.Code, 6)

	valid, err := sdk.ValidateCode(ctx, gen.Code)
	require.NoError(t, err)
	require.True(t, valid)

	// Single use: the same code is rejected the second time around.
	valid, err = sdk.ValidateCode(ctx, gen.Code)
	require.NoError(t, err)
	require.False(t, valid)

	disp, err := sdk.DispatchCode(ctx, "FILE", "")
	require.NoError(t, err)
	require.True(t, disp.Delivered)
	require.Equal(t, "FILE", disp.Channel)

	require.NoError(t, sdk.Logout(ctx))

	// The revoked session no longer authenticates.
	_, err = sdk.GenerateCode(ctx, "")
	var apiErr *otpsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestAPILoginFailures(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	sdk := otpsdk.NewClient(srv.URL)

	_, err := sdk.Register(ctx, otpsdk.RegisterRequest{
		Username: "alice@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	_, err = sdk.Login(ctx, "alice@example.com", "wrong password")
	var apiErr *otpsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "invalid_credentials", apiErr.Code)

	// Duplicate registration conflicts.
	_, err = sdk.Register(ctx, otpsdk.RegisterRequest{
		Username: "alice@example.com",
		Password: "another password",
	})
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusConflict, apiErr.StatusCode)
}

func TestAPIAdminPolicy(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)

	admin := otpsdk.NewClient(srv.URL)
	_, err := admin.Register(ctx, otpsdk.RegisterRequest{
		Username: "root@example.com",
		Password: "admin password",
		Role:     "ADMIN",
	})
	require.NoError(t, err)
	_, err = admin.Login(ctx, "root@example.com", "admin password")
	require.NoError(t, err)

	user := otpsdk.NewClient(srv.URL)
	_, err = user.Register(ctx, otpsdk.RegisterRequest{
		Username: "alice@example.com",
		Password: "user password",
	})
	require.NoError(t, err)
	_, err = user.Login(ctx, "alice@example.com", "user password")
	require.NoError(t, err)

	putPolicy := func(token string, body otpsdk.PolicyRequest) *http.Response {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, srv.URL+"/v1/admin/policy", bytes.NewReader(raw))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("non-admin forbidden", func(t *testing.T) {
		resp := putPolicy(user.Token, otpsdk.PolicyRequest{Length: 8, TTLSeconds: 600})
		defer resp.Body.Close()
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("out-of-bounds policy rejected", func(t *testing.T) {
		resp := putPolicy(admin.Token, otpsdk.PolicyRequest{Length: 3, TTLSeconds: 600})
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("admin updates policy and new codes follow it", func(t *testing.T) {
		resp := putPolicy(admin.Token, otpsdk.PolicyRequest{Length: 8, TTLSeconds: 600})
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		gen, err := user.GenerateCode(ctx, "")
		require.NoError(t, err)
		require.Len(t, gen.Code, 8)
	})

	t.Run("second admin registration conflicts", func(t *testing.T) {
		_, err := otpsdk.NewClient(srv.URL).Register(ctx, otpsdk.RegisterRequest{
			Username: "root2@example.com",
			Password: "admin password",
			Role:     "ADMIN",
		})
		var apiErr *otpsdk.APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, http.StatusConflict, apiErr.StatusCode)
	})
}

func TestAPIHealthEndpoints(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	sdk := otpsdk.NewClient(srv.URL)

	health, err := sdk.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "test", health.Version)

	resp, err := srv.Client().Get(srv.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ready otpsdk.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ready))
	require.Equal(t, "ok", ready.Checks.Database)
}
