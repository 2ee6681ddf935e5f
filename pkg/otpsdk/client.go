package otpsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SDKClient is a minimal client for the OTP service HTTP API.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// Token authenticates requests when set; obtain one via Login.
	Token string
}

// NewClient creates a client with a 10 second timeout.
func NewClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Register creates an account.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/auth/register", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates and stores the session token on the client for
// subsequent calls.
func (c *SDKClient) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var out LoginResponse
	req := LoginRequest{Username: username, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/auth/login", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	c.Token = out.SessionToken
	return &out, nil
}

// Logout revokes the current session token.
func (c *SDKClient) Logout(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/v1/auth/logout", nil, nil, http.StatusNoContent); err != nil {
		return err
	}
	c.Token = ""
	return nil
}

// GenerateCode requests a code for the authenticated user.
func (c *SDKClient) GenerateCode(ctx context.Context, operationID string) (*GenerateResponse, error) {
	var out GenerateResponse
	req := GenerateRequest{OperationID: operationID}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/otp/generate", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// DispatchCode generates a code and delivers it over the given channel.
func (c *SDKClient) DispatchCode(ctx context.Context, channel, operationID string) (*DispatchResponse, error) {
	var out DispatchResponse
	req := DispatchRequest{Channel: channel, OperationID: operationID}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/otp/dispatch", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateCode attempts to consume a code.
func (c *SDKClient) ValidateCode(ctx context.Context, code string) (bool, error) {
	var out ValidateResponse
	req := ValidateRequest{Code: code}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/otp/validate", req, &out, http.StatusOK); err != nil {
		return false, err
	}
	return out.Valid, nil
}

// Health fetches the liveness probe.
func (c *SDKClient) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/livez", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SDKClient) doJSON(ctx context.Context, method, path string, in, out any, wantStatus int) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var apiErr ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return &APIError{
				StatusCode:  resp.StatusCode,
				Code:        apiErr.Error,
				Description: apiErr.ErrorDescription,
			}
		}
		return fmt.Errorf("unexpected status %d from %s %s", resp.StatusCode, method, path)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
