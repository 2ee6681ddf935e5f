package otpsdk

// ErrorResponse is the uniform error payload for every endpoint.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// RegisterRequest creates a new account. Role is "USER" or "ADMIN"; empty
// defaults to "USER". Username doubles as the delivery address for the
// chosen notification channel (email address, phone number, chat id).
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type RegisterResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer session token. ExpiresIn is seconds
// until the session lapses; there is no sliding expiration.
type LoginResponse struct {
	SessionToken string `json:"session_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// GenerateRequest asks for a code bound to an optional business operation
// identifier (an order id, a transfer id).
type GenerateRequest struct {
	OperationID string `json:"operation_id,omitempty"`
}

type GenerateResponse struct {
	Code string `json:"code"`
}

// DispatchRequest generates a code and delivers it over the requested
// channel: "EMAIL", "SMS", "CHATBOT", or "FILE".
type DispatchRequest struct {
	Channel     string `json:"channel"`
	OperationID string `json:"operation_id,omitempty"`
}

type DispatchResponse struct {
	Delivered bool   `json:"delivered"`
	Channel   string `json:"channel"`
}

type ValidateRequest struct {
	Code string `json:"code"`
}

// ValidateResponse reports acceptance. Valid is false for unknown, used,
// and expired codes alike; the response never distinguishes them.
type ValidateResponse struct {
	Valid bool `json:"valid"`
}

// PolicyRequest replaces the OTP policy. Length must be at least 4 and
// TTLSeconds at least 60.
type PolicyRequest struct {
	Length     int   `json:"length"`
	TTLSeconds int64 `json:"ttl_seconds"`
}

type PolicyResponse struct {
	Length     int   `json:"length"`
	TTLSeconds int64 `json:"ttl_seconds"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"`
}

type UsersResponse struct {
	Users []UserResponse `json:"users"`
}

type HealthChecks struct {
	Database string `json:"database,omitempty"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
