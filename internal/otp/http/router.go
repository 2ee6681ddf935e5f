package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ChertChill/otp-service/internal/otp/domain"
	"github.com/ChertChill/otp-service/internal/otp/service"
	"github.com/ChertChill/otp-service/internal/otp/session"
	"github.com/ChertChill/otp-service/internal/otp/store"
	"github.com/ChertChill/otp-service/pkg/httpx"
	"github.com/ChertChill/otp-service/pkg/slogx"

	_ "github.com/ChertChill/otp-service/api/otp" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	sessions     *session.Manager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	OtpService   *service.OtpService
	UserService  *service.UserService
	AdminService *service.AdminService
}

func NewRouter(
	sessions *session.Manager,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		sessions:     sessions,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerOtp()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			OTP Service API
//	@version		0.1.0
//	@description	One-time password issuance, delivery, and validation service.
//	@description
//	@description				Codes are single-use and expire after a configurable TTL. Session
//	@description				tokens obtained via /v1/auth/login authenticate all other endpoints.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authn builds the bearer-token middleware backed by the session manager.
// Every request re-checks the store, so revocation and expiry take effect
// immediately.
func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware(func(ctx context.Context, token string) (httpx.Principal, bool) {
		s, ok := r.sessions.Validate(ctx, token)
		if !ok {
			return httpx.Principal{}, false
		}
		return httpx.Principal{
			UserID:   s.UserID,
			Username: s.Username,
			Role:     string(s.Role),
		}, true
	})
}

func (r *Router) registerAuth() {
	h := &AuthHandler{UserService: r.UserService, Sessions: r.sessions}

	// POST /auth/register - strict rate limit by IP (public signup endpoint)
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /auth/login - strict rate limit by IP (authentication attempts)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /auth/logout - authenticated, moderate rate limit by user
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			r.authn(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerOtp() {
	h := &OtpHandler{OtpService: r.OtpService}

	// POST /otp/generate - moderate rate limit by user
	r.Mux.Handle("POST /v1/otp/generate",
		httpx.Chain(http.HandlerFunc(h.HandleGenerate),
			r.authn(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// POST /otp/dispatch - moderate rate limit by user
	r.Mux.Handle("POST /v1/otp/dispatch",
		httpx.Chain(http.HandlerFunc(h.HandleDispatch),
			r.authn(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// POST /otp/validate - strict rate limit by user (prevent code brute force)
	r.Mux.Handle("POST /v1/otp/validate",
		httpx.Chain(http.HandlerFunc(h.HandleValidate),
			r.authn(),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{AdminService: r.AdminService, OtpService: r.OtpService}
	adminOnly := httpx.RequireRole(string(domain.RoleAdmin))

	r.Mux.Handle("GET /v1/admin/policy",
		httpx.Chain(http.HandlerFunc(h.HandleGetPolicy),
			r.authn(), adminOnly,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PUT /v1/admin/policy",
		httpx.Chain(http.HandlerFunc(h.HandleUpdatePolicy),
			r.authn(), adminOnly,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/admin/users",
		httpx.Chain(http.HandlerFunc(h.HandleListUsers),
			r.authn(), adminOnly,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/admin/users/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDeleteUser),
			r.authn(), adminOnly,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
