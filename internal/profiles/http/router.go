package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/profiles/internal/profiles/service"
	"github.com/aussiebroadwan/profiles/internal/profiles/session"
	"github.com/aussiebroadwan/profiles/internal/profiles/store"
	"github.com/aussiebroadwan/profiles/pkg/httpx"
	"github.com/aussiebroadwan/profiles/pkg/slogx"

	_ "github.com/aussiebroadwan/profiles/api/profiles" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     session.Verifier
	limits       httpx.RateLimits
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store              store.Store
	UserProfileService *service.UserProfileService
	ProfileService     *service.ProfileService
}

func NewRouter(
	verifier session.Verifier,
	limits httpx.RateLimits,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		limits:       limits,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerUsers()
	r.registerProfiles()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title						Profiles Service API
//	@version					0.1.0
//	@description				User registration, sign-in, password reset and public profiles.
//	@description				Sign-up and sign-in return a session token to send as a bearer token.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/profiles
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

// verify adapts the session verifier to the authn middleware.
func (r *Router) verify(ctx context.Context, token string) (httpx.Principal, error) {
	claims, err := r.verifier.VerifySession(ctx, token)
	if err != nil {
		return httpx.Principal{}, err
	}
	return httpx.Principal{UserID: claims.UserID, ProfileID: claims.ProfileID}, nil
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserProfileService: r.UserProfileService}

	// Credential endpoints - strict rate limit by IP (brute force, account enumeration)
	strict := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, httpx.RateLimitByIP(r.limits.Credentials))
	}

	r.Mux.Handle("POST /v1/users/sign-up", strict(h.HandleSignUp))
	r.Mux.Handle("POST /v1/users/sign-in", strict(h.HandleSignIn))
	r.Mux.Handle("POST /v1/users/reset-password/request", strict(h.HandleRequestPasswordReset))
	r.Mux.Handle("POST /v1/users/reset-password", strict(h.HandleResetPassword))
	r.Mux.Handle("POST /v1/users/change-password", strict(h.HandleChangePassword))
}

func (r *Router) registerProfiles() {
	h := &ProfilesHandler{ProfileService: r.ProfileService}

	// PUT /profiles/me - authenticated write, rate limited per user
	r.Mux.Handle("PUT /v1/profiles/me",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateMe),
			httpx.AuthnMiddleware(r.verify),
			httpx.RateLimitByPrincipal(r.limits.Authenticated),
		),
	)

	// Public reads - lenient rate limit by IP. The literal count route wins
	// over the {id} wildcard.
	r.Mux.Handle("GET /v1/profiles/count",
		httpx.Chain(http.HandlerFunc(h.HandleCount),
			httpx.RateLimitByIP(r.limits.Public),
		),
	)
	r.Mux.Handle("GET /v1/profiles/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(r.limits.Public),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.limits.Public),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(r.limits.Public),
		),
	)
}
