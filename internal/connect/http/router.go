package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/service"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/store"
	"github.com/aussiebroadwan/bartab-connect/pkg/httpx"
	"github.com/aussiebroadwan/bartab-connect/pkg/jwtx"
	"github.com/aussiebroadwan/bartab-connect/pkg/slogx"

	_ "github.com/aussiebroadwan/bartab-connect/api/connect" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// TokenScope is required to read provider access tokens through the API.
const TokenScope = "connections:token"

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store   store.Store
	states  store.States
	Manager *service.Manager

	// SuccessRedirectURL, when set, receives the browser after a successful
	// callback instead of the popup page.
	SuccessRedirectURL string
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	states store.States,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		states:       states,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerProviders()
	r.registerConnections()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			BarTab Connect Service API
//	@version		0.1.0
//	@description	Links BarTab users to their accounts at external OAuth2 providers (Microsoft, Slack, Jira, Asana, Google, GitHub)
//	@description	and hands currently valid provider access tokens to other BarTab services.
//	@description
//	@description				Provider tokens are encrypted at rest and refreshed on demand.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/bartab
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8081
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token issued by the BarTab auth service. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerProviders() {
	r.Mux.Handle("GET /v1/providers",
		httpx.Chain(ProvidersHandler(r.Manager),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerConnections() {
	authz := &AuthorizeHandler{
		Manager:            r.Manager,
		SuccessRedirectURL: r.SuccessRedirectURL,
	}
	h := &ConnectionsHandler{Manager: r.Manager}

	// GET authorize - strict rate limit by user (each call issues a state)
	r.Mux.Handle("GET /v1/connections/{provider}/authorize",
		httpx.Chain(http.HandlerFunc(authz.HandleAuthorize),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)

	// GET callback - the state parameter is the credential, strict by IP
	r.Mux.Handle("GET /v1/connections/{provider}/callback",
		httpx.Chain(http.HandlerFunc(authz.HandleCallback),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /v1/connections",
		httpx.Chain(http.HandlerFunc(h.HandleStatus),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("POST /v1/connections/{provider}/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("DELETE /v1/connections/{provider}",
		httpx.Chain(http.HandlerFunc(h.HandleDisconnect),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// GET token - collaborators poll this, lenient but scoped
	r.Mux.Handle("GET /v1/connections/{provider}/token",
		httpx.Chain(http.HandlerFunc(h.HandleToken),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope(TokenScope),
			httpx.RateLimitByUser(httpx.LenientLimit),
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
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.states),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
