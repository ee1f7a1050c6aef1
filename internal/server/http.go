package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	accounthandler "contract-rbac/internal/account/handler"
	contracthandler "contract-rbac/internal/contract/handler"
	healthhandler "contract-rbac/internal/health/handler"
	identityhandler "contract-rbac/internal/identity/handler"
	"contract-rbac/internal/logger"
	"contract-rbac/internal/server/interceptors"
)

const requestTimeout = 30 * time.Second

// HTTPDeps holds the handlers and collaborators mounted on the HTTP router.
type HTTPDeps struct {
	Logger         zerolog.Logger
	AllowedOrigins []string
	Resolver       interceptors.CallerResolver
	Identity       *identityhandler.Handler
	Accounts       *accounthandler.Handler
	Contracts      *contracthandler.Handler
	// Health serves /healthz. If nil, /healthz always answers 200.
	Health *healthhandler.Server
}

// NewRouter returns the HTTP API. Registration and login are public; every other
// /api route requires an access token.
func NewRouter(deps HTTPDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.HTTPRequests(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Api-Key"},
		ExposedHeaders:   []string{"X-Api-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Timeout(requestTimeout))

	if deps.Health != nil {
		r.Method(http.MethodGet, "/healthz", deps.Health)
	} else {
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	}

	r.Route("/api", func(r chi.Router) {
		deps.Identity.Routes(r)

		r.Group(func(r chi.Router) {
			r.Use(interceptors.Authenticate(deps.Resolver))
			deps.Accounts.Routes(r)
			deps.Contracts.Routes(r)
		})
	})
	return r
}
