package httpx

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/benerin/benerin-api/internal/domain/access"
	domainauth "github.com/benerin/benerin-api/internal/domain/auth"
	"github.com/benerin/benerin-api/internal/service"
)

// RouterServices groups the dependencies the router wires into handlers.
type RouterServices struct {
	Auth       AuthServiceInterface
	Guests     *service.GuestService
	ReturnURLs *service.ReturnURLCoordinator
	Catalog    CatalogReader

	CookieDomain string
	Logger       *slog.Logger
	Registry     *prometheus.Registry
}

// NewRouter builds the HTTP handler with all routes and middleware wired.
func NewRouter(svc RouterServices) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", Health)
	mux.HandleFunc("HEAD /healthz", Health)

	if svc.Auth != nil {
		registerAuthRoutes(mux, svc)
	}
	registerGuestRoutes(mux, svc)
	if svc.Catalog != nil {
		registerCatalogRoutes(mux, svc)
	}

	if svc.Registry != nil {
		mux.Handle("GET /metrics", MetricsHandler(svc.Registry))
	}

	var handler http.Handler = mux
	if svc.Registry != nil {
		handler = NewHTTPMetrics(svc.Registry).Middleware(handler)
	}
	handler = BrowserDetection()(handler)
	handler = Logging(svc.Logger)(handler)
	handler = Recover(svc.Logger)(handler)
	return handler
}

func registerAuthRoutes(mux *http.ServeMux, svc RouterServices) {
	auth := &AuthHandlers{
		Svc:          svc.Auth,
		ReturnURLs:   svc.ReturnURLs,
		CookieDomain: svc.CookieDomain,
		Logger:       svc.Logger,
	}

	mux.HandleFunc("POST /api/auth/login", auth.Login)
	mux.HandleFunc("POST /api/auth/register", auth.RegisterCustomer)
	mux.HandleFunc("POST /api/mitra/register", auth.RegisterMitra)
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)
	mux.HandleFunc("GET /api/auth/status", auth.Status)
	mux.HandleFunc("GET /auth/sso", auth.SSOLogin)
	mux.HandleFunc("GET /auth/callback", auth.SSOCallback)
}

func registerGuestRoutes(mux *http.ServeMux, svc RouterServices) {
	guests := &GuestHandlers{
		Svc:          svc.Guests,
		CookieDomain: svc.CookieDomain,
		Logger:       svc.Logger,
	}

	mux.HandleFunc("POST /api/guest/track/view", guests.TrackView)
	mux.HandleFunc("POST /api/guest/track/search", guests.TrackSearch)
	mux.HandleFunc("POST /api/guest/track/filter", guests.TrackFilter)
	mux.HandleFunc("POST /api/guest/prompt/shown", guests.PromptShown)
	mux.HandleFunc("POST /api/guest/prompt/dismissed", guests.PromptDismissed)
	mux.HandleFunc("GET /api/guest/prompt", guests.ShouldPrompt)
	mux.HandleFunc("GET /api/guest/analytics", guests.Analytics)
}

func registerCatalogRoutes(mux *http.ServeMux, svc RouterServices) {
	catalog := &CatalogHandlers{
		Repo:         svc.Catalog,
		Guests:       svc.Guests,
		CookieDomain: svc.CookieDomain,
		Logger:       svc.Logger,
	}

	optional := OptionalAuth(svc.Auth)
	mux.Handle("GET /api/services", optional(http.HandlerFunc(catalog.ListListings)))
	mux.Handle("GET /api/services/{id}", optional(http.HandlerFunc(catalog.GetListing)))
	mux.HandleFunc("GET /api/categories", catalog.ListCategories)

	verifiedMitra := RequireRouteBrowser(RouteGuardConfig{
		Auth: svc.Auth,
		Requirements: access.Requirements{
			RequiredRole:        domainauth.RoleMitra,
			RequireVerification: true,
		},
		ReturnURLs: svc.ReturnURLs,
	})
	mux.Handle("GET /api/mitra/dashboard", verifiedMitra(http.HandlerFunc(catalog.MitraDashboard)))
}
