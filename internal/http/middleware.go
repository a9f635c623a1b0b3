package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/benerin/benerin-api/internal/domain/access"
	domainauth "github.com/benerin/benerin-api/internal/domain/auth"
)

// SessionService is the slice of the auth service the middleware needs.
type SessionService interface {
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
}

// ReturnURLSaver remembers where the visitor was before an auth redirect.
type ReturnURLSaver interface {
	Save(ctx context.Context, key, rawURL string)
}

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// getSessionFromRequest retrieves and validates a session from the request cookie.
func getSessionFromRequest(r *http.Request, auth SessionService) *domainauth.Session {
	if auth == nil {
		return nil
	}
	sessionCookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil
	}

	session, err := auth.GetSession(r.Context(), sessionCookie.Value)
	if err != nil {
		return nil
	}

	return session
}

// OptionalAuth returns a middleware that attaches the session to the request
// context when one is present; unauthenticated requests pass through as guests.
func OptionalAuth(auth SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session := getSessionFromRequest(r, auth); session != nil {
				r = r.WithContext(SetSessionInContext(r.Context(), session))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth returns a middleware that requires any authenticated principal.
// Unauthenticated API requests get a 401 JSON response.
func RequireAuth(auth SessionService) func(http.Handler) http.Handler {
	return requireRoute(auth, access.Requirements{}, nil)
}

// RequireRole returns a middleware that requires an exact role match. Roles
// are disjoint: a mitra is denied customer routes just as a guest is.
func RequireRole(auth SessionService, role domainauth.Role) func(http.Handler) http.Handler {
	return requireRoute(auth, access.Requirements{RequiredRole: role}, nil)
}

// RequireVerifiedMitra returns a middleware that requires an approved, active
// mitra. Pending or rejected mitras get a 403 with error code
// "verification_required".
func RequireVerifiedMitra(auth SessionService) func(http.Handler) http.Handler {
	return requireRoute(auth, access.Requirements{
		RequiredRole:        domainauth.RoleMitra,
		RequireVerification: true,
	}, nil)
}

// RouteGuardConfig configures the browser-aware route guard middleware.
type RouteGuardConfig struct {
	Auth         SessionService
	Requirements access.Requirements
	// ReturnURLs, when set, remembers the denied request's location so a
	// later sign-in can come back to it.
	ReturnURLs ReturnURLSaver
}

// RequireRouteBrowser returns a middleware enforcing the route requirements
// with browser-aware denial handling: browsers are redirected to the
// role-appropriate auth entry point (after saving the return URL), API
// clients get JSON 401/403 responses.
func RequireRouteBrowser(cfg RouteGuardConfig) func(http.Handler) http.Handler {
	return requireRoute(cfg.Auth, cfg.Requirements, cfg.ReturnURLs)
}

func requireRoute(auth SessionService, reqs access.Requirements, urls ReturnURLSaver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := getSessionFromRequest(r, auth)
			principal := domainauth.GuestPrincipal()
			if session != nil {
				principal = session.Principal()
			}

			decision := access.EvaluateRoute(principal, reqs)
			if !decision.Allowed() {
				denyRoute(w, r, decision, urls)
				return
			}

			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), session)))
		})
	}
}

// denyRoute writes the denial: a redirect for browsers, JSON otherwise.
func denyRoute(w http.ResponseWriter, r *http.Request, d access.Decision, urls ReturnURLSaver) {
	if IsBrowserRequest(r) {
		if urls != nil {
			if key := visitorKey(r); key != "" {
				urls.Save(r.Context(), key, safeRedirectPath(r.URL.RequestURI()))
			}
		}
		redirectToEntry(w, r, d)
		return
	}

	switch d.Outcome {
	case access.OutcomeRequireAuth:
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
	case access.OutcomeRequireVerification:
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "verification_required",
			Err:     errors.New("mitra account is not verified"),
		})
	default:
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "insufficient_permissions",
			Err:     errors.New("insufficient permissions"),
		})
	}
}

// redirectToEntry sends the browser to the auth entry point the denial suggests.
func redirectToEntry(w http.ResponseWriter, r *http.Request, d access.Decision) {
	entry := CustomerLoginPath
	role := d.SuggestedRole
	if role == "" {
		role = d.RequiredRole
	}
	if d.Outcome == access.OutcomeRequireVerification || role == domainauth.RoleMitra {
		entry = MitraLoginPath
	}

	redirectPath := safeRedirectPath(r.URL.RequestURI())
	http.Redirect(w, r, entry+"?redirect_uri="+url.QueryEscape(redirectPath), http.StatusSeeOther)
}

// visitorKey identifies the anonymous visitor via the guest cookie.
func visitorKey(r *http.Request) string {
	cookie, err := r.Cookie(GuestCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection returns a middleware that classifies requests as browser
// or API so downstream denial handling can pick redirect vs JSON.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowserRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if val := r.Context().Value(browserRequestKey{}); val != nil {
		if isBrowser, ok := val.(bool); ok {
			return isBrowser
		}
	}
	// Fallback to direct detection if middleware wasn't used.
	return isBrowserRequest(r)
}

// isBrowserRequest classifies by path prefix and Accept header: API routes
// are never browser requests, everything else is unless it asks for JSON.
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	if strings.HasPrefix(r.URL.Path, "/metrics") {
		return false
	}

	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}

// safeRedirectPath ensures the provided redirect is a same-origin relative
// path starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
