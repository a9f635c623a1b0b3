package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/benerin/benerin-api/internal/domain/auth"
	"github.com/benerin/benerin-api/internal/ports"
	"github.com/benerin/benerin-api/internal/service"
)

// AuthServiceInterface is the surface of the auth service the handlers use.
type AuthServiceInterface interface {
	Login(ctx context.Context, creds ports.Credentials, in service.SignInInput) (*service.SignInResult, error)
	RegisterCustomer(ctx context.Context, reg ports.CustomerRegistration, in service.SignInInput) (*service.SignInResult, error)
	RegisterMitra(ctx context.Context, reg ports.MitraRegistration, in service.SignInInput) (*service.SignInResult, error)
	BeginSSOLogin(ctx context.Context, redirectURL string) (*service.BeginSSOLoginResult, error)
	CompleteSSOLogin(ctx context.Context, in service.CompleteSSOLoginInput) (*service.SignInResult, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// ReturnURLConsumer resolves the post sign-in destination for a visitor.
type ReturnURLConsumer interface {
	ResolvePostAuthDestination(ctx context.Context, key string, role domainauth.Role) string
}

// AuthHandlers contains HTTP handlers for authentication endpoints.
type AuthHandlers struct {
	Svc        AuthServiceInterface
	ReturnURLs ReturnURLConsumer
	// CookieDomain scopes the auth cookies; empty means host-only.
	CookieDomain string
	Logger       *slog.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerCustomerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type registerMitraRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	BusinessName string `json:"business_name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
}

type sessionResponse struct {
	User       sessionUser `json:"user"`
	RedirectTo string      `json:"redirect_to"`
}

type sessionUser struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	Name               string `json:"name"`
	Role               string `json:"role"`
	VerificationStatus string `json:"verification_status,omitempty"`
}

// Login handles POST /api/auth/login with email and password credentials.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.Login(r.Context(), ports.Credentials{
		Email:    req.Email,
		Password: req.Password,
	}, service.SignInInput{GuestSessionID: visitorKey(r)})
	if err != nil {
		h.writeSignInError(w, "login", err)
		return
	}

	h.finishSignIn(w, r, result.Session)
}

// RegisterCustomer handles POST /api/auth/register.
func (h *AuthHandlers) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req registerCustomerRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.RegisterCustomer(r.Context(), ports.CustomerRegistration{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	}, service.SignInInput{GuestSessionID: visitorKey(r)})
	if err != nil {
		h.writeSignInError(w, "register", err)
		return
	}

	h.finishSignIn(w, r, result.Session)
}

// RegisterMitra handles POST /api/mitra/register. New mitra accounts start in
// pending verification.
func (h *AuthHandlers) RegisterMitra(w http.ResponseWriter, r *http.Request) {
	var req registerMitraRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.RegisterMitra(r.Context(), ports.MitraRegistration{
		Email:        req.Email,
		Password:     req.Password,
		BusinessName: req.BusinessName,
		Phone:        req.Phone,
		Address:      req.Address,
	}, service.SignInInput{GuestSessionID: visitorKey(r)})
	if err != nil {
		h.writeSignInError(w, "register_mitra", err)
		return
	}

	h.finishSignIn(w, r, result.Session)
}

// SSOLogin handles GET /auth/sso: redirects the browser to the identity
// provider after stashing state and nonce in short-lived cookies.
func (h *AuthHandlers) SSOLogin(w http.ResponseWriter, r *http.Request) {
	begin, err := h.Svc.BeginSSOLogin(r.Context(), ssoCallbackURL(r))
	if err != nil {
		if errors.Is(err, service.ErrSSONotConfigured) {
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "sso_not_configured", Err: err})
			return
		}
		h.Logger.Error("sso begin failed", slog.Any("error", err))
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "sso_error", Err: errors.New("sso unavailable")})
		return
	}

	h.setOAuthCookies(w, r, begin.State, begin.Nonce)
	http.Redirect(w, r, begin.AuthURL, http.StatusFound)
}

// SSOCallback handles GET /auth/callback: verifies state against the cookie,
// exchanges the code, and establishes a session.
func (h *AuthHandlers) SSOCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_state", Err: errors.New("state mismatch")})
		return
	}
	nonceCookie, err := r.Cookie("oauth_nonce")
	if err != nil || nonceCookie.Value == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_nonce", Err: errors.New("missing nonce")})
		return
	}

	h.clearOAuthCookies(w, r)

	result, err := h.Svc.CompleteSSOLogin(r.Context(), service.CompleteSSOLoginInput{
		Code:           r.URL.Query().Get("code"),
		State:          stateCookie.Value,
		Nonce:          nonceCookie.Value,
		GuestSessionID: visitorKey(r),
	})
	if err != nil {
		h.Logger.Warn("sso callback failed", slog.Any("error", err))
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "sso_failed", Err: errors.New("sign-in failed")})
		return
	}

	h.setSessionCookie(w, r, result.Session)
	clearCookie(w, r, GuestCookieName, h.CookieDomain)
	http.Redirect(w, r, h.postAuthDestination(r, result.Session.Role), http.StatusSeeOther)
}

// Logout handles POST /api/auth/logout. Logging out twice is a no-op.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := ""
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		sessionID = cookie.Value
	}

	if err := h.Svc.Logout(r.Context(), sessionID); err != nil {
		h.Logger.Error("logout failed", slog.Any("error", err))
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "logout_failed", Err: errors.New("logout did not complete")})
		return
	}

	clearCookie(w, r, SessionCookieName, h.CookieDomain)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// Status handles GET /api/auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	session := getSessionFromRequest(r, h.Svc)
	if session == nil {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          sessionUserFrom(*session),
	})
}

func (h *AuthHandlers) finishSignIn(w http.ResponseWriter, r *http.Request, session domainauth.Session) {
	h.setSessionCookie(w, r, session)
	clearCookie(w, r, GuestCookieName, h.CookieDomain)
	WriteJSON(w, http.StatusOK, sessionResponse{
		User:       sessionUserFrom(session),
		RedirectTo: h.postAuthDestination(r, session.Role),
	})
}

func (h *AuthHandlers) postAuthDestination(r *http.Request, role domainauth.Role) string {
	if h.ReturnURLs == nil {
		return "/"
	}
	return h.ReturnURLs.ResolvePostAuthDestination(r.Context(), visitorKey(r), role)
}

func (h *AuthHandlers) writeSignInError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ports.ErrInvalidCredentials):
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "invalid_credentials", Err: errors.New("invalid email or password")})
	case errors.Is(err, ports.ErrEmailExists):
		WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "email_exists", Err: errors.New("email is already registered")})
	case errors.Is(err, service.ErrMissingFields):
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_fields", Err: err})
	default:
		h.Logger.Error("sign-in failed", slog.String("op", op), slog.Any("error", err))
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "sign_in_failed", Err: errors.New("sign-in did not complete")})
	}
}

func sessionUserFrom(session domainauth.Session) sessionUser {
	return sessionUser{
		ID:                 session.UserID,
		Email:              session.Email,
		Name:               session.Name,
		Role:               string(session.Role),
		VerificationStatus: string(session.VerificationStatus),
	}
}

func ssoCallbackURL(r *http.Request) string {
	scheme := "http"
	if isSecureRequest(r) {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/auth/callback"
}

func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, session domainauth.Session) {
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandlers) setOAuthCookies(w http.ResponseWriter, r *http.Request, state, nonce string) {
	const oauthCookieMaxAge = 600
	for name, value := range map[string]string{"oauth_state": state, "oauth_nonce": nonce} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			Domain:   h.CookieDomain,
			MaxAge:   oauthCookieMaxAge,
			HttpOnly: true,
			Secure:   isSecureRequest(r),
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (h *AuthHandlers) clearOAuthCookies(w http.ResponseWriter, r *http.Request) {
	clearCookie(w, r, "oauth_state", h.CookieDomain)
	clearCookie(w, r, "oauth_nonce", h.CookieDomain)
}

func clearCookie(w http.ResponseWriter, r *http.Request, name, domain string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
