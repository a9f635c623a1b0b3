package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/benerin/benerin-api/internal/domain/guest"
	"github.com/benerin/benerin-api/internal/service"
)

// GuestHandlers serves the anonymous-visitor tracking endpoints. Every
// handler adopts the visitor's guest cookie, minting a fresh one when the
// session was replaced after expiry.
type GuestHandlers struct {
	Svc *service.GuestService
	// CookieDomain scopes the guest cookie; empty means host-only.
	CookieDomain string
	Logger       *slog.Logger
}

type trackViewRequest struct {
	ServiceID string `json:"service_id"`
}

type trackSearchRequest struct {
	Query string `json:"query"`
}

type trackFilterRequest struct {
	Category string  `json:"category,omitempty"`
	Location string  `json:"location,omitempty"`
	PriceMin int64   `json:"price_min,omitempty"`
	PriceMax int64   `json:"price_max,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
}

// TrackView handles POST /api/guest/track/view.
func (h *GuestHandlers) TrackView(w http.ResponseWriter, r *http.Request) {
	var req trackViewRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.ServiceID == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_fields", Err: errors.New("service_id is required")})
		return
	}

	sess := h.Svc.TrackServiceView(r.Context(), visitorKey(r), req.ServiceID)
	h.respondTracked(w, r, sess)
}

// TrackSearch handles POST /api/guest/track/search.
func (h *GuestHandlers) TrackSearch(w http.ResponseWriter, r *http.Request) {
	var req trackSearchRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Query == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_fields", Err: errors.New("query is required")})
		return
	}

	sess := h.Svc.TrackSearch(r.Context(), visitorKey(r), req.Query)
	h.respondTracked(w, r, sess)
}

// TrackFilter handles POST /api/guest/track/filter.
func (h *GuestHandlers) TrackFilter(w http.ResponseWriter, r *http.Request) {
	var req trackFilterRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	sess := h.Svc.TrackFilter(r.Context(), visitorKey(r), guest.FilterSnapshot{
		Category: req.Category,
		Location: req.Location,
		PriceMin: req.PriceMin,
		PriceMax: req.PriceMax,
		Rating:   req.Rating,
	})
	h.respondTracked(w, r, sess)
}

// PromptShown handles POST /api/guest/prompt/shown.
func (h *GuestHandlers) PromptShown(w http.ResponseWriter, r *http.Request) {
	sess := h.Svc.TrackPromptShown(r.Context(), visitorKey(r))
	h.respondTracked(w, r, sess)
}

// PromptDismissed handles POST /api/guest/prompt/dismissed.
func (h *GuestHandlers) PromptDismissed(w http.ResponseWriter, r *http.Request) {
	sess := h.Svc.TrackPromptDismissed(r.Context(), visitorKey(r))
	h.respondTracked(w, r, sess)
}

// ShouldPrompt handles GET /api/guest/prompt. It never mutates prompt
// counters; the client reports an actual impression via PromptShown.
func (h *GuestHandlers) ShouldPrompt(w http.ResponseWriter, r *http.Request) {
	show, sess := h.Svc.ShouldPrompt(r.Context(), visitorKey(r))
	h.adoptGuestCookie(w, r, sess)
	WriteJSON(w, http.StatusOK, map[string]any{"show_prompt": show})
}

// Analytics handles GET /api/guest/analytics.
func (h *GuestHandlers) Analytics(w http.ResponseWriter, r *http.Request) {
	analytics := h.Svc.Analytics(r.Context(), visitorKey(r))
	WriteJSON(w, http.StatusOK, analytics)
}

func (h *GuestHandlers) respondTracked(w http.ResponseWriter, r *http.Request, sess guest.Session) {
	h.adoptGuestCookie(w, r, sess)
	WriteJSON(w, http.StatusOK, map[string]string{"session_id": sess.ID})
}

// adoptGuestCookie refreshes the guest cookie whenever the session id differs
// from the cookie, which happens on first contact and after expiry replaces
// the session.
func (h *GuestHandlers) adoptGuestCookie(w http.ResponseWriter, r *http.Request, sess guest.Session) {
	setGuestCookie(w, r, h.CookieDomain, sess)
}

func setGuestCookie(w http.ResponseWriter, r *http.Request, domain string, sess guest.Session) {
	if sess.ID == "" || sess.ID == visitorKey(r) {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     GuestCookieName,
		Value:    sess.ID,
		Path:     "/",
		Domain:   domain,
		MaxAge:   int((2 * guest.SessionTimeout).Seconds()),
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}
