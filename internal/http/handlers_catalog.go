package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/benerin/benerin-api/internal/data"
	"github.com/benerin/benerin-api/internal/domain/catalog"
	"github.com/benerin/benerin-api/internal/domain/guest"
	"github.com/benerin/benerin-api/internal/service"
)

// CatalogReader is the read surface of the listing catalog.
type CatalogReader interface {
	ListListings(ctx context.Context, f catalog.ListingFilter) ([]catalog.ServiceListing, error)
	GetListing(ctx context.Context, id string) (*catalog.ServiceListing, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	MitraSummary(ctx context.Context, mitraID string) (*catalog.MitraSummary, error)
}

// CatalogHandlers serves the public catalog read endpoints. Guest visitors
// browsing the catalog get their activity tracked as a side effect, which is
// what feeds the login prompt policy.
type CatalogHandlers struct {
	Repo         CatalogReader
	Guests       *service.GuestService
	CookieDomain string
	Logger       *slog.Logger
}

// ListListings handles GET /api/services with query, category, location,
// price, and rating filters.
func (h *CatalogHandlers) ListListings(w http.ResponseWriter, r *http.Request) {
	f := listingFilterFromQuery(r)

	listings, err := h.Repo.ListListings(r.Context(), f)
	if err != nil {
		h.Logger.Error("list listings failed", slog.Any("error", err))
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "catalog_error", Err: errors.New("could not list services")})
		return
	}

	h.trackBrowse(w, r, f)
	WriteJSON(w, http.StatusOK, map[string]any{"services": listings})
}

// GetListing handles GET /api/services/{id}.
func (h *CatalogHandlers) GetListing(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	listing, err := h.Repo.GetListing(r.Context(), id)
	if err != nil {
		if errors.Is(err, data.ErrListingNotFound) {
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: err})
			return
		}
		h.Logger.Error("get listing failed", slog.String("id", id), slog.Any("error", err))
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "catalog_error", Err: errors.New("could not load service")})
		return
	}

	if h.Guests != nil && IsGuestRequest(r.Context()) {
		if key := visitorKey(r); key != "" {
			sess := h.Guests.TrackServiceView(r.Context(), key, listing.ID)
			setGuestCookie(w, r, h.CookieDomain, sess)
		}
	}

	WriteJSON(w, http.StatusOK, listing)
}

// ListCategories handles GET /api/categories.
func (h *CatalogHandlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Repo.ListCategories(r.Context())
	if err != nil {
		h.Logger.Error("list categories failed", slog.Any("error", err))
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "catalog_error", Err: errors.New("could not list categories")})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// MitraDashboard handles GET /api/mitra/dashboard. The route is mounted
// behind RequireVerifiedMitra, so the session is always present here.
func (h *CatalogHandlers) MitraDashboard(w http.ResponseWriter, r *http.Request) {
	session, ok := GetSessionFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_required", Err: errors.New("authentication required")})
		return
	}

	summary, err := h.Repo.MitraSummary(r.Context(), session.UserID)
	if err != nil {
		h.Logger.Error("mitra summary failed", slog.String("mitra_id", session.UserID), slog.Any("error", err))
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "catalog_error", Err: errors.New("could not load dashboard")})
		return
	}

	WriteJSON(w, http.StatusOK, summary)
}

// trackBrowse records a guest's search or filter activity from the listing
// query. Signed-in visitors are not tracked.
func (h *CatalogHandlers) trackBrowse(w http.ResponseWriter, r *http.Request, f catalog.ListingFilter) {
	if h.Guests == nil || !IsGuestRequest(r.Context()) {
		return
	}
	key := visitorKey(r)
	if key == "" {
		return
	}

	var sess guest.Session
	tracked := false
	if f.Query != "" {
		sess = h.Guests.TrackSearch(r.Context(), key, f.Query)
		tracked = true
	}
	if f.Category != "" || f.Location != "" || f.PriceMin > 0 || f.PriceMax > 0 || f.Rating > 0 {
		sess = h.Guests.TrackFilter(r.Context(), key, guest.FilterSnapshot{
			Category: f.Category,
			Location: f.Location,
			PriceMin: f.PriceMin,
			PriceMax: f.PriceMax,
			Rating:   f.Rating,
		})
		tracked = true
	}
	if tracked {
		setGuestCookie(w, r, h.CookieDomain, sess)
	}
}

func listingFilterFromQuery(r *http.Request) catalog.ListingFilter {
	q := r.URL.Query()
	return catalog.ListingFilter{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Location: q.Get("location"),
		PriceMin: parseInt64(q.Get("price_min")),
		PriceMax: parseInt64(q.Get("price_max")),
		Rating:   parseFloat(q.Get("rating")),
		Limit:    int(parseInt64(q.Get("limit"))),
		Offset:   int(parseInt64(q.Get("offset"))),
	}
}

func parseInt64(s string) int64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
