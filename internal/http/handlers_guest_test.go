package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benerin/benerin-api/internal/adapters/memory"
	"github.com/benerin/benerin-api/internal/domain/guest"
	"github.com/benerin/benerin-api/internal/service"
)

func newGuestHandlers(t *testing.T) (*GuestHandlers, *memory.GuestStore) {
	t.Helper()
	store := memory.NewGuestStore()
	svc := service.NewGuestService(service.GuestServiceOptions{
		Store:  store,
		Logger: testLogger(),
	})
	return &GuestHandlers{Svc: svc, Logger: testLogger()}, store
}

func guestRequest(method, path, body, visitorID string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if visitorID != "" {
		req.AddCookie(&http.Cookie{Name: GuestCookieName, Value: visitorID})
	}
	return req
}

func TestGuestHandlers_TrackView_MintsCookieForNewVisitor(t *testing.T) {
	h, _ := newGuestHandlers(t)

	w := httptest.NewRecorder()
	h.TrackView(w, guestRequest(http.MethodPost, "/api/guest/track/view", `{"service_id":"svc-1"}`, ""))

	require.Equal(t, http.StatusOK, w.Code)

	cookie := cookieNamed(t, w, GuestCookieName)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, cookie.Value, resp["session_id"])
}

func TestGuestHandlers_TrackView_KeepsExistingCookie(t *testing.T) {
	h, store := newGuestHandlers(t)

	w := httptest.NewRecorder()
	h.TrackView(w, guestRequest(http.MethodPost, "/api/guest/track/view", `{"service_id":"svc-1"}`, "visitor-1"))
	require.Equal(t, http.StatusOK, w.Code)

	// Same id as the cookie, so no Set-Cookie is needed.
	assert.Nil(t, cookieNamed(t, w, GuestCookieName))

	sess, err := store.Get(context.Background(), "visitor-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"svc-1"}, sess.ViewedServices)
}

func TestGuestHandlers_TrackView_MissingServiceID(t *testing.T) {
	h, _ := newGuestHandlers(t)

	w := httptest.NewRecorder()
	h.TrackView(w, guestRequest(http.MethodPost, "/api/guest/track/view", `{}`, "visitor-1"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGuestHandlers_TrackSearchAndFilter(t *testing.T) {
	h, store := newGuestHandlers(t)

	w := httptest.NewRecorder()
	h.TrackSearch(w, guestRequest(http.MethodPost, "/api/guest/track/search", `{"query":"servis ac"}`, "visitor-1"))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.TrackFilter(w, guestRequest(http.MethodPost, "/api/guest/track/filter",
		`{"category":"elektronik","location":"Bandung","price_min":50000}`, "visitor-1"))
	require.Equal(t, http.StatusOK, w.Code)

	sess, err := store.Get(context.Background(), "visitor-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"servis ac"}, sess.SearchQueries)
	require.Len(t, sess.AppliedFilters, 1)
	assert.Equal(t, "elektronik", sess.AppliedFilters[0].Category)
	assert.False(t, sess.AppliedFilters[0].AppliedAt.IsZero())
}

func TestGuestHandlers_PromptFlow(t *testing.T) {
	h, _ := newGuestHandlers(t)

	// Not engaged yet: no prompt.
	w := httptest.NewRecorder()
	h.ShouldPrompt(w, guestRequest(http.MethodGet, "/api/guest/prompt", "", "visitor-1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"show_prompt":false`)

	// Three viewed services cross the engagement threshold.
	for _, id := range []string{"svc-1", "svc-2", "svc-3"} {
		w = httptest.NewRecorder()
		h.TrackView(w, guestRequest(http.MethodPost, "/api/guest/track/view", `{"service_id":"`+id+`"}`, "visitor-1"))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w = httptest.NewRecorder()
	h.ShouldPrompt(w, guestRequest(http.MethodGet, "/api/guest/prompt", "", "visitor-1"))
	assert.Contains(t, w.Body.String(), `"show_prompt":true`)

	// Three dismissals suppress the prompt for good.
	for i := 0; i < 3; i++ {
		w = httptest.NewRecorder()
		h.PromptShown(w, guestRequest(http.MethodPost, "/api/guest/prompt/shown", "", "visitor-1"))
		w = httptest.NewRecorder()
		h.PromptDismissed(w, guestRequest(http.MethodPost, "/api/guest/prompt/dismissed", "", "visitor-1"))
	}

	w = httptest.NewRecorder()
	h.ShouldPrompt(w, guestRequest(http.MethodGet, "/api/guest/prompt", "", "visitor-1"))
	assert.Contains(t, w.Body.String(), `"show_prompt":false`)
}

func TestGuestHandlers_Analytics(t *testing.T) {
	h, _ := newGuestHandlers(t)

	w := httptest.NewRecorder()
	h.TrackView(w, guestRequest(http.MethodPost, "/api/guest/track/view", `{"service_id":"svc-1"}`, "visitor-1"))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.Analytics(w, guestRequest(http.MethodGet, "/api/guest/analytics", "", "visitor-1"))
	require.Equal(t, http.StatusOK, w.Code)

	var analytics guest.Analytics
	require.NoError(t, json.NewDecoder(w.Body).Decode(&analytics))
	assert.Equal(t, 1, analytics.ServicesViewed)
}
