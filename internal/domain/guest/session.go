// Package guest contains the anonymous-visitor session record and the pure
// engagement and prompt-timing policy computed over it.
package guest

import (
	"time"
)

// SessionTimeout is the sliding expiry window for guest sessions. A session
// whose last activity is older than this is replaced, never reused.
const SessionTimeout = 30 * time.Minute

// FilterSnapshot is one applied listing filter, tagged with when it was applied.
type FilterSnapshot struct {
	Category  string    `json:"category,omitempty"`
	Location  string    `json:"location,omitempty"`
	PriceMin  int64     `json:"price_min,omitempty"`
	PriceMax  int64     `json:"price_max,omitempty"`
	Rating    float64   `json:"rating,omitempty"`
	AppliedAt time.Time `json:"applied_at"`
}

// Session is the persisted anonymous-visitor record, one per storage origin.
// Invariant: LastActivity >= StartTime.
type Session struct {
	ID             string           `json:"id"`
	StartTime      time.Time        `json:"start_time"`
	LastActivity   time.Time        `json:"last_activity"`
	ViewedServices []string         `json:"viewed_services"` // deduplicated by service id
	SearchQueries  []string         `json:"search_queries"`  // append-only, duplicates allowed
	AppliedFilters []FilterSnapshot `json:"applied_filters"` // append-only

	// Monotonic prompt counters. Caps are enforced by the read-side policy,
	// not at write time.
	LoginPromptShown     int `json:"login_prompt_shown"`
	LoginPromptDismissed int `json:"login_prompt_dismissed"`
}

// NewSession creates a fresh session starting now with the given id.
func NewSession(id string, now time.Time) Session {
	return Session{
		ID:           id,
		StartTime:    now,
		LastActivity: now,
	}
}

// Expired reports whether the session's sliding window has lapsed.
func (s Session) Expired(now time.Time, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = SessionTimeout
	}
	return now.Sub(s.LastActivity) > timeout
}

// Touch bumps LastActivity, keeping the LastActivity >= StartTime invariant.
func (s *Session) Touch(now time.Time) {
	if now.After(s.LastActivity) {
		s.LastActivity = now
	}
}

// RecordServiceView adds a viewed service id, deduplicating by id.
// Returns true when the id was newly added.
func (s *Session) RecordServiceView(serviceID string, now time.Time) bool {
	s.Touch(now)
	for _, id := range s.ViewedServices {
		if id == serviceID {
			return false
		}
	}
	s.ViewedServices = append(s.ViewedServices, serviceID)
	return true
}

// RecordSearch appends a raw search query. Duplicates are allowed.
func (s *Session) RecordSearch(query string, now time.Time) {
	s.Touch(now)
	s.SearchQueries = append(s.SearchQueries, query)
}

// RecordFilter appends a filter snapshot, stamping it with now.
func (s *Session) RecordFilter(f FilterSnapshot, now time.Time) {
	s.Touch(now)
	f.AppliedAt = now
	s.AppliedFilters = append(s.AppliedFilters, f)
}

// RecordPromptShown bumps the shown counter.
func (s *Session) RecordPromptShown(now time.Time) {
	s.Touch(now)
	s.LoginPromptShown++
}

// RecordPromptDismissed bumps the dismissed counter.
func (s *Session) RecordPromptDismissed(now time.Time) {
	s.Touch(now)
	s.LoginPromptDismissed++
}

// Analytics is the read model exposed to the UI layer.
type Analytics struct {
	SessionDuration       time.Duration `json:"session_duration"`
	ServicesViewed        int           `json:"services_viewed"`
	SearchesPerformed     int           `json:"searches_performed"`
	FiltersApplied        int           `json:"filters_applied"`
	LoginPromptConversion float64       `json:"login_prompt_conversion"`
}

// Snapshot computes the analytics read model for the session.
func (s Session) Snapshot() Analytics {
	a := Analytics{
		SessionDuration:   s.LastActivity.Sub(s.StartTime),
		ServicesViewed:    len(s.ViewedServices),
		SearchesPerformed: len(s.SearchQueries),
		FiltersApplied:    len(s.AppliedFilters),
	}
	if s.LoginPromptShown > 0 {
		dismissed := s.LoginPromptDismissed
		if dismissed > s.LoginPromptShown {
			dismissed = s.LoginPromptShown
		}
		a.LoginPromptConversion = float64(s.LoginPromptShown-dismissed) / float64(s.LoginPromptShown)
	}
	return a
}
