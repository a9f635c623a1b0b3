package guest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func TestSession_RecordServiceView_Dedup(t *testing.T) {
	s := NewSession("g1", t0)

	assert.True(t, s.RecordServiceView("a", t0.Add(time.Minute)))
	assert.True(t, s.RecordServiceView("b", t0.Add(2*time.Minute)))
	assert.False(t, s.RecordServiceView("a", t0.Add(3*time.Minute)))

	assert.Equal(t, []string{"a", "b"}, s.ViewedServices)
	// Duplicate view still bumps activity.
	assert.Equal(t, t0.Add(3*time.Minute), s.LastActivity)
}

func TestSession_SearchesAndFiltersAppend(t *testing.T) {
	s := NewSession("g1", t0)

	s.RecordSearch("ac service", t0.Add(time.Minute))
	s.RecordSearch("ac service", t0.Add(2*time.Minute))
	assert.Len(t, s.SearchQueries, 2, "duplicate searches are kept")

	s.RecordFilter(FilterSnapshot{Category: "electronics"}, t0.Add(3*time.Minute))
	assert.Len(t, s.AppliedFilters, 1)
	assert.Equal(t, t0.Add(3*time.Minute), s.AppliedFilters[0].AppliedAt)
}

func TestSession_TouchNeverMovesBackwards(t *testing.T) {
	s := NewSession("g1", t0)
	s.Touch(t0.Add(time.Minute))
	s.Touch(t0.Add(-time.Hour))
	assert.Equal(t, t0.Add(time.Minute), s.LastActivity)
	assert.True(t, !s.LastActivity.Before(s.StartTime))
}

func TestSession_Expired(t *testing.T) {
	s := NewSession("g1", t0)
	assert.False(t, s.Expired(t0.Add(29*time.Minute), SessionTimeout))
	assert.False(t, s.Expired(t0.Add(30*time.Minute), SessionTimeout))
	assert.True(t, s.Expired(t0.Add(31*time.Minute), SessionTimeout))
}

func TestSession_Snapshot(t *testing.T) {
	s := NewSession("g1", t0)
	s.RecordServiceView("a", t0.Add(time.Minute))
	s.RecordSearch("tv repair", t0.Add(2*time.Minute))
	s.RecordPromptShown(t0.Add(3*time.Minute))
	s.RecordPromptShown(t0.Add(4*time.Minute))
	s.RecordPromptDismissed(t0.Add(5*time.Minute))

	a := s.Snapshot()
	assert.Equal(t, 5*time.Minute, a.SessionDuration)
	assert.Equal(t, 1, a.ServicesViewed)
	assert.Equal(t, 1, a.SearchesPerformed)
	assert.Equal(t, 0, a.FiltersApplied)
	assert.InDelta(t, 0.5, a.LoginPromptConversion, 1e-9)
}

func TestSession_SnapshotNoPrompts(t *testing.T) {
	s := NewSession("g1", t0)
	assert.Zero(t, s.Snapshot().LoginPromptConversion)
}
