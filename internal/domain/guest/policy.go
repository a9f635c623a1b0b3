package guest

import "time"

// PromptPolicy holds the engagement-gated, frequency-capped prompt-timing
// thresholds. The values are policy, not structure: they come from config.
type PromptPolicy struct {
	// High-engagement triggers (any one is sufficient).
	MinServiceViews int
	MinSearches     int
	MinFilters      int
	MinDwellTime    time.Duration

	// MaxPromptsShown is the frequency cap on showing the login prompt.
	MaxPromptsShown int
	// MaxDismissals permanently suppresses prompting for the session's
	// lifetime once reached.
	MaxDismissals int
}

// DefaultPromptPolicy returns the stock thresholds: 3 viewed services, 2
// searches, 1 filter, or 5 minutes of dwell time marks high engagement;
// at most 2 prompts, hard-suppressed after 3 dismissals.
func DefaultPromptPolicy() PromptPolicy {
	return PromptPolicy{
		MinServiceViews: 3,
		MinSearches:     2,
		MinFilters:      1,
		MinDwellTime:    5 * time.Minute,
		MaxPromptsShown: 2,
		MaxDismissals:   3,
	}
}

// IsHighEngagement reports whether the session shows high-intent behavior.
func (p PromptPolicy) IsHighEngagement(s Session) bool {
	if len(s.ViewedServices) >= p.MinServiceViews {
		return true
	}
	if len(s.SearchQueries) >= p.MinSearches {
		return true
	}
	if len(s.AppliedFilters) >= p.MinFilters {
		return true
	}
	return s.LastActivity.Sub(s.StartTime) >= p.MinDwellTime
}

// ShouldPrompt decides whether to show the login prompt. The dismissal cap
// wins over every other signal: once reached, prompting is off for good.
func (p PromptPolicy) ShouldPrompt(s Session) bool {
	if s.LoginPromptDismissed >= p.MaxDismissals {
		return false
	}
	return p.IsHighEngagement(s) && s.LoginPromptShown < p.MaxPromptsShown
}
