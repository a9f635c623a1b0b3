package config

import (
	"time"

	"github.com/benerin/benerin-api/internal/domain/guest"
)

// GuestConfig contains guest session and login prompt configuration.
type GuestConfig struct {
	// SessionTimeout is the sliding inactivity window for guest sessions.
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"30m"`

	// High-engagement thresholds; any one marks the visitor engaged.
	PromptMinServiceViews int           `env:"PROMPT_MIN_SERVICE_VIEWS" envDefault:"3"`
	PromptMinSearches     int           `env:"PROMPT_MIN_SEARCHES"      envDefault:"2"`
	PromptMinFilters      int           `env:"PROMPT_MIN_FILTERS"       envDefault:"1"`
	PromptMinDwellTime    time.Duration `env:"PROMPT_MIN_DWELL_TIME"    envDefault:"5m"`

	// PromptMaxShown caps how often the login prompt appears per session.
	PromptMaxShown int `env:"PROMPT_MAX_SHOWN" envDefault:"2"`

	// PromptMaxDismissals permanently suppresses the prompt once reached.
	PromptMaxDismissals int `env:"PROMPT_MAX_DISMISSALS" envDefault:"3"`
}

// Sanitize applies guardrails to guest configuration values.
func (g *GuestConfig) Sanitize() {
	if g.SessionTimeout <= 0 {
		g.SessionTimeout = guest.SessionTimeout
	}
	def := guest.DefaultPromptPolicy()
	if g.PromptMinServiceViews <= 0 {
		g.PromptMinServiceViews = def.MinServiceViews
	}
	if g.PromptMinSearches <= 0 {
		g.PromptMinSearches = def.MinSearches
	}
	if g.PromptMinFilters <= 0 {
		g.PromptMinFilters = def.MinFilters
	}
	if g.PromptMinDwellTime <= 0 {
		g.PromptMinDwellTime = def.MinDwellTime
	}
	if g.PromptMaxShown <= 0 {
		g.PromptMaxShown = def.MaxPromptsShown
	}
	if g.PromptMaxDismissals <= 0 {
		g.PromptMaxDismissals = def.MaxDismissals
	}
}

// PromptPolicy converts the config thresholds into the domain policy.
func (g GuestConfig) PromptPolicy() guest.PromptPolicy {
	return guest.PromptPolicy{
		MinServiceViews: g.PromptMinServiceViews,
		MinSearches:     g.PromptMinSearches,
		MinFilters:      g.PromptMinFilters,
		MinDwellTime:    g.PromptMinDwellTime,
		MaxPromptsShown: g.PromptMaxShown,
		MaxDismissals:   g.PromptMaxDismissals,
	}
}
