package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/benerin/benerin-api/internal/domain/guest"
	"github.com/benerin/benerin-api/internal/ports"
)

// GuestServiceOptions groups dependencies for GuestService.
type GuestServiceOptions struct {
	Store  ports.GuestStore
	Policy guest.PromptPolicy
	Logger *slog.Logger

	// Timeout is the sliding expiry window; defaults to guest.SessionTimeout.
	Timeout time.Duration
	// Registry, when set, receives the login-prompt funnel counters.
	Registry prometheus.Registerer
	// Now overrides the clock for tests.
	Now func() time.Time
}

// GuestService tracks anonymous-visitor activity and answers the prompt-timing
// policy. Tracking is fire-and-forget: storage failures are logged and
// swallowed so they never interrupt the browsing action that triggered them.
type GuestService struct {
	store   ports.GuestStore
	policy  guest.PromptPolicy
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
	funnel  *promptFunnel
}

type promptFunnel struct {
	shown     prometheus.Counter
	dismissed prometheus.Counter
	converted prometheus.Counter
}

func newPromptFunnel(reg prometheus.Registerer) *promptFunnel {
	f := &promptFunnel{
		shown: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guest_login_prompts_shown_total",
			Help: "Login prompts shown to guest visitors.",
		}),
		dismissed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guest_login_prompts_dismissed_total",
			Help: "Login prompts dismissed by guest visitors.",
		}),
		converted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guest_sessions_converted_total",
			Help: "Guest sessions cleared by a successful sign-in.",
		}),
	}
	reg.MustRegister(f.shown, f.dismissed, f.converted)
	return f
}

// NewGuestService constructs a GuestService.
func NewGuestService(opts GuestServiceOptions) *GuestService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = guest.SessionTimeout
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	policy := opts.Policy
	if policy == (guest.PromptPolicy{}) {
		policy = guest.DefaultPromptPolicy()
	}
	svc := &GuestService{
		store:   opts.Store,
		policy:  policy,
		logger:  logger,
		timeout: timeout,
		now:     now,
	}
	if opts.Registry != nil {
		svc.funnel = newPromptFunnel(opts.Registry)
	}
	return svc
}

// GetOrCreateSession returns the visitor's current non-expired session. An
// unknown or expired id yields a fresh session with a new generated id; the
// caller must adopt the returned session's ID. Expired sessions are replaced,
// never merged.
func (s *GuestService) GetOrCreateSession(ctx context.Context, id string) guest.Session {
	now := s.now()

	if id != "" {
		sess, err := s.store.Get(ctx, id)
		switch {
		case err == nil && !sess.Expired(now, s.timeout):
			return sess
		case err == nil:
			// Expired: drop the stale record, fall through to a fresh one.
			if delErr := s.store.Delete(ctx, id); delErr != nil {
				s.logger.DebugContext(ctx, "delete expired guest session", "error", delErr)
			}
		default:
			// Storage trouble degrades to a fresh, possibly unsaved session.
			s.logger.DebugContext(ctx, "get guest session", "error", err)
		}
	}

	sess := guest.NewSession(uuid.New().String(), now)
	s.save(ctx, sess)
	return sess
}

// save persists the session, swallowing storage errors.
func (s *GuestService) save(ctx context.Context, sess guest.Session) {
	if err := s.store.Save(ctx, sess); err != nil {
		s.logger.DebugContext(ctx, "save guest session", "error", err, "guest_session_id", sess.ID)
	}
}

// TrackServiceView records a viewed service id (deduplicated) and returns the
// session the caller should continue with.
func (s *GuestService) TrackServiceView(ctx context.Context, id, serviceID string) guest.Session {
	sess := s.GetOrCreateSession(ctx, id)
	sess.RecordServiceView(serviceID, s.now())
	s.save(ctx, sess)
	return sess
}

// TrackSearch records a raw search query.
func (s *GuestService) TrackSearch(ctx context.Context, id, query string) guest.Session {
	sess := s.GetOrCreateSession(ctx, id)
	sess.RecordSearch(query, s.now())
	s.save(ctx, sess)
	return sess
}

// TrackFilter records an applied filter snapshot.
func (s *GuestService) TrackFilter(ctx context.Context, id string, f guest.FilterSnapshot) guest.Session {
	sess := s.GetOrCreateSession(ctx, id)
	sess.RecordFilter(f, s.now())
	s.save(ctx, sess)
	return sess
}

// TrackPromptShown bumps the shown counter.
func (s *GuestService) TrackPromptShown(ctx context.Context, id string) guest.Session {
	sess := s.GetOrCreateSession(ctx, id)
	sess.RecordPromptShown(s.now())
	s.save(ctx, sess)
	if s.funnel != nil {
		s.funnel.shown.Inc()
	}
	return sess
}

// TrackPromptDismissed bumps the dismissed counter.
func (s *GuestService) TrackPromptDismissed(ctx context.Context, id string) guest.Session {
	sess := s.GetOrCreateSession(ctx, id)
	sess.RecordPromptDismissed(s.now())
	s.save(ctx, sess)
	if s.funnel != nil {
		s.funnel.dismissed.Inc()
	}
	return sess
}

// ShouldPrompt answers the read-side prompt-timing policy for the visitor.
func (s *GuestService) ShouldPrompt(ctx context.Context, id string) (bool, guest.Session) {
	sess := s.GetOrCreateSession(ctx, id)
	return s.policy.ShouldPrompt(sess), sess
}

// Analytics returns the read model for the visitor's session.
func (s *GuestService) Analytics(ctx context.Context, id string) guest.Analytics {
	return s.GetOrCreateSession(ctx, id).Snapshot()
}

// ClearSession removes the persisted record. Called once, right after a
// sign-in settles; failures are logged and swallowed like all tracking.
func (s *GuestService) ClearSession(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.DebugContext(ctx, "clear guest session", "error", err, "guest_session_id", id)
		return
	}
	if s.funnel != nil {
		s.funnel.converted.Inc()
	}
}
