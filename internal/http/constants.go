package httpx

// Cookie names shared across handlers and middleware.
const (
	// SessionCookieName carries the opaque credential session id.
	SessionCookieName = "session_id"
	// GuestCookieName carries the anonymous visitor's tracking session id.
	// It doubles as the visitor key for the pending return-URL slot.
	GuestCookieName = "guest_session_id"
)

// Auth entry points the browser middleware redirects to on denial.
const (
	CustomerLoginPath = "/auth/login"
	MitraLoginPath    = "/mitra/login"
)
