package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	"eventbook/internal/adapters/http/middleware"
	"eventbook/internal/adapters/http/perf"
	accountStore "eventbook/internal/adapters/storage/account"
	bookingStore "eventbook/internal/adapters/storage/booking"
	eventStore "eventbook/internal/adapters/storage/event"
	outboxStore "eventbook/internal/adapters/storage/outbox"
	profileStore "eventbook/internal/adapters/storage/profile"
	"eventbook/internal/application/orchestrators"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore accountStore.Store
	ProfileStore profileStore.Store
	EventStore   eventStore.Store
	BookingStore bookingStore.Store
	// OutboxStore queues failed notifications; nil disables the outbox.
	OutboxStore outboxStore.Store
}

// Options configures NewMux. Zero values select in-process defaults.
type Options struct {
	// CSRFKey must be 32 bytes.
	CSRFKey []byte
	// FlashKey signs the flash cookie; a random key is used when empty.
	FlashKey []byte
	// Secure marks every cookie Secure and enforces the TLS origin checks.
	Secure         bool
	TrustedOrigins []string

	Sessions   middleware.SessionStore
	SessionTTL time.Duration
	// Limiter throttles requests per client IP; nil disables rate limiting.
	Limiter middleware.Limiter

	Collector   *perf.Collector
	SlowRequest time.Duration

	Notifiers []orchestrators.BookingNotifier
	// Outbox retries queued notifications. Built from OutboxStore when nil.
	Outbox *orchestrators.OutboxProcessor
	// Health reports whether backing services are reachable.
	Health func(ctx context.Context) error
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions middleware.SessionStore

// Global flash cookie codec
var flasher *middleware.Flasher

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Booking notifiers, told about every confirmed booking
var notifiers []orchestrators.BookingNotifier

// Outbox processor for manual retries from the admin page
var outboxProcessor *orchestrators.OutboxProcessor

var (
	sessionTTL    = middleware.DefaultSessionTTL
	secureCookies bool
	healthCheck   func(ctx context.Context) error
)

// NewMux wires HTTP handlers for the app.
// PRE: s is fully populated and opts.CSRFKey is 32 bytes
// POST: returns the complete handler chain
func NewMux(s *Stores, opts Options) http.Handler {
	stores = s
	perfCollector = opts.Collector
	notifiers = opts.Notifiers
	healthCheck = opts.Health
	secureCookies = opts.Secure
	outboxProcessor = opts.Outbox
	if outboxProcessor == nil && s.OutboxStore != nil {
		outboxProcessor = orchestrators.NewOutboxProcessor(s.OutboxStore, opts.Notifiers)
	}

	sessionTTL = opts.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = middleware.DefaultSessionTTL
	}
	sessions = opts.Sessions
	if sessions == nil {
		sessions = middleware.NewMemorySessionStore(sessionTTL)
	}

	flashKey := opts.FlashKey
	if len(flashKey) == 0 {
		flashKey = securecookie.GenerateRandomKey(32)
		zap.L().Warn("flash_key_generated", zap.String("hint", "flash cookies will not survive a restart"))
	}
	flasher = middleware.NewFlasher(flashKey, opts.Secure)

	mux := http.NewServeMux()
	registerRoutes(mux)

	slow := opts.SlowRequest
	if slow <= 0 {
		slow = middleware.DefaultSlowRequest
	}

	// Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, opts.Secure, opts.TrustedOrigins),
		middleware.Auth(sessions),
		middleware.RateLimit(opts.Limiter),
		middleware.Timing(opts.Collector, slow),
	)
}
