package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/url"
	"sync"
	"time"

	"eventbook/internal/domain/account"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const accountContextKey contextKey = "account"

// DefaultSessionTTL is how long a session lives without being renewed.
const DefaultSessionTTL = 24 * time.Hour

// Session represents an authenticated session.
type Session struct {
	AccountID string    `json:"account_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsStaff   bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSession builds a session for an authenticated principal.
func NewSession(p account.Principal, now time.Time) Session {
	return Session{
		AccountID: p.ID,
		Username:  p.Username,
		Email:     p.Email,
		IsStaff:   p.IsStaff,
		CreatedAt: now,
	}
}

// Principal returns the identity carried by the session.
// INVARIANT: Session fields are not mutated
func (s Session) Principal() account.Principal {
	return account.Principal{
		ID:       s.AccountID,
		Username: s.Username,
		Email:    s.Email,
		IsStaff:  s.IsStaff,
	}
}

// SessionStore keeps sessions keyed by an opaque cookie token.
type SessionStore interface {
	Create(ctx context.Context, s Session) (string, error)
	Get(ctx context.Context, token string) (Session, bool)
	Delete(ctx context.Context, token string) error
}

// MemorySessionStore is an in-process SessionStore.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

var _ SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemorySessionStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create stores a new session and returns the token.
// PRE: s.AccountID is non-empty
// POST: Session is stored, token is returned
func (ss *MemorySessionStore) Create(_ context.Context, s Session) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = ss.now()
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[token] = s
	return token, nil
}

// Get retrieves a session by token.
// PRE: token is non-empty
// POST: Returns session if present and not expired; expired sessions are dropped
func (ss *MemorySessionStore) Get(_ context.Context, token string) (Session, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	session, ok := ss.sessions[token]
	if !ok {
		return Session{}, false
	}
	if ss.now().Sub(session.CreatedAt) > ss.ttl {
		delete(ss.sessions, token)
		return Session{}, false
	}
	return session, true
}

// Delete removes a session by token.
// PRE: token is non-empty
// POST: Session with given token is removed
func (ss *MemorySessionStore) Delete(_ context.Context, token string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
	return nil
}

const sessionCookieName = "eventbook_session"

// SessionToken returns the session token sent by the client, if any.
func SessionToken(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Auth returns middleware that extracts the session from the cookie and sets the account in context.
// It does NOT block unauthenticated requests. Use RequireAuth or RequireStaff for that.
func Auth(sessions SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := SessionToken(r); token != "" {
				if session, ok := sessions.Get(r.Context(), token); ok {
					r = r.WithContext(ContextWithSession(r.Context(), session))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoginURL returns the login page URL that leads back to r after signing in.
func LoginURL(r *http.Request) string {
	return "/login?next=" + url.QueryEscape(r.URL.RequestURI())
}

// RequireAuth returns middleware that redirects unauthenticated requests to the login page.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSessionFromContext(r.Context()); !ok {
			http.Redirect(w, r, LoginURL(r), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff returns middleware that only lets staff accounts through.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, LoginURL(r), http.StatusSeeOther)
			return
		}
		if !session.IsStaff {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(accountContextKey).(Session)
	return session, ok
}

// PrincipalFromContext returns the caller's identity, anonymous when there is no session.
func PrincipalFromContext(ctx context.Context) account.Principal {
	session, ok := GetSessionFromContext(ctx)
	if !ok {
		return account.Principal{}
	}
	return session.Principal()
}

// ContextWithSession returns a context with the given session set.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, accountContextKey, sess)
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
