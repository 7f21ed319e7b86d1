package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/a-h/listingwriter/failure"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const CookieName = "listingwriter_session"

// Gate compares submitted passwords against the configured one.
type Gate struct {
	password []byte
}

func NewGate(password string) Gate {
	return Gate{password: []byte(password)}
}

func (g Gate) Check(password string) error {
	if len(g.password) == 0 || subtle.ConstantTimeCompare([]byte(password), g.password) != 1 {
		return failure.New(failure.Auth, "wrong password, try again")
	}
	return nil
}

// Session is created by a successful login and lives until it expires or the
// user logs out.
type Session struct {
	ID         string
	Authorized bool
	busy       atomic.Bool
}

// TryBegin marks the session as having a request in flight. It returns false
// if one is already running.
func (s *Session) TryBegin() bool {
	return s.busy.CompareAndSwap(false, true)
}

func (s *Session) End() {
	s.busy.Store(false)
}

type Sessions struct {
	cache *cache.Cache
}

func NewSessions(expiry time.Duration) *Sessions {
	return &Sessions{
		cache: cache.New(expiry, time.Hour),
	}
}

func (s *Sessions) Create() *Session {
	session := &Session{
		ID:         uuid.NewString(),
		Authorized: true,
	}
	s.cache.Set(session.ID, session, cache.DefaultExpiration)
	return session
}

func (s *Sessions) Get(id string) (*Session, bool) {
	if x, found := s.cache.Get(id); found {
		return x.(*Session), true
	}
	return nil, false
}

func (s *Sessions) Delete(id string) {
	s.cache.Delete(id)
}

func New(sessions *Sessions, next http.Handler) *Auth {
	return &Auth{
		Next:     next,
		Sessions: sessions,
	}
}

// Auth only passes requests with a known session to Next.
type Auth struct {
	Next     http.Handler
	Sessions *Sessions
}

type sessionContextKey int

const sessionKey sessionContextKey = 0

func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

func GetSession(r *http.Request) (session *Session, ok bool) {
	session, ok = r.Context().Value(sessionKey).(*Session)
	return
}

// SessionID reads the session from the cookie, falling back to the
// Authorization header.
func SessionID(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func (a *Auth) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session, ok := a.Sessions.Get(SessionID(r))
	if !ok || !session.Authorized {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	r = r.WithContext(WithSession(r.Context(), session))
	a.Next.ServeHTTP(w, r)
}
