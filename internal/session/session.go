// Package session gives every browser its own state store. A cookie carries
// the session id; the store behind it is created on the first request of the
// session and closed once it sat idle for too long.
package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tenemo/sealed-vote/internal/logger"
	"github.com/tenemo/sealed-vote/internal/middleware/events"
	"github.com/tenemo/sealed-vote/internal/response"
	"github.com/tenemo/sealed-vote/internal/services"
	"github.com/tenemo/sealed-vote/internal/store"
)

// CookieName is the cookie holding the session id
const CookieName = "sealed_vote_session"

// DefaultMaxIdle is how long an unused session keeps its store open
const DefaultMaxIdle = time.Hour

const (
	contextKey   = "session"
	cookieMaxAge = 30 * 24 * 60 * 60
)

// Factory opens the store of session id. The context outlives the request
// that triggered it.
type Factory func(ctx context.Context, id string) (*store.Store, error)

// Session is one browser's view of the polls
type Session struct {
	ID    string
	Store *store.Store
	Polls *services.PollService

	lastSeen atomic.Int64
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// entry is a session that may still be opening
type entry struct {
	ready chan struct{}
	sess  *Session
	err   error
}

func (e *entry) opened() bool {
	select {
	case <-e.ready:
		return e.err == nil
	default:
		return false
	}
}

// Manager owns the open sessions
type Manager struct {
	factory Factory
	maxIdle time.Duration
	secure  bool
	log     *log.Logger

	mu       sync.Mutex
	sessions map[string]*entry
}

// Option configures a Manager
type Option func(*Manager)

// WithMaxIdle sets how long an unused session stays open
func WithMaxIdle(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.maxIdle = d
		}
	}
}

// WithSecureCookies marks the session cookie Secure
func WithSecureCookies(secure bool) Option {
	return func(m *Manager) { m.secure = secure }
}

// WithLogger replaces the session logger
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// NewManager creates a session manager opening stores through factory
func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		factory:  factory,
		maxIdle:  DefaultMaxIdle,
		log:      logger.WithContext("component", "session"),
		sessions: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns session id, opening its store on first use. Concurrent calls
// for a new id share one factory call.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if !ok {
		e = &entry{ready: make(chan struct{})}
		m.sessions[id] = e
	}
	m.mu.Unlock()

	if !ok {
		m.open(ctx, id, e)
	}

	select {
	case <-e.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if e.err != nil {
		return nil, e.err
	}
	e.sess.touch(time.Now())
	return e.sess, nil
}

func (m *Manager) open(ctx context.Context, id string, e *entry) {
	defer close(e.ready)

	s, err := m.factory(context.WithoutCancel(ctx), id)
	if err != nil {
		e.err = err
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		m.log.Error("Failed to open session", "session", id, "error", err)
		return
	}

	e.sess = &Session{
		ID:    id,
		Store: s,
		Polls: services.NewPollService(s),
	}
	m.log.Debug("Session opened", "session", id)
}

// Lookup returns an open session without creating it
func (m *Manager) Lookup(id string) (*Session, bool) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok || !e.opened() {
		return nil, false
	}
	return e.sess, true
}

// Len returns the number of open sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes the sessions idle for longer than the max idle time at now.
// Their state stays in storage and is restored when the cookie comes back.
func (m *Manager) Sweep(ctx context.Context, now time.Time) error {
	var expired []*Session

	m.mu.Lock()
	for id, e := range m.sessions {
		if e.opened() && e.sess.idleSince(now) > m.maxIdle {
			expired = append(expired, e.sess)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	if len(expired) > 0 {
		m.log.Info("Closing idle sessions", "count", len(expired))
	}
	return closeAll(ctx, expired)
}

// Run sweeps idle sessions until ctx is done
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.maxIdle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := m.Sweep(context.WithoutCancel(ctx), now); err != nil {
				m.log.Error("Failed to close idle sessions", "error", err)
			}
		}
	}
}

// Close closes every open session
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	entries := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	var open []*Session
	for _, e := range entries {
		select {
		case <-e.ready:
		case <-ctx.Done():
			return ctx.Err()
		}
		if e.err == nil {
			open = append(open, e.sess)
		}
	}

	m.log.Info("Closing sessions", "count", len(open))
	return closeAll(ctx, open)
}

func closeAll(ctx context.Context, sessions []*Session) error {
	var errs []error
	for _, sess := range sessions {
		if err := sess.Store.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Middleware resolves the session of the request, issuing a new cookie when
// the request carries none, and stores it for FromContext.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(CookieName)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CookieName, id, cookieMaxAge, "/", "", m.secure, true)

		sess, err := m.Get(c.Request.Context(), id)
		if err != nil {
			m.log.Error("Session unavailable", "request_id", events.RequestID(c), "error", err)
			response.InternalServerError(c, "Session unavailable")
			return
		}

		c.Set(contextKey, sess)
		c.Next()
	}
}

// FromContext returns the session Middleware resolved, nil outside of it
func FromContext(c *gin.Context) *Session {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*Session)
	return sess
}
