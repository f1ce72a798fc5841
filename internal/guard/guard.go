// Package guard gates entry to protected destinations based on session
// state, remembers the originally requested destination and evicts the
// viewer the moment the session dies under an active protected view.
package guard

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/lexai/koma/internal/session"
)

const (
	// LoginDest is where denied requests are redirected.
	LoginDest = "/login"

	// DefaultDest is the protected destination used after login when no
	// destination was remembered.
	DefaultDest = "/koma"
)

// Sessions is the slice of the session store the guard needs.
type Sessions interface {
	IsAuthenticated() bool
	Subscribe(func(session.Status))
}

// Decision is the outcome of a guard check.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// Guard re-evaluates access on every session status change, not just at
// entry: an authenticated view whose session lapses is evicted immediately.
type Guard struct {
	sessions Sessions
	logger   zerolog.Logger

	mu         sync.Mutex
	remembered string
	current    string // active protected destination, empty when none
	onEvict    func(redirectTo string)
}

func New(sessions Sessions, logger zerolog.Logger) *Guard {
	g := &Guard{
		sessions: sessions,
		logger:   logger.With().Str("component", "guard").Logger(),
	}
	sessions.Subscribe(g.onStatusChange)
	return g
}

// Check decides whether the destination may be rendered. A denial
// remembers the destination so a later login can return to it.
func (g *Guard) Check(dest string) Decision {
	if g.sessions.IsAuthenticated() {
		g.mu.Lock()
		g.current = dest
		g.mu.Unlock()
		return Decision{Allowed: true}
	}

	g.mu.Lock()
	g.remembered = dest
	g.mu.Unlock()
	g.logger.Debug().Str("dest", dest).Msg("access denied, redirecting to login")
	return Decision{Allowed: false, RedirectTo: LoginDest}
}

// AfterLogin returns the destination to navigate to once authentication
// succeeds: the remembered one if any, the default otherwise. The
// remembered destination is consumed.
func (g *Guard) AfterLogin() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.remembered != "" {
		dest := g.remembered
		g.remembered = ""
		return dest
	}
	return DefaultDest
}

// SetOnEvict registers the callback fired when an active protected view
// loses its session.
func (g *Guard) SetOnEvict(fn func(redirectTo string)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onEvict = fn
}

func (g *Guard) onStatusChange(status session.Status) {
	if status == session.StatusAuthenticated {
		return
	}

	g.mu.Lock()
	current := g.current
	g.current = ""
	if current != "" {
		g.remembered = current
	}
	fn := g.onEvict
	g.mu.Unlock()

	if current == "" {
		return
	}
	g.logger.Debug().Str("dest", current).Msg("session lost under protected view, evicting")
	if fn != nil {
		fn(LoginDest)
	}
}
