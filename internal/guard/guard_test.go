package guard

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/lexai/koma/internal/session"
)

// fakeSessions drives the guard by hand: tests flip authed and replay
// status changes to subscribers.
type fakeSessions struct {
	authed    bool
	listeners []func(session.Status)
}

func (s *fakeSessions) IsAuthenticated() bool { return s.authed }

func (s *fakeSessions) Subscribe(fn func(session.Status)) {
	s.listeners = append(s.listeners, fn)
}

func (s *fakeSessions) change(authed bool) {
	s.authed = authed
	status := session.StatusUnauthenticated
	if authed {
		status = session.StatusAuthenticated
	}
	for _, fn := range s.listeners {
		fn(status)
	}
}

func TestGuard_DenyRemembersDestination(t *testing.T) {
	sessions := &fakeSessions{}
	g := New(sessions, zerolog.Nop())

	decision := g.Check("/koma")
	if decision.Allowed {
		t.Fatal("expected denial without a session")
	}
	if decision.RedirectTo != LoginDest {
		t.Errorf("redirect = %q, want %q", decision.RedirectTo, LoginDest)
	}

	sessions.change(true)
	if got := g.AfterLogin(); got != "/koma" {
		t.Errorf("after login = %q, want remembered /koma", got)
	}
	// The remembered destination is consumed.
	if got := g.AfterLogin(); got != DefaultDest {
		t.Errorf("second after login = %q, want default %q", got, DefaultDest)
	}
}

func TestGuard_AllowWhenAuthenticated(t *testing.T) {
	sessions := &fakeSessions{authed: true}
	g := New(sessions, zerolog.Nop())

	decision := g.Check("/koma")
	if !decision.Allowed {
		t.Fatal("expected access")
	}
	if decision.RedirectTo != "" {
		t.Errorf("redirect = %q, want none", decision.RedirectTo)
	}
}

func TestGuard_AfterLoginDefault(t *testing.T) {
	g := New(&fakeSessions{authed: true}, zerolog.Nop())

	if got := g.AfterLogin(); got != DefaultDest {
		t.Errorf("after login = %q, want %q", got, DefaultDest)
	}
}

func TestGuard_EvictsActiveViewOnSessionLoss(t *testing.T) {
	sessions := &fakeSessions{authed: true}
	g := New(sessions, zerolog.Nop())

	var evictedTo string
	g.SetOnEvict(func(redirectTo string) { evictedTo = redirectTo })

	if d := g.Check("/koma"); !d.Allowed {
		t.Fatal("expected access")
	}

	// Session dies while the protected view is active.
	sessions.change(false)

	if evictedTo != LoginDest {
		t.Errorf("evicted to %q, want %q", evictedTo, LoginDest)
	}
	// The interrupted destination is remembered for the next login.
	sessions.change(true)
	if got := g.AfterLogin(); got != "/koma" {
		t.Errorf("after re-login = %q, want /koma", got)
	}
}

func TestGuard_NoEvictWithoutActiveView(t *testing.T) {
	sessions := &fakeSessions{authed: true}
	g := New(sessions, zerolog.Nop())

	evicted := false
	g.SetOnEvict(func(string) { evicted = true })

	sessions.change(false)

	if evicted {
		t.Error("no eviction expected when no protected view is active")
	}
}
