// Package feed drives the per-tab gallery state machine: asynchronous
// fetches, epoch-guarded staleness discard and session-scoped teardown.
package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexai/koma/internal/api"
	"github.com/lexai/koma/internal/metrics"
	"github.com/lexai/koma/internal/model"
)

// Status is the fetch state of one tab.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// FetchFailedMessage is the generic user-facing message for a failed fetch.
const FetchFailedMessage = "Failed to load comics. Please try again."

// State is the feed state of one tab. Epoch increments on every fetch
// issued for the tab; a response is applied only when its epoch still
// matches, which is what guarantees the visible feed always reflects the
// most recently requested fetch.
type State struct {
	Status Status
	Items  []model.Artifact
	Err    string
	Epoch  uint64
}

// SessionSource is the slice of the session store the controller needs.
type SessionSource interface {
	IsAuthenticated() bool
	Token() string
}

// Controller orchestrates fetches for the four tabs. Each tab's state is
// independent; there is no request cancellation, only result discarding.
type Controller struct {
	content  api.ContentAPI
	sessions SessionSource
	metrics  *metrics.Collector
	logger   zerolog.Logger

	mu         sync.Mutex
	active     model.Tab
	states     map[model.Tab]*State
	generation uint64 // bumped on Reset; in-flight responses from an older generation are discarded
}

func NewController(content api.ContentAPI, sessions SessionSource, collector *metrics.Collector, logger zerolog.Logger) *Controller {
	return &Controller{
		content:  content,
		sessions: sessions,
		metrics:  collector,
		logger:   logger.With().Str("component", "feed").Logger(),
		active:   model.TabExplore,
		states:   make(map[model.Tab]*State),
	}
}

// ActiveTab returns the currently active tab.
func (c *Controller) ActiveTab() model.Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// State returns a copy of the tab's state. Tabs that were never activated
// report idle.
func (c *Controller) State(tab model.Tab) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.states[tab]
	if !ok {
		return State{Status: StatusIdle}
	}
	out := *st
	out.Items = append([]model.Artifact(nil), st.Items...)
	return out
}

// Activate switches to the tab and fetches it. Switching to likes or
// library without an authenticated session is rejected locally: the active
// tab and the target tab's state are left untouched and no network call is
// made.
func (c *Controller) Activate(ctx context.Context, tab model.Tab) error {
	if !tab.Valid() {
		return fmt.Errorf("activate: unknown tab %q", tab)
	}

	c.mu.Lock()
	if tab.RequiresAuth() && !c.sessions.IsAuthenticated() {
		c.mu.Unlock()
		c.logger.Debug().Str("tab", string(tab)).Msg("activation gated, no session")
		return model.ErrLoginRequired
	}
	c.active = tab
	c.mu.Unlock()

	return c.fetch(ctx, tab)
}

// Refresh re-issues the fetch for the active tab ("try again").
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	tab := c.active
	c.mu.Unlock()
	return c.fetch(ctx, tab)
}

// Reset discards every tab's state and returns to the explore tab. The
// generation bump guarantees any fetch still in flight is discarded when it
// lands, so stale authenticated-only data can never resurface after logout.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.states = make(map[model.Tab]*State)
	c.active = model.TabExplore
	c.logger.Debug().Uint64("generation", c.generation).Msg("feed state reset")
}

// fetch runs one request/apply cycle for the tab. The lock is not held
// across the network call; the epoch and generation captured at issue time
// decide whether the response may be applied.
func (c *Controller) fetch(ctx context.Context, tab model.Tab) error {
	c.mu.Lock()
	if tab.RequiresAuth() && !c.sessions.IsAuthenticated() {
		// The tab is (or just became) active without a session: surface the
		// gate as this tab's error state. No network call.
		st := c.ensureLocked(tab)
		st.Status = StatusError
		st.Err = model.ErrLoginRequired.Error()
		c.mu.Unlock()
		return model.ErrLoginRequired
	}

	st := c.ensureLocked(tab)
	st.Epoch++
	st.Status = StatusLoading
	st.Err = ""
	epoch := st.Epoch
	generation := c.generation
	tok := c.sessions.Token()
	c.mu.Unlock()

	start := time.Now()
	items, fetchErr := c.query(ctx, tab, tok)
	c.metrics.RecordFetchLatency(time.Since(start))

	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.states[tab]
	if !ok || cur.Epoch != epoch || c.generation != generation {
		// A newer fetch (or a teardown) superseded this one. Its eventual
		// result is authoritative; this one is dropped without touching
		// state.
		c.metrics.RecordStaleDiscard(string(tab))
		c.logger.Debug().
			Str("tab", string(tab)).
			Uint64("epoch", epoch).
			Msg("stale response discarded")
		return nil
	}

	if fetchErr != nil {
		cur.Status = StatusError
		cur.Err = FetchFailedMessage
		c.metrics.RecordFetchFailure(string(tab))
		c.logger.Warn().Str("tab", string(tab)).Err(fetchErr).Msg("fetch failed")
		return fmt.Errorf("fetch %s: %w", tab, fetchErr)
	}

	cur.Status = StatusSuccess
	cur.Items = items
	c.metrics.RecordFetchSuccess(string(tab))
	c.logger.Debug().
		Str("tab", string(tab)).
		Int("items", len(items)).
		Uint64("epoch", epoch).
		Msg("fetch applied")
	return nil
}

// query maps a tab to its content-service call. Item order is kept exactly
// as the service returned it.
func (c *Controller) query(ctx context.Context, tab model.Tab, tok string) ([]model.Artifact, error) {
	switch tab {
	case model.TabTop:
		return c.content.TopFeed(ctx)
	case model.TabLikes:
		return c.content.LikedFeed(ctx, tok)
	case model.TabLibrary:
		return c.content.LibraryFeed(ctx, tok)
	default:
		return c.content.ExploreFeed(ctx)
	}
}

func (c *Controller) ensureLocked(tab model.Tab) *State {
	st, ok := c.states[tab]
	if !ok {
		st = &State{Status: StatusIdle}
		c.states[tab] = st
	}
	return st
}

// MutateActive applies fn to one artifact of the active tab's items and
// returns an undo closure. The edit and its undo are atomic with respect to
// the controller lock; the undo is a no-op if a newer fetch or a reset
// replaced the items in the meantime.
func (c *Controller) MutateActive(artifactID string, fn func(*model.Artifact)) (rollback func(), ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, found := c.states[c.active]
	if !found {
		return nil, false
	}

	idx := -1
	for i := range st.Items {
		if st.Items[i].ID == artifactID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, false
	}

	prev := st.Items[idx]
	fn(&st.Items[idx])

	tab := c.active
	epoch := st.Epoch
	generation := c.generation

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		cur, stillThere := c.states[tab]
		if !stillThere || cur.Epoch != epoch || c.generation != generation {
			return
		}
		if idx < len(cur.Items) && cur.Items[idx].ID == artifactID {
			cur.Items[idx] = prev
		}
	}, true
}
