// Package account gates and executes irreversible account deletion.
package account

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/lexai/koma/internal/feed"
	"github.com/lexai/koma/internal/model"
	"github.com/lexai/koma/internal/session"
)

// ErrNotConfirmed is returned when the confirmation hook declines.
var ErrNotConfirmed = errors.New("account deletion not confirmed")

// ConfirmFunc asks the user to confirm the irreversible deletion.
type ConfirmFunc func() bool

// Manager coordinates deletion: confirmation, the external delete call and
// full session + feed teardown on success.
type Manager struct {
	sessions *session.Store
	feeds    *feed.Controller
	confirm  ConfirmFunc
	logger   zerolog.Logger
}

func NewManager(sessions *session.Store, feeds *feed.Controller, confirm ConfirmFunc, logger zerolog.Logger) *Manager {
	return &Manager{
		sessions: sessions,
		feeds:    feeds,
		confirm:  confirm,
		logger:   logger.With().Str("component", "account").Logger(),
	}
}

// Delete removes the account. Requires an authenticated session and an
// explicit confirmation. On failure the session stays authenticated; on
// success the session and all feed state are torn down before returning.
func (m *Manager) Delete(ctx context.Context) error {
	if !m.sessions.IsAuthenticated() {
		return model.ErrNotAuthenticated
	}
	if m.confirm != nil && !m.confirm() {
		return ErrNotConfirmed
	}

	if err := m.sessions.DeleteAccount(ctx); err != nil {
		return err
	}

	// DeleteAccount already notified subscribers; the explicit reset keeps
	// teardown complete even when no subscription is wired.
	m.feeds.Reset()
	m.logger.Info().Msg("account deleted and session torn down")
	return nil
}
