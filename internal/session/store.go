// Package session owns the authenticated identity of the client: the opaque
// token, the current user and the status machine around them.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexai/koma/internal/api"
	"github.com/lexai/koma/internal/model"
	"github.com/lexai/koma/internal/token"
)

// Status is the session state. The invariant is status == StatusAuthenticated
// exactly when a token is held, a user is held and the token passed the
// current-identity check.
type Status int

const (
	StatusUnauthenticated Status = iota
	StatusAuthenticating
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Store holds the session state. The persisted token is written only here;
// no other component touches the token store.
type Store struct {
	auth   api.AuthAPI
	tokens token.Store
	logger zerolog.Logger

	mu        sync.Mutex
	status    Status
	user      *model.User
	token     string
	listeners []func(Status)
}

func NewStore(auth api.AuthAPI, tokens token.Store, logger zerolog.Logger) *Store {
	return &Store{
		auth:   auth,
		tokens: tokens,
		logger: logger.With().Str("component", "session").Logger(),
	}
}

// Status returns the current session status.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// User returns the current identity, or nil when unauthenticated.
func (s *Store) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// IsAuthenticated reports whether a validated session exists.
func (s *Store) IsAuthenticated() bool {
	return s.Status() == StatusAuthenticated
}

// Token returns the current token for authenticated API calls. Empty when
// no session exists.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Subscribe registers a listener invoked synchronously after every status
// change, in change order. Used by the route guard and the feed controller.
func (s *Store) Subscribe(fn func(Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// setStatus mutates state under the lock and notifies listeners after
// releasing it, so listeners can call back into the store.
func (s *Store) setStatus(status Status, user *model.User, tok string) {
	s.mu.Lock()
	changed := s.status != status
	s.status = status
	s.user = user
	s.token = tok
	listeners := make([]func(Status), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn(status)
	}
}

// Restore attempts to resume a persisted session at startup. Any failure is
// absorbed into the unauthenticated state: a stale token and "never logged
// in" are deliberately indistinguishable to the caller.
func (s *Store) Restore(ctx context.Context) {
	raw, err := s.tokens.Load(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("token load failed, starting unauthenticated")
		s.setStatus(StatusUnauthenticated, nil, "")
		return
	}
	if raw == "" {
		s.setStatus(StatusUnauthenticated, nil, "")
		return
	}

	if token.ProvablyExpired(raw, time.Now()) {
		s.logger.Debug().Msg("persisted token expired, clearing")
		s.clearToken(ctx)
		s.setStatus(StatusUnauthenticated, nil, "")
		return
	}

	s.setStatus(StatusAuthenticating, nil, raw)

	user, err := s.auth.CurrentUser(ctx, raw)
	if err != nil {
		s.logger.Debug().Err(err).Msg("restore validation failed, clearing token")
		s.clearToken(ctx)
		s.setStatus(StatusUnauthenticated, nil, "")
		return
	}

	s.logger.Info().Str("username", user.Username).Msg("session restored")
	s.setStatus(StatusAuthenticated, user, raw)
}

// Login authenticates against the auth service. On failure the session is
// unauthenticated and the reason is surfaced to the caller.
func (s *Store) Login(ctx context.Context, identifier, password string) error {
	s.setStatus(StatusAuthenticating, nil, "")

	result, err := s.auth.Login(ctx, identifier, password)
	if err != nil {
		s.setStatus(StatusUnauthenticated, nil, "")
		return credentialErr(err)
	}

	return s.establish(ctx, result)
}

// Signup registers a new account and authenticates it. The profile,
// including the provider API key, is forwarded exactly once.
func (s *Store) Signup(ctx context.Context, profile model.SignupProfile) error {
	s.setStatus(StatusAuthenticating, nil, "")

	result, err := s.auth.Signup(ctx, profile)
	if err != nil {
		s.setStatus(StatusUnauthenticated, nil, "")
		return credentialErr(err)
	}

	return s.establish(ctx, result)
}

// establish finishes login/signup: resolves the user (fetching it when the
// auth response omitted it), persists the token and flips to authenticated.
func (s *Store) establish(ctx context.Context, result *api.AuthResult) error {
	user := result.User
	if user == nil {
		fetched, err := s.auth.CurrentUser(ctx, result.Token)
		if err != nil {
			s.setStatus(StatusUnauthenticated, nil, "")
			return fmt.Errorf("fetch current user: %w", err)
		}
		user = fetched
	}

	if err := s.tokens.Save(ctx, result.Token); err != nil {
		// The in-memory session is still good; only restore-after-restart
		// is affected.
		s.logger.Warn().Err(err).Msg("token persist failed")
	}

	s.logger.Info().Str("username", user.Username).Msg("authenticated")
	s.setStatus(StatusAuthenticated, user, result.Token)
	return nil
}

// Logout tears the session down. Local teardown is unconditional and
// synchronous; the server-side invalidation is best effort and any error
// there is logged, never surfaced.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	raw := s.token
	s.mu.Unlock()

	s.clearToken(ctx)
	s.setStatus(StatusUnauthenticated, nil, "")

	if raw == "" {
		return
	}
	if err := s.auth.Logout(ctx, raw); err != nil {
		s.logger.Warn().Err(err).Msg("server-side logout failed")
	}
}

// DeleteAccount irreversibly deletes the account. On failure the session is
// left authenticated; on success local teardown matches Logout.
func (s *Store) DeleteAccount(ctx context.Context) error {
	s.mu.Lock()
	if s.status != StatusAuthenticated {
		s.mu.Unlock()
		return model.ErrNotAuthenticated
	}
	raw := s.token
	s.mu.Unlock()

	if err := s.auth.DeleteAccount(ctx, raw); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	s.clearToken(ctx)
	s.setStatus(StatusUnauthenticated, nil, "")
	s.logger.Info().Msg("account deleted")
	return nil
}

func (s *Store) clearToken(ctx context.Context) {
	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("token clear failed")
	}
}

// credentialErr maps an auth-service rejection onto ErrInvalidCredentials,
// keeping the service's message. Transport failures pass through untouched.
func credentialErr(err error) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && (apiErr.Status == 400 || apiErr.Status == 401) {
		return fmt.Errorf("%w: %s", model.ErrInvalidCredentials, apiErr.Message)
	}
	return err
}
