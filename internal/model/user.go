package model

import "errors"

// User is the authenticated identity as returned by the auth service.
// Immutable once fetched; it only goes away with the session (logout,
// token invalidation, account deletion).
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// SignupProfile carries the fields the signup endpoint expects.
// APIKey is an opaque provider key: it is forwarded once at signup and
// never inspected or persisted on this side.
type SignupProfile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	DOB      string `json:"dob"`
	Password string `json:"password"`
	APIKey   string `json:"api"`
}

var (
	// ErrInvalidCredentials is returned when login or signup is rejected by the auth service
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotAuthenticated is returned when an operation requires an authenticated session
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrLoginRequired is the local authorization gate: the action needs a
	// session and none exists, so no network call is made
	ErrLoginRequired = errors.New("please log in to access this section")

	// ErrUnavailable wraps transport-level failures (timeouts, refused
	// connections). The caller's affordance is always "try again".
	ErrUnavailable = errors.New("service unavailable")
)
