// Package password implements the signup password policy as a pure,
// stateless predicate. It performs no I/O and never stores or hashes the
// candidate; credential handling belongs to the auth service.
package password

import (
	"errors"
	"strings"
	"unicode"
)

// SpecialChars is the accepted special-character set.
const SpecialChars = "!@#$%^&*"

// MinLength is the minimum accepted password length.
const MinLength = 8

var (
	// ErrPolicy is returned when one or more checks fail
	ErrPolicy = errors.New("password does not meet the requirements")

	// ErrMismatch is returned when the confirmation differs from the candidate
	ErrMismatch = errors.New("passwords do not match")
)

// Checks reports the five independent policy checks for one candidate.
type Checks struct {
	Length  bool
	Upper   bool
	Lower   bool
	Digit   bool
	Special bool
}

// Met reports whether every check passed.
func (c Checks) Met() bool {
	return c.Length && c.Upper && c.Lower && c.Digit && c.Special
}

// Validate evaluates the candidate against the policy.
func Validate(candidate string) Checks {
	c := Checks{
		Length: len(candidate) >= MinLength,
	}
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			c.Upper = true
		case unicode.IsLower(r):
			c.Lower = true
		case unicode.IsDigit(r):
			c.Digit = true
		case strings.ContainsRune(SpecialChars, r):
			c.Special = true
		}
	}
	return c
}

// Check validates the candidate and its confirmation in one call, returning
// ErrPolicy or ErrMismatch. Both must pass before a signup is submitted.
func Check(candidate, confirm string) error {
	if !Validate(candidate).Met() {
		return ErrPolicy
	}
	if candidate != confirm {
		return ErrMismatch
	}
	return nil
}
