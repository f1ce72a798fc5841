package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ProvablyExpired reports whether the token is a JWT whose exp claim is in
// the past. The signature is NOT verified; only the identity service can
// truly validate a token. This is a cheap pre-check that lets restore skip
// the network round-trip for a token that cannot possibly be accepted.
// Opaque (non-JWT) tokens and tokens without an exp claim report false.
func ProvablyExpired(raw string, now time.Time) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.Before(now)
}
