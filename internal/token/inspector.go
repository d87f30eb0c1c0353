// Package token inspects JWT access tokens without verifying signatures or
// contacting the server. Everything here answers one question: can this token
// still be put on the wire, or does it need a refresh first?
package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryLeeway is subtracted from the token's expiry claim when evaluating
// expiry. It absorbs clock skew and in-flight latency so a request is not
// dispatched with a token that will expire mid-flight.
const ExpiryLeeway = 30 * time.Second

// Decode parses the token's claims without signature verification. The server
// is the sole authority on token validity; the client only needs the expiry
// claim. Returns ok=false for any structurally broken token (wrong segment
// count, bad base64, non-JSON payload) and never panics.
func Decode(raw string) (jwt.MapClaims, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}
	unverified, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, false
	}
	claims, ok := unverified.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}
	return claims, true
}

// IsExpired reports whether the token should be treated as expired. A missing,
// malformed, or exp-less token counts as expired; so does any token whose
// expiry falls within ExpiryLeeway of now.
func IsExpired(raw string) bool {
	return IsExpiredAt(raw, time.Now())
}

// IsExpiredAt is IsExpired against an explicit clock.
func IsExpiredAt(raw string, now time.Time) bool {
	claims, ok := Decode(raw)
	if !ok {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return !now.Before(exp.Time.Add(-ExpiryLeeway))
}
