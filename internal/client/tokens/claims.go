package tokens

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the part of the access token the client cares about.
type Claims struct {
	UserID    string
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at now. Tokens
// without an exp claim never expire from the client's point of view.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ParseClaims decodes the access token payload without verifying the
// signature; the client has no key and the backend stays the authority.
func ParseClaims(access string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, mc); err != nil {
		return Claims{}, fmt.Errorf("parse access token: %w", err)
	}

	var c Claims
	switch v := mc["user_id"].(type) {
	case string:
		c.UserID = v
	case float64:
		c.UserID = strconv.FormatInt(int64(v), 10)
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}
