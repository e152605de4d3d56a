// Package auth implements the HMAC-signed credential tokens that gate
// privileged operations and authenticate calls to the invoice service.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrInvalidToken covers every verification failure: malformed token,
	// bad signature, expiry. The cause is logged server-side, never leaked.
	ErrInvalidToken = errors.New("invalid auth token")
	// ErrDenied is returned when a valid token carries the wrong role.
	// Distinct from ErrInvalidToken so handlers can answer 403 vs 401.
	ErrDenied = errors.New("role not permitted")
)

// Claims is the payload embedded in a token.
type Claims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// TokenCodec issues and verifies HMAC-SHA256 signed tokens of the form
// base64(subject:role:expiresUnix:signature).
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec creates a codec with the given signing secret and token
// lifetime. A non-positive ttl defaults to 24h.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue generates a signed token for subject with the given role.
func (c *TokenCodec) Issue(subject, role string) string {
	expires := c.now().Add(c.ttl).Unix()
	payload := fmt.Sprintf("%s:%s:%d", subject, role, expires)
	token := payload + ":" + c.sign(payload)
	return base64.StdEncoding.EncodeToString([]byte(token))
}

// Verify checks the token's shape, signature and expiry and returns its
// claims. Every failure mode collapses into ErrInvalidToken.
func (c *TokenCodec) Verify(token string) (Claims, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != 4 {
		return Claims{}, ErrInvalidToken
	}

	payload := strings.Join(parts[:3], ":")
	if !hmac.Equal([]byte(c.sign(payload)), []byte(parts[3])) {
		return Claims{}, ErrInvalidToken
	}

	expires, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	if time.Unix(expires, 0).Before(c.now()) {
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		Subject:   parts[0],
		Role:      parts[1],
		ExpiresAt: time.Unix(expires, 0),
	}, nil
}

// RequireRole verifies the token and checks its role claim. It returns
// ErrInvalidToken for verification failures and ErrDenied for a role
// mismatch, so the two outcomes stay distinguishable for the caller.
func (c *TokenCodec) RequireRole(token, role string) (Claims, error) {
	claims, err := c.Verify(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.Role != role {
		return Claims{}, ErrDenied
	}
	return claims, nil
}

func (c *TokenCodec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
