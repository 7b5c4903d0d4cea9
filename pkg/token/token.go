// Package token issues and verifies the RS256-signed access and refresh
// tokens used by the API. Access and refresh tokens use separate key pairs;
// a Service wraps exactly one of them.
package token

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the principal payload carried by both token kinds. The subject is
// the canonical string id of the user.
type Claims struct {
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Email      string `json:"email"`
	Nonce      string `json:"nonce"`
	jwt.RegisteredClaims
}

type Service struct {
	key  *rsa.PrivateKey
	life time.Duration
}

// NewService parses an RSA private key in PEM form. Callers must unescape any
// literal \n sequences before handing the key over.
func NewService(pemKey string, life time.Duration) (*Service, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	return &Service{key: key, life: life}, nil
}

// Life returns the configured token lifetime.
func (s *Service) Life() time.Duration {
	return s.life
}

// Issue signs the claims with the service key, stamping issuance time and
// expiry. The caller-provided subject, names, email and nonce pass through
// untouched.
func (s *Service) Issue(c Claims) (string, error) {
	now := time.Now()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(s.life))
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, c)
	signed, err := t.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded claims. Tokens
// signed with anything but RSA are rejected outright.
func (s *Service) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return &s.key.PublicKey, nil
	})
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Expiry extracts the expiry of a token without requiring it to still be
// valid. Used to bound blacklist retention; the zero time means the expiry
// could not be determined.
func (s *Service) Expiry(raw string) time.Time {
	claims := &Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(raw, claims)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// NewNonce returns a fresh random 16-byte value in hex, issued once per
// login so tokens from distinct sessions cannot be correlated.
func NewNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
