// Package auth issues and verifies the bearer tokens that identify a
// principal to the HTTP API.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for malformed, tampered or foreign tokens.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrExpiredToken is returned for tokens past their expiry.
	ErrExpiredToken = errors.New("auth: token expired")
)

const (
	signingMethod = "HS256"
	// DefaultTTL is the token lifetime used when Config.TTL is zero.
	DefaultTTL = 12 * time.Hour
)

// Identity is the principal carried by a token. DocumentID travels as the subject.
type Identity struct {
	DocumentID string
	Name       string
	Role       string
}

type claims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
	Role string `json:"role"`
}

// Config holds the shared secret and claim expectations.
type Config struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

func (c Config) normalize() (Config, error) {
	if len(c.Secret) == 0 {
		return c, errors.New("auth: secret is required")
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c, nil
}

// Issuer signs tokens for identities.
type Issuer struct {
	cfg Config
}

// NewIssuer creates an issuer. The secret is required.
func NewIssuer(cfg Config) (*Issuer, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	return &Issuer{cfg: cfg}, nil
}

// Issue signs a token for identity and returns it with its expiry.
func (i *Issuer) Issue(identity Identity) (string, time.Time, error) {
	if strings.TrimSpace(identity.DocumentID) == "" {
		return "", time.Time{}, errors.New("auth: document id is required")
	}
	if strings.TrimSpace(identity.Role) == "" {
		return "", time.Time{}, errors.New("auth: role is required")
	}

	now := i.cfg.Now()
	expiresAt := now.Add(i.cfg.TTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   identity.DocumentID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Name: identity.Name,
		Role: identity.Role,
	})

	signed, err := token.SignedString(i.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verifier validates tokens signed by an Issuer sharing the same Config.
type Verifier struct {
	cfg Config
}

// NewVerifier creates a verifier. The secret is required.
func NewVerifier(cfg Config) (*Verifier, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	return &Verifier{cfg: cfg}, nil
}

// Verify parses token and returns the identity it carries.
func (v *Verifier) Verify(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.cfg.Now),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return v.cfg.Secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, mapJWTError(err)
	}

	if strings.TrimSpace(parsed.Subject) == "" || strings.TrimSpace(parsed.Role) == "" {
		return Identity{}, fmt.Errorf("%w: missing subject or role", ErrInvalidToken)
	}
	return Identity{DocumentID: parsed.Subject, Name: parsed.Name, Role: parsed.Role}, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return fmt.Errorf("%w: %w", ErrExpiredToken, err)
	}
	return fmt.Errorf("%w: %w", ErrInvalidToken, err)
}
