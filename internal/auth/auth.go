// Package auth verifies bearer tokens issued by the identity provider and
// exposes the realm roles they carry as ROLE_* authorities.
package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MikeMC777/product-catalog/internal/config"
)

const (
	RoleManager = "ROLE_MANAGER"
	RoleUser    = "ROLE_USER"
	RoleAdmin   = "ROLE_ADMIN"
)

var (
	ErrNoKey        = errors.New("auth: no verification key configured")
	ErrInvalidToken = errors.New("auth: invalid token")
)

type RealmAccess struct {
	Roles []string `json:"roles"`
}

type Claims struct {
	RealmAccess       RealmAccess `json:"realm_access"`
	PreferredUsername string      `json:"preferred_username,omitempty"`
	jwt.RegisteredClaims
}

// Authorities maps realm roles to ROLE_<UPPER> names.
func (c *Claims) Authorities() []string {
	out := make([]string, 0, len(c.RealmAccess.Roles))
	for _, r := range c.RealmAccess.Roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, "ROLE_"+strings.ToUpper(r))
	}
	return out
}

func (c *Claims) HasAnyRole(roles ...string) bool {
	for _, have := range c.Authorities() {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

type Verifier struct {
	hmacSecret []byte
	rsaKey     *rsa.PublicKey
	parser     *jwt.Parser
}

// NewVerifier accepts HS256 tokens when a shared secret is configured and
// RS256 tokens when a PEM public key file is configured.
func NewVerifier(cfg config.JWT) (*Verifier, error) {
	var (
		secret []byte
		pub    *rsa.PublicKey
	)
	if cfg.HMACSecret != "" {
		secret = []byte(cfg.HMACSecret)
	}
	if cfg.PublicKeyFile != "" {
		raw, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt public key: %w", err)
		}
		if pub, err = jwt.ParseRSAPublicKeyFromPEM(raw); err != nil {
			return nil, fmt.Errorf("parse jwt public key: %w", err)
		}
	}
	return newVerifier(secret, pub, cfg.Issuer)
}

func newVerifier(secret []byte, pub *rsa.PublicKey, issuer string) (*Verifier, error) {
	var methods []string
	if len(secret) > 0 {
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}
	if pub != nil {
		methods = append(methods, jwt.SigningMethodRS256.Alg())
	}
	if len(methods) == 0 {
		return nil, ErrNoKey
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods(methods), jwt.WithExpirationRequired()}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &Verifier{hmacSecret: secret, rsaKey: pub, parser: jwt.NewParser(opts...)}, nil
}

func (v *Verifier) key(t *jwt.Token) (any, error) {
	switch t.Method.(type) {
	case *jwt.SigningMethodHMAC:
		return v.hmacSecret, nil
	case *jwt.SigningMethodRSA:
		return v.rsaKey, nil
	}
	return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
}

// Verify checks signature, expiry and issuer and returns the claims.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := v.parser.ParseWithClaims(raw, claims, v.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
