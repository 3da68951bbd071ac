package jwtinfra

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-notify-nosql/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer   = "go-notify"
	audience = "notify-api"
	leeway   = 30 * time.Second
)

var errUnknownKey = errors.New("token signed with an unknown key")

// Claims is the access token payload.
type Claims struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claims checks. A token without a session
// cannot be revoked, so it is refused.
func (c Claims) Validate() error {
	if c.UserID == "" || c.SessionID == "" {
		return errors.New("token is missing user or session")
	}
	return nil
}

// Provider signs and verifies RS256 access tokens. Tokens carry the key's
// thumbprint as kid so a rotated key fails fast instead of on signature.
type Provider struct {
	key    *rsa.PrivateKey
	kid    string
	expiry time.Duration
	now    func() time.Time
}

// New builds a provider around an in-memory key.
func New(key *rsa.PrivateKey, expiry time.Duration) (*Provider, error) {
	kid, err := thumbprint(&key.PublicKey)
	if err != nil {
		return nil, err
	}
	return &Provider{key: key, kid: kid, expiry: expiry, now: time.Now}, nil
}

// NewProvider loads the PEM key pair named in cfg. The public key must be the
// private key's pair.
func NewProvider(cfg *config.Config) (*Provider, error) {
	privPEM, err := os.ReadFile(cfg.JWTPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	pubPEM, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	if !key.PublicKey.Equal(pub) {
		return nil, errors.New("public key does not match private key")
	}
	return New(key, cfg.JWTExpiry)
}

func thumbprint(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	sum := sha256.Sum256(der)
	return base64.RawURLEncoding.EncodeToString(sum[:12]), nil
}

func (p *Provider) Sign(userID, role, sessionID string) (string, error) {
	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, Claims{
		UserID:    userID,
		Role:      role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	})
	token.Header["kid"] = p.kid
	return token.SignedString(p.key)
}

func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if kid, _ := t.Header["kid"].(string); kid != p.kid {
			return nil, errUnknownKey
		}
		return &p.key.PublicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
