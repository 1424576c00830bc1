// Package auth issues and validates the HS256 bearer tokens protecting
// the HTTP surface. Tokens arrive either as an Authorization header or,
// for browser clients, as the access_token cookie. A present header
// decides alone, even when malformed; the cookie is consulted only
// when no header was sent.
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/phamhung075/4genthub-sub014/internal/domain"
)

// Issuer is the iss claim stamped on every token this service signs.
const Issuer = "agenthub"

// CookieName is the cookie carrying the access token for browser clients.
const CookieName = "access_token"

// Claims is the JWT payload of an access token.
type Claims struct {
	Scopes []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

// Token is an issued access token with its metadata, shaped like the
// token endpoint response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Service signs and verifies access tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService creates a token service. The TTL bounds every issued
// token's lifetime.
func NewService(secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth: signing secret must not be empty")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a token for the given user with the given scopes.
func (s *Service) Issue(userID string, scopes []string) (*Token, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("auth: %w: user id is required", domain.ErrValidation)
	}

	now := time.Now()
	claims := Claims{
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("auth: sign token: %w", err)
	}

	return &Token{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int(s.ttl.Seconds()),
	}, nil
}

// Validate parses and verifies a token string, returning its claims.
// Expired, malformed, or wrongly-signed tokens all fail.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return s.secret, nil
		},
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}
	return claims, nil
}

// TokenFromRequest extracts the bearer token from a request: the
// Authorization header when present, otherwise the access_token
// cookie. A header carrying anything but a Bearer token yields an
// empty string; the cookie never substitutes for a malformed header.
// An empty string means no usable token was presented.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		const prefix = "Bearer "
		if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
			return strings.TrimSpace(h[len(prefix):])
		}
		return ""
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
