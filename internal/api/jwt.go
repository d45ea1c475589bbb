package api

import (
	crand "crypto/rand"
	"errors"
	"time"

	"github.com/ericogr/duel-arena/internal/logging"

	"github.com/golang-jwt/jwt/v5"
)

// actorClaims identifies the calling actor. Subject is the actor id.
type actorClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// TokenVerifier validates HS256 bearer tokens issued by the account service.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier returns a verifier for secret. An empty secret gets a
// random in-memory one, which is only useful for local development.
func NewTokenVerifier(secret string) (*TokenVerifier, error) {
	if secret != "" {
		return &TokenVerifier{secret: []byte(secret)}, nil
	}
	dev := make([]byte, 32)
	if _, err := crand.Read(dev); err != nil {
		return nil, errors.New("failed to generate dev token secret")
	}
	logging.Warn("auth.jwt_secret not set; using an ephemeral secret", nil, nil)
	return &TokenVerifier{secret: dev}, nil
}

// Issue signs a token for actorID. Used by tests and local tooling.
func (v *TokenVerifier) Issue(actorID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := actorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *TokenVerifier) parse(token string) (*actorClaims, error) {
	claims := &actorClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
