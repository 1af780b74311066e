package oauth2

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrStateMissing  = errors.New("oauth state missing")
	ErrStateMismatch = errors.New("oauth state mismatch")
)

// StateClaims is what travels through the provider in the state parameter
type StateClaims struct {
	Nonce    string `json:"nonce"`
	Provider string `json:"prv"`
	jwt.RegisteredClaims
}

// StateSigner issues and verifies HS256 signed state values. The nonce in
// the claims is also set as a cookie so a state minted for one browser
// cannot be replayed from another.
type StateSigner struct {
	Secret []byte
	TTL    time.Duration
}

func NewStateSigner(secret []byte) *StateSigner {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			panic(err)
		}
	}
	return &StateSigner{Secret: secret, TTL: 10 * time.Minute}
}

// Issue returns the signed state and the nonce to pin in the browser
func (s *StateSigner) Issue(provider string) (state string, nonce string, err error) {
	nonce, err = randomNonce()
	if err != nil {
		return "", "", err
	}
	now := time.Now()
	claims := StateClaims{
		Nonce:    nonce,
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}
	state, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	return state, nonce, err
}

// Verify checks the signature, expiry, provider and the nonce held by the
// browser
func (s *StateSigner) Verify(state, provider, nonce string) error {
	if state == "" || nonce == "" {
		return ErrStateMissing
	}
	var claims StateClaims
	_, err := jwt.ParseWithClaims(state, &claims, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("invalid oauth state: %w", err)
	}
	if claims.Provider != provider || claims.Nonce != nonce {
		return ErrStateMismatch
	}
	return nil
}

func randomNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
