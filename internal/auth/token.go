package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken はセッショントークンの署名または有効期限が不正であることを表す。
var ErrInvalidToken = errors.New("invalid session token")

// TokenSigner はセッションIDをHS256で署名したトークンに変換する。
// Cookieには生のセッションIDではなくこのトークンを格納する。
type TokenSigner struct {
	key []byte
}

// NewTokenSigner はTokenSignerを生成する。
func NewTokenSigner(secret string) *TokenSigner {
	return &TokenSigner{key: []byte(secret)}
}

// Sign はセッションIDをjtiに、有効期限をexpに持つトークンを発行する。
func (s *TokenSigner) Sign(sessionID string, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        sessionID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Parse はトークンを検証してセッションIDを返す。
func (s *TokenSigner) Parse(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) {
			return s.key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
