package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/pkg/errors"
)

const tokenType = "access"

var (
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

func issueToken(secret, sessionID string, expiresAt time.Time) (string, time.Time, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sessionID,
		"exp": expiresAt.Unix(),
		"iat": time.Now().Unix(),
		"typ": tokenType,
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign session token")
	}
	return signed, expiresAt, nil
}

func parseToken(secret, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if ve, ok := err.(*jwt.ValidationError); ok && ve.Errors&jwt.ValidationErrorExpired != 0 {
		return "", ErrTokenExpired
	}
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if typ, _ := claims["typ"].(string); typ != tokenType {
		return "", ErrInvalidToken
	}
	id, _ := claims["sub"].(string)
	if id == "" {
		return "", ErrInvalidToken
	}
	return id, nil
}
