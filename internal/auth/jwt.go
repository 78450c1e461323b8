package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims bind a bearer to one anonymous conversation.
type Claims struct {
	ChatID uint `json:"chatId"`
	jwt.RegisteredClaims
}

func GenerateConversationToken(secret string, chatID uint, duration time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		ChatID: chatID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseConversationToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.ChatID != 0 {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
