package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	gSecret []byte
	gIssuer string
)

// Init настраивает проверку токенов. Провайдер идентичности внешний:
// сервис только проверяет подпись и достаёт идентификатор владельца.
func Init(cfg *Config) {
	gSecret = []byte(cfg.JWTSecret)
	gIssuer = cfg.Issuer
}

// VerifyToken проверяет bearer-токен запроса и возвращает
// идентификатор владельца (subject).
func VerifyToken(r *http.Request) (string, error) {
	authToken := r.Header.Get("Authorization")
	if authToken == "" {
		return "", fmt.Errorf("no authorization header")
	}
	authToken = strings.TrimPrefix(authToken, "Bearer ")

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if gIssuer != "" {
		opts = append(opts, jwt.WithIssuer(gIssuer))
	}

	token, err := jwt.Parse(authToken, func(t *jwt.Token) (interface{}, error) {
		return gSecret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject")
	}

	return subject, nil
}
