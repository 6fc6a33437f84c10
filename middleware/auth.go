package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jxstanford/bokeh/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	UserIDKey   contextKey = "userID"
	UsernameKey contextKey = "username"
)

// Auth validates HMAC-signed JWTs with a shared secret.
type Auth struct {
	Secret string
}

func NewAuth(secret string) *Auth {
	return &Auth{Secret: secret}
}

func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Browsers cannot set headers on WebSocket requests, so the query string wins.
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			tokenString = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}

		if tokenString == "" {
			http.Error(w, "Unauthorized: No token provided", http.StatusUnauthorized)
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			if a.Secret == "" {
				logger.Sugar.Error("SUPABASE_JWT_SECRET environment variable not set")
				return nil, fmt.Errorf("server is not configured to validate JWTs")
			}
			return []byte(a.Secret), nil
		})
		if err != nil || !token.Valid {
			logger.Sugar.Infof("Invalid token: %v", err)
			http.Error(w, "Unauthorized: Invalid or expired token", http.StatusUnauthorized)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			http.Error(w, "Unauthorized: Could not parse token claims", http.StatusUnauthorized)
			return
		}
		userID, ok := claims["sub"].(string)
		if !ok || userID == "" {
			http.Error(w, "Unauthorized: User ID (sub) claim is missing or invalid", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		ctx = context.WithValue(ctx, UsernameKey, usernameFromClaims(claims, userID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func usernameFromClaims(claims jwt.MapClaims, fallback string) string {
	for _, key := range []string{"username", "email"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return fallback
}
