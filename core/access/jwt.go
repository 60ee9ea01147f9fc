package access

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"
	"github.com/keeper-backend/keeper/core/logger"
)

// JwtMiddlewareBuilder is a helper builder for JwtMiddleware
type JwtMiddlewareBuilder struct {
	// Secret is the HS256 signing secret shared with the token issuer.
	Secret string
	// Issuer is the accepted issuer for the token. Empty accepts any issuer.
	Issuer string
}

type keeperClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// NewJwtMiddleware returns a middleware handler to validate
// JWT bearer token.
//
// Java-Web-Token (JWT) are accepted as "Authorization: Bearer"
// header or as "Keeper-JWT"-cookie.
//
// The token carries the caller identity as a numeric "user_id" claim.
// This is a final handler with regards to the bearer token: it returns
// http.StatusUnauthorized when a token is present but invalid or expired.
// Requests without any token pass through unauthenticated; the route
// handlers reject those where identity is required.
func NewJwtMiddleware(jmb *JwtMiddlewareBuilder) mux.MiddlewareFunc {

	if len(jmb.Secret) == 0 {
		panic("jwt middleware requires a secret")
	}
	secret := []byte(jmb.Secret)

	keyLookup := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := AuthorizationFromContext(r.Context())
			if auth != nil { // already authorized?
				h.ServeHTTP(w, r)
				return
			}

			tokenString := ""
			bearer := r.Header.Get("Authorization")
			if len(bearer) > 0 && bearer != "null" {
				if len(bearer) >= 8 && strings.ToLower(bearer[:7]) == "bearer " {
					tokenString = bearer[7:]
				} else {
					tokenString = bearer
				}
			} else if cookie, _ := r.Cookie("Keeper-JWT"); cookie != nil {
				tokenString = cookie.Value
			}
			if len(tokenString) == 0 {
				h.ServeHTTP(w, r) // no token no auth, moving on
				return
			}

			claims := keeperClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, keyLookup)
			if err != nil || !token.Valid ||
				(jmb.Issuer != "" && claims.Issuer != jmb.Issuer) ||
				claims.UserID == 0 {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			// now that we have authenticated the requester, we store their
			// identity in the context and the request logger
			ctx := ContextWithAuthorization(r.Context(), &Authorization{UserID: claims.UserID})
			ctx, _ = logger.ContextWithLoggerUserID(ctx, claims.UserID)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
