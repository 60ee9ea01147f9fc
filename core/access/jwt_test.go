package access

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.Claims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func jwtTestRouter(issuer string) *mux.Router {
	router := mux.NewRouter()
	router.Use(NewJwtMiddleware(&JwtMiddlewareBuilder{Secret: testSecret, Issuer: issuer}))
	router.HandleFunc("/whoami", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	return router
}

func doGet(router *mux.Router, header, cookie string) int {
	r := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	if cookie != "" {
		r.AddCookie(&http.Cookie{Name: "Keeper-JWT", Value: cookie})
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)
	return rec.Result().StatusCode
}

func TestJwtMiddlewareValidToken(t *testing.T) {
	router := jwtTestRouter("")
	token := signToken(t, testSecret, keeperClaims{
		UserID: 42,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	assert.Equal(t, http.StatusOK, doGet(router, "Bearer "+token, ""))
	// the token is also accepted without the Bearer prefix and as cookie
	assert.Equal(t, http.StatusOK, doGet(router, token, ""))
	assert.Equal(t, http.StatusOK, doGet(router, "", token))
}

func TestJwtMiddlewareNoToken(t *testing.T) {
	router := jwtTestRouter("")
	// no token passes through unauthenticated, the handler rejects
	assert.Equal(t, http.StatusUnauthorized, doGet(router, "", ""))
}

func TestJwtMiddlewareRejectsInvalidTokens(t *testing.T) {
	router := jwtTestRouter("keeper")
	expires := jwt.NewNumericDate(time.Now().Add(time.Hour))

	testCases := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"wrong secret", signToken(t, "other-secret", keeperClaims{
			UserID:           42,
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "keeper", ExpiresAt: expires},
		})},
		{"expired", signToken(t, testSecret, keeperClaims{
			UserID: 42,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "keeper",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})},
		{"wrong issuer", signToken(t, testSecret, keeperClaims{
			UserID:           42,
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "somebody else", ExpiresAt: expires},
		})},
		{"missing user id", signToken(t, testSecret, keeperClaims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "keeper", ExpiresAt: expires},
		})},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, doGet(router, "Bearer "+tc.token, ""))
		})
	}
}

func TestJwtMiddlewareRequiresSecret(t *testing.T) {
	assert.Panics(t, func() {
		NewJwtMiddleware(&JwtMiddlewareBuilder{})
	})
}
