/*Package access provides utilities for access control
 */
package access

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// contextKey is the type for context keys. Go linter does not like plain strings
type contextKey string

// the predefined context key
const (
	contextKeyAuthorization contextKey = "_authorization_"
)

/*Authorization is a context object which stores the resolved caller
identity.

A caller is represented solely by a numeric user ID. How that identity is
issued is the token issuer's concern; this backend only validates the
credential and carries the ID through the request context.

Authorizations are added to a request context with

  ctx = access.ContextWithAuthorization(ctx, auth)

and retrieved with

  auth := access.AuthorizationFromContext(ctx)

Authorization objects are added to the context by the middleware
implementations in this package, depending on the bearer token in the
HTTP request.
*/
type Authorization struct {
	UserID int64    `json:"user_id"`
	Roles  []string `json:"roles,omitempty"`
}

// HasRole returns true if the authorization contains the requested role;
// otherwise it returns false.
func (a *Authorization) HasRole(role string) bool {
	if a == nil || a.Roles == nil {
		return false
	}
	for _, hasRole := range a.Roles {
		if role == hasRole {
			return true
		}
	}
	return false
}

// ContextWithAuthorization returns a new context with this authorization added to it
func ContextWithAuthorization(ctx context.Context, a *Authorization) context.Context {
	return context.WithValue(ctx, contextKeyAuthorization, a)
}

// AuthorizationFromContext retrieves an authorization from the context
func AuthorizationFromContext(ctx context.Context) *Authorization {
	a, ok := ctx.Value(contextKeyAuthorization).(*Authorization)
	if ok {
		return a
	}
	return nil
}

// UserIDFromContext returns the resolved caller identity, or false if the
// request is unauthenticated.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	a := AuthorizationFromContext(ctx)
	if a == nil || a.UserID == 0 {
		return 0, false
	}
	return a.UserID, true
}

// HandleAuthorizationRoute adds a route /authorization GET to the router
//
// The route returns the current authorization for the provided bearer token.
func HandleAuthorizationRoute(router *mux.Router) {
	router.HandleFunc("/authorization", func(w http.ResponseWriter, r *http.Request) {
		auth := AuthorizationFromContext(r.Context())
		if auth == nil {
			w.WriteHeader(http.StatusNoContent)
		} else {
			jsonData, _ := json.MarshalIndent(auth, "", " ")
			w.Header().Set("Content-Type", "application/json")
			w.Write(jsonData)
		}
	}).Methods(http.MethodGet)
}
