/*Package rest provides the JSON request and response plumbing shared by all
route handlers: a client-error type, a centralized error responder and
body decoding with a size limit.
*/
package rest

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// request bodies larger than this are rejected with a 400
const maxBodyBytes = 1 << 20

type errorBody struct {
	Message string `json:"message"`
}

// WriteJSON writes v as JSON response body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	jsonData, err := json.MarshalWithOption(v, json.DisableHTMLEscape())
	if err != nil {
		http.Error(w, "Error 4601", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(jsonData)
}

// WriteError is the single responder for handler failures. A *rest.Error
// maps to its carried status and message; everything else is logged with
// the request logger and mapped to a generic 500. No internals leak to the
// caller.
func WriteError(w http.ResponseWriter, rlog *logrus.Entry, err error) {
	var clientErr *Error
	if errors.As(err, &clientErr) {
		WriteJSON(w, clientErr.Status, errorBody{Message: clientErr.Message})
		return
	}
	rlog.WithError(err).Errorf("Error 4602: internal error")
	WriteJSON(w, http.StatusInternalServerError, errorBody{Message: "internal server error"})
}

// Decode reads the request body into v. Broken or oversized JSON yields a
// client error.
func Decode(r *http.Request, v interface{}) error {
	_, err := DecodeRaw(r, v)
	return err
}

// DecodeRaw is like Decode but returns the raw body as well, for handlers
// that additionally run schema validation on the untyped JSON.
func DecodeRaw(r *http.Request, v interface{}) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, BadRequest("cannot read request body")
	}
	if len(body) > maxBodyBytes {
		return nil, BadRequest("request body too large")
	}
	if len(body) == 0 {
		return nil, BadRequest("request body is required")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return nil, BadRequest("invalid JSON in request body")
	}
	return body, nil
}
