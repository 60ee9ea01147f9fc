package rest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestWriteErrorClientError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, logrus.NewEntry(logrus.New()), NotFound("movie with id %d not found", 12))

	assert.Equal(t, http.StatusNotFound, rec.Result().StatusCode)
	assert.JSONEq(t, `{"message":"movie with id 12 not found"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Result().Header.Get("Content-Type"))
}

func TestWriteErrorWrappedClientError(t *testing.T) {
	rec := httptest.NewRecorder()
	err := fmt.Errorf("handler: %w", Forbidden("not authorized to update this property"))
	WriteError(rec, logrus.NewEntry(logrus.New()), err)

	assert.Equal(t, http.StatusForbidden, rec.Result().StatusCode)
	assert.JSONEq(t, `{"message":"not authorized to update this property"}`, rec.Body.String())
}

func TestWriteErrorInternal(t *testing.T) {
	log := logrus.New()
	var buf bytes.Buffer
	log.SetOutput(&buf)

	rec := httptest.NewRecorder()
	WriteError(rec, logrus.NewEntry(log), errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Result().StatusCode)
	// internals go into the log, not the response
	assert.JSONEq(t, `{"message":"internal server error"}`, rec.Body.String())
	assert.Contains(t, buf.String(), "connection refused")
	assert.NotContains(t, rec.Body.String(), "pq:")
}

func TestDecode(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"Heat"}`))
	var p payload
	assert.NoError(t, Decode(r, &p))
	assert.Equal(t, "Heat", p.Title)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":`))
	err := Decode(r, &payload{})
	var clientErr *Error
	assert.ErrorAs(t, err, &clientErr)
	assert.Equal(t, http.StatusBadRequest, clientErr.Status)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	err = Decode(r, &payload{})
	assert.ErrorAs(t, err, &clientErr)
	assert.Equal(t, "request body is required", clientErr.Message)

	huge := io.MultiReader(strings.NewReader(`{"title":"`), strings.NewReader(strings.Repeat("x", maxBodyBytes)), strings.NewReader(`"}`))
	r = httptest.NewRequest(http.MethodPost, "/", huge)
	err = Decode(r, &payload{})
	assert.ErrorAs(t, err, &clientErr)
	assert.Equal(t, "request body too large", clientErr.Message)
}

func TestDecodeRawReturnsBody(t *testing.T) {
	body := `{"rating":3}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var v map[string]interface{}
	raw, err := DecodeRaw(r, &v)
	assert.NoError(t, err)
	assert.Equal(t, body, string(raw))
}

func TestWriteJSONDisablesHTMLEscape(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, map[string]string{"link": "https://imdb.com/?a=1&b=2"})
	assert.Contains(t, rec.Body.String(), "a=1&b=2")
}
