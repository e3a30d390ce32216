// Package api is the thin gin-gonic HTTP adapter over searchctl's core
// packages: the admin surface (index lifecycle, reindex, rollback, eval,
// benchmark) and the public search surface. Handlers only parse parameters
// and map error kinds to status codes; every decision is made by the core
// packages they call into.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/antflydb/searchctl/internal/apperr"
)

// Envelope is the response wrapper every admin and search endpoint returns:
// {code, message, data, timestamp}.
type Envelope struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

func envelope(code int, message string, data any) Envelope {
	return Envelope{Code: code, Message: message, Data: data, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

// ok writes a 200 envelope carrying data.
func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, envelope(http.StatusOK, "ok", data))
}

// fail maps err's apperr.Kind to a status code and writes an error
// envelope.
func fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	c.JSON(status, envelope(status, err.Error(), gin.H{"kind": string(kind)}))
}

// badRequest writes a 400 envelope for a request-shape error that never
// reached a core package (e.g. an unparseable query parameter).
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope(http.StatusBadRequest, message, nil))
}
