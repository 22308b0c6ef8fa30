// Package transport defines the pluggable HTTP collaborator (spec §4.5): a
// synchronous request/response primitive the upload state machine drives,
// plus a net/http-backed default implementation.
package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
)

var (
	// ErrConnect means the transport did not reach the server at all.
	ErrConnect = errors.New("transport: could not reach server")
	// ErrClient wraps a 4xx response.
	ErrClient = errors.New("transport: client error response")
	// ErrServer wraps a 5xx response.
	ErrServer = errors.New("transport: server error response")
)

// Response is the terminal result of a request: redirects have already been
// followed by the time the caller sees this.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Transport issues a single request and returns its terminal response.
//
// Do returns a non-nil *Response whenever the server was reached at all --
// including on ErrClient/ErrServer -- so callers can inspect the status and
// headers of a 4xx/5xx response without a second round-trip. Only ErrConnect
// comes back with a nil Response.
type Transport interface {
	Do(ctx context.Context, method, urlSuffix string, header http.Header, body io.Reader) (*Response, error)
}
