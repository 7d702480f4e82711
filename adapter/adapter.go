// Package adapter defines Quilt's server-adapter contract (spec.md
// §4.12) and the two concrete adapters a deployment needs: a
// single-shot CLI adapter and a long-running HTTP adapter.
//
// Grounded on original_source/libquilt/libquilt-sapi.h's QUILTIMPL
// vtable (getenv/getparam/put/vprintf/header/headerf/begin/end).
package adapter

import (
	"fmt"

	"github.com/quiltlod/quilt/request"
)

// Adapter is the front-end contract every transport implements so the
// pipeline can stay transport-agnostic, the Go analogue of QUILTIMPL.
type Adapter interface {
	// Getenv returns a CGI-style environment variable, e.g. "REQUEST_METHOD".
	Getenv(name string) (string, bool)
	// Getparam returns the first value of a query parameter.
	Getparam(name string) (string, bool)
	// GetparamMulti returns every value of a repeated query parameter.
	GetparamMulti(name string) ([]string, bool)
	// Put writes response body bytes, sending the header/body
	// separator on its first call.
	Put(b []byte) error
	// Vprintf writes formatted response body bytes, same separator rule as Put.
	Vprintf(format string, args ...any) error
	// Header writes one response header line; fails if the body has
	// already begun.
	Header(b []byte) error
	// Headerf writes one formatted response header line, same rule as Header.
	Headerf(format string, args ...any) error
	// Begin is called once per request before any header/body output.
	Begin(req *request.Request) error
	// End is called once per request after the body is fully written.
	End(req *request.Request) error
}

// ErrHeaderAfterBody is returned by Header/Headerf once Put/Vprintf
// has already been called for the current request.
var ErrHeaderAfterBody = fmt.Errorf("adapter: cannot write header, body already begun")

// WriteResponse emits a request's outcome through a, following the
// Status/Content-Type-then-body order quilt_request_process uses:
// header lines first, then the serialised body (or, on error, a
// short human-readable status line instead of a body).
func WriteResponse(a Adapter, req *request.Request, body []byte) error {
	if err := a.Headerf("Status: %d %s", req.Status, req.StatusTitle); err != nil {
		return err
	}
	if req.Type != "" {
		if err := a.Headerf("Content-Type: %s", req.Type); err != nil {
			return err
		}
	}
	if req.Status >= 300 && req.Status < 400 && req.ErrorDesc != "" {
		if err := a.Headerf("Location: %s", req.ErrorDesc); err != nil {
			return err
		}
	}
	if req.IsError() {
		return a.Vprintf("%s\n", req.ErrorDesc)
	}
	return a.Put(body)
}
