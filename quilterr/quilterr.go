// Package quilterr defines the error taxonomy used throughout Quilt to
// carry an HTTP status alongside the usual wrapped Go error chain.
package quilterr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error per spec.md §7.
type Kind int

const (
	// KindInternal covers allocation, I/O, and parser failures.
	KindInternal Kind = iota
	// KindBadRequest is raised by URI parsing.
	KindBadRequest
	// KindNotAcceptable is raised by negotiation.
	KindNotAcceptable
	// KindNotFound is raised by engines when a model is empty or a file is missing.
	KindNotFound
	// KindUpstream covers SPARQL/S3 non-2xx responses.
	KindUpstream
	// KindSerializerMissing is raised by registry lookup failures.
	KindSerializerMissing
	// KindConfigMissing is raised by init-time sanity checks.
	KindConfigMissing
	// KindEngineMissing is raised by init-time sanity checks.
	KindEngineMissing
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindNotAcceptable:
		return "not_acceptable"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream_error"
	case KindSerializerMissing:
		return "serializer_missing"
	case KindConfigMissing:
		return "config_missing"
	case KindEngineMissing:
		return "engine_missing"
	default:
		return "internal_error"
	}
}

// Status is an error that carries an HTTP status code and a taxonomy Kind.
type Status struct {
	Code int
	Kind Kind
	Err  error
}

func (s *Status) Error() string {
	if s.Err == nil {
		return fmt.Sprintf("%s (%d)", s.Kind, s.Code)
	}
	return fmt.Sprintf("%s (%d): %s", s.Kind, s.Code, s.Err)
}

func (s *Status) Unwrap() error { return s.Err }

// New wraps err (which may be nil) as a Status error with the given kind
// and HTTP status code.
func New(code int, kind Kind, err error) *Status {
	return &Status{Code: code, Kind: kind, Err: err}
}

// BadRequest is a 400 quilterr.Status.
func BadRequest(err error) *Status { return New(http.StatusBadRequest, KindBadRequest, err) }

// NotAcceptable is a 406 quilterr.Status.
func NotAcceptable(err error) *Status {
	return New(http.StatusNotAcceptable, KindNotAcceptable, err)
}

// NotFound is a 404 quilterr.Status.
func NotFound(err error) *Status { return New(http.StatusNotFound, KindNotFound, err) }

// Upstream wraps an upstream status code (from SPARQL or S3) as a
// propagated quilterr.Status.
func Upstream(code int, err error) *Status { return New(code, KindUpstream, err) }

// SerializerMissing is a 406 quilterr.Status (no serialiser available).
func SerializerMissing(err error) *Status {
	return New(http.StatusNotAcceptable, KindSerializerMissing, err)
}

// Internal is a 500 quilterr.Status.
func Internal(err error) *Status {
	return New(http.StatusInternalServerError, KindInternal, err)
}

// ConfigMissing indicates a startup sanity-check failure; process exit,
// not a per-request status.
func ConfigMissing(err error) *Status { return New(0, KindConfigMissing, err) }

// EngineMissing indicates a startup sanity-check failure; process exit,
// not a per-request status.
func EngineMissing(err error) *Status { return New(0, KindEngineMissing, err) }

// StatusOf extracts the HTTP status code carried by err, if any, falling
// back to 500 for an unrecognised non-nil error.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var s *Status
	if errors.As(err, &s) {
		return s.Code
	}
	return http.StatusInternalServerError
}

// KindOf extracts the Kind carried by err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var s *Status
	if errors.As(err, &s) {
		return s.Kind
	}
	return KindInternal
}
