// Package request defines the per-request value object threaded
// through Quilt's pipeline, engines, and serialisers: the Go analogue
// of bbcarchdev/quilt's QUILTREQ (libquilt/libquilt.h).
package request

import (
	"net/url"
	"strings"
	"time"

	"github.com/quiltlod/quilt/canon"
	"github.com/quiltlod/quilt/model"
)

// Request carries everything about one incoming HTTP request as it
// flows ACCEPT -> NORMALISE_URI -> MATCH_TYPE -> BUILD_CANON -> DISPATCH
// -> ENGINE -> SERIALISE -> DONE.
type Request struct {
	// Method is the HTTP method, e.g. "GET".
	Method string
	// Host is the request's Host header.
	Host string
	// Ident is the authenticated client identifier, if any (REMOTE_USER-style).
	Ident string
	// UserAgent is the request's User-Agent header.
	UserAgent string
	// Referer is the request's Referer header.
	Referer string
	// Path is the request path, without a leading slash, as matched against engines.
	Path string
	// Ext is the requested extension parsed from the path, without a leading dot.
	Ext string
	// RawQuery is the unparsed query string.
	RawQuery string
	// Query holds the parsed query parameters.
	Query url.Values
	// Received is the time the request was accepted.
	Received time.Time

	// BaseURI is the server's external base URI (scheme+authority+basepath).
	BaseURI string
	// Subject is the URI of the query subject, without any fragment.
	Subject string
	// BaseGraph is the named graph this request's data should be
	// attributed to, if the engine scopes output to a graph.
	BaseGraph string

	// Home reports whether this request addresses the root resource.
	Home bool
	// Index reports whether this request addresses an index/listing resource.
	Index bool
	// IndexTitle is a human title for an index resource, if Index is set.
	IndexTitle string

	// Type is the negotiated response MIME type, set by MATCH_TYPE.
	Type string
	// CanonExt is the canonical file extension for Type.
	CanonExt string
	// Canonical is the canonical-URI builder seeded with this request's
	// base/path/params, set by BUILD_CANON.
	Canonical *canon.Builder

	// Limit is the result-set size limit, after clamping.
	Limit int
	// Offset is the result-set offset.
	Offset int
	// DefaultLimit is the configured default limit applied when absent from the query.
	DefaultLimit int

	// Model accumulates the RDF graph built by the dispatched engine.
	Model *model.Model

	// Status is the HTTP response status, defaulted to 200 and
	// overridden by errors or engines.
	Status int
	// StatusTitle is a short human title for Status, used by error pages.
	StatusTitle string
	// ErrorDesc holds a human description when Status indicates failure.
	ErrorDesc string
}

// New returns a Request with its defaults populated: status 200,
// method/path/query as given, and an empty model ready for an engine
// to populate. path is run through NORMALISE_URI (spec.md §4.6 step
// 2): a trailing "#fragment" or "?query" is discarded (actual query
// values travel through rawQuery/the adapter's getparam channel, the
// Go analogue of QUERY_STRING vs REQUEST_URI in the original), the
// last ".ext" is stripped off into Ext, and "/index" (or, equivalently,
// a now-empty path) is treated as the home resource.
func New(method, path, rawQuery string) *Request {
	path, ext, home, index := normaliseURI(path)

	values, _ := url.ParseQuery(rawQuery)
	if values == nil {
		values = url.Values{}
	}
	return &Request{
		Method:       method,
		Path:         path,
		Ext:          ext,
		RawQuery:     rawQuery,
		Query:        values,
		Home:         home,
		Index:        index,
		Received:     time.Now(),
		Status:       200,
		Model:        model.New(),
		DefaultLimit: 20,
	}
}

// normaliseURI implements the path-shaping portion of NORMALISE_URI,
// mirroring quilt_request_process_path_: split off "#fragment" and
// "?query", strip the last ".ext" segment into an explicit extension,
// and collapse "/index" (and its own now-empty path) to the home
// resource.
func normaliseURI(raw string) (path, ext string, home, index bool) {
	path = raw
	if i := strings.IndexByte(path, '#'); i >= 0 {
		path = path[:i]
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimPrefix(path, "/")

	slash := strings.LastIndexByte(path, '/')
	tail := path[slash+1:]
	if dot := strings.LastIndexByte(tail, '.'); dot >= 0 {
		ext = tail[dot+1:]
		path = path[:slash+1+dot]
	}

	if path == "index" {
		path = ""
	}
	if path == "" {
		home, index = true, true
	}
	return path, ext, home, index
}

// IsError reports whether Status indicates anything other than 2xx success.
func (r *Request) IsError() bool { return r.Status < 200 || r.Status >= 300 }

// Fail sets the request's status/title/description for an error response.
func (r *Request) Fail(status int, title, desc string) {
	r.Status = status
	r.StatusTitle = title
	r.ErrorDesc = desc
}
