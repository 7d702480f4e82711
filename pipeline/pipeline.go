// Package pipeline implements Quilt's request pipeline: the state
// machine that turns an incoming path/query into a negotiated MIME
// type, a canonical URI, a dispatched engine, and a serialised
// response body.
//
// Grounded on bbcarchdev/quilt's libquilt/request.c
// (quilt_request_create_uri_ for limit/offset/canon setup,
// quilt_request_process for the engine-then-serialize dispatch,
// quilt_request_serialize for the final MIME lookup).
package pipeline

import (
	"context"
	"strconv"

	"github.com/quiltlod/quilt/canon"
	"github.com/quiltlod/quilt/quilterr"
	"github.com/quiltlod/quilt/registry"
	"github.com/quiltlod/quilt/request"
)

// MaxLimit is the hard ceiling applied to a request's result-set
// limit, mirroring libquilt's MAX_LIMIT constant.
const MaxLimit = 200

// State names the pipeline's state-machine stages, per spec.md §4.6.
type State int

const (
	StateAccept State = iota
	StateNormaliseURI
	StateMatchType
	StateBuildCanon
	StateDispatch
	StateEngine
	StateSerialise
	StateDone
)

// Pipeline runs the eight-state request pipeline against a registry of
// engines and serialisers.
type Pipeline struct {
	reg *registry.Registry
}

// New returns a Pipeline bound to reg.
func New(reg *registry.Registry) *Pipeline {
	return &Pipeline{reg: reg}
}

// EngineSelector picks which registered engine name should handle req,
// after NORMALISE_URI but before DISPATCH; callers supply this since
// engine routing is server-specific (path-prefix table, single engine,
// etc.) rather than part of the pipeline itself.
type EngineSelector func(req *request.Request) (engineName string, ok bool)

// Run drives req through ACCEPT -> NORMALISE_URI -> MATCH_TYPE ->
// BUILD_CANON -> DISPATCH -> ENGINE -> SERIALISE -> DONE, returning the
// serialised response body. On any error it records req.Status/
// StatusTitle/ErrorDesc and returns the error so the caller's adapter
// can still route to an error-page serialiser.
func (p *Pipeline) Run(ctx context.Context, req *request.Request, accept string, selectEngine EngineSelector) ([]byte, error) {
	// ACCEPT: caller has already populated Method/Host/Path/Query/etc.

	// NORMALISE_URI: clamp limit/offset per quilt_request_create_uri_.
	normaliseLimits(req)

	// MATCH_TYPE: an explicit extension (captured by NORMALISE_URI) takes
	// priority over content negotiation, per spec.md §4.6 step 3: look
	// up a serialiser by extension and fail with 406 if none matches,
	// rather than falling back to the Accept header.
	var typ registry.Type
	if req.Ext != "" {
		var ok bool
		typ, _, ok = p.reg.MatchExt(req.Ext)
		if !ok {
			err := quilterr.NotAcceptable(nil)
			req.Fail(err.Code, "Not Acceptable", "no serialiser registered for extension ."+req.Ext)
			return nil, err
		}
		req.Type = typ.MIMEType
	} else {
		req.Type = p.reg.NegotiateType(accept)
		if req.Type == "" {
			err := quilterr.NotAcceptable(nil)
			req.Fail(err.Code, "Not Acceptable", "no acceptable response representation for this request")
			return nil, err
		}
		typ, _, _ = p.reg.MatchMIME(req.Type)
	}
	req.CanonExt = firstExtension(typ)

	// BUILD_CANON: seed the canonical-URI builder for this request.
	req.Canonical = canon.New()
	req.Canonical.SetBase(req.BaseURI)
	req.Canonical.SetPath(req.Path)
	req.Canonical.SetDefaultExt(req.CanonExt)
	req.Canonical.SetExplicitExt(req.Ext)
	req.Canonical.SetUserQuery(req.RawQuery)
	req.Canonical.SetUserPath("/" + req.Path)
	if req.Home {
		req.Canonical.SetName("index")
	}

	// DISPATCH: select the engine responsible for this resource.
	engineName, ok := selectEngine(req)
	if !ok {
		err := quilterr.NotFound(nil)
		req.Fail(err.Code, "Not Found", "no engine matches this request")
		return nil, err
	}
	engineFn, ok := p.reg.Engine(engineName)
	if !ok {
		err := quilterr.EngineMissing(nil)
		req.Fail(404, "Not Found", "engine not registered: "+engineName)
		return nil, err
	}

	// ENGINE: populate req.Model. Engines that want error triples in
	// the response body call engines.AnnotateError themselves before
	// returning; the pipeline only records the status.
	if err := engineFn(ctx, req); err != nil {
		status := quilterr.StatusOf(err)
		req.Fail(status, statusTitle(status), err.Error())
		return nil, err
	}
	if req.Status == 0 {
		req.Status = 200
	}
	if req.StatusTitle == "" {
		req.StatusTitle = statusTitle(req.Status)
	}

	// SERIALISE: only reached if the engine didn't already serialize
	// (callers that want "engine serialises itself" semantics can
	// short-circuit before invoking Run's serialise step by checking
	// req.IsError()/a sentinel on the engine side; Quilt's engines here
	// always populate a model instead).
	_, serializeFn, ok := p.reg.MatchMIME(req.Type)
	if !ok {
		err := quilterr.SerializerMissing(nil)
		req.Fail(err.Code, "Not Acceptable", "no serialiser registered for "+req.Type)
		return nil, err
	}
	body, err := serializeFn(ctx, req, req.Model)
	if err != nil {
		status := quilterr.StatusOf(err)
		req.Fail(status, statusTitle(status), err.Error())
		return nil, err
	}

	// DONE.
	return body, nil
}

func normaliseLimits(req *request.Request) {
	if req.DefaultLimit <= 0 {
		req.DefaultLimit = 20
	}
	req.Limit = req.DefaultLimit
	req.Offset = 0
	if v := req.Query.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Offset = n
		}
	}
	if v := req.Query.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Limit = n
		}
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	if req.Limit < 1 {
		req.Limit = 1
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
}

func firstExtension(typ registry.Type) string {
	if len(typ.Extensions) == 0 {
		return ""
	}
	return typ.Extensions[0]
}

func statusTitle(status int) string {
	if status == 200 {
		return "OK"
	}
	return "Error"
}
