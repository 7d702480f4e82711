// Package registry is Quilt's plugin registry: an in-process
// collection of serialisers, engines, and bulk generators, each
// registered once at startup and looked up by MIME type, file
// extension, or name during request handling.
//
// Grounded on bbcarchdev/quilt's libquilt/plugin.c: registration walks
// a single append-only list (here, maps plus an insertion-order
// slice), registering a serialiser a second time under the same MIME
// replaces the earlier entry in place (quilt_plugin_register_serializer's
// "Replace the existing entry" branch), and every serialiser's qs is
// pushed into a shared negotiate.Negotiator for two-level MIME matching
// (the call into libnegotiate's neg_add).
package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/quiltlod/quilt/model"
	"github.com/quiltlod/quilt/negotiate"
	"github.com/quiltlod/quilt/quilterr"
	"github.com/quiltlod/quilt/request"
)

// SerializeFunc renders a fully-built model for a request and returns
// the response body bytes.
type SerializeFunc func(ctx context.Context, req *request.Request, m *model.Model) ([]byte, error)

// EngineFunc populates a request's model for the matched resource.
type EngineFunc func(ctx context.Context, req *request.Request) error

// BulkFunc emits a sequence of subject URIs whose resources should be
// pre-generated, matching libquilt's bulk-generation plug-in contract.
type BulkFunc func(ctx context.Context) ([]string, error)

// Type describes a registered MIME type, the Go analogue of QUILTTYPE.
type Type struct {
	// MIMEType is the canonical MIME type string, e.g. "text/turtle".
	MIMEType string
	// Extensions lists recognised file extensions, without leading dots;
	// Extensions[0] is the canonical/preferred extension.
	Extensions []string
	// Description is a short human-readable label for the type.
	Description string
	// Qs is the server-side quality value used in content negotiation.
	Qs float64
	// Visible reports whether this type should appear in type-listing UIs.
	Visible bool
}

type serializerEntry struct {
	typ Type
	fn  SerializeFunc
}

type engineEntry struct {
	name string
	fn   EngineFunc
}

type bulkEntry struct {
	name string
	fn   BulkFunc
}

// Registry holds the registered serialisers, engines, and bulk
// generators for one server instance.
type Registry struct {
	serializers    []*serializerEntry
	serializerByMIME map[string]*serializerEntry
	engines        []*engineEntry
	engineByName   map[string]*engineEntry
	bulks          []*bulkEntry
	bulkByName     map[string]*bulkEntry
	negotiator     *negotiate.Negotiator
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		serializerByMIME: make(map[string]*serializerEntry),
		engineByName:     make(map[string]*engineEntry),
		bulkByName:       make(map[string]*bulkEntry),
		negotiator:       negotiate.New(),
	}
}

// RegisterSerializer registers (or replaces) a serialiser for typ.MIMEType,
// and pushes its qs into the shared Negotiator.
func (r *Registry) RegisterSerializer(typ Type, fn SerializeFunc) {
	key := strings.ToLower(typ.MIMEType)
	if existing, ok := r.serializerByMIME[key]; ok {
		existing.typ = typ
		existing.fn = fn
		r.negotiator.Add(typ.MIMEType, typ.Qs)
		return
	}
	entry := &serializerEntry{typ: typ, fn: fn}
	r.serializers = append(r.serializers, entry)
	r.serializerByMIME[key] = entry
	r.negotiator.Add(typ.MIMEType, typ.Qs)
}

// RegisterEngine registers an engine under name; re-registering an
// already-registered name is rejected, mirroring
// quilt_plugin_register_engine's "already been registered" check.
func (r *Registry) RegisterEngine(name string, fn EngineFunc) error {
	key := strings.ToLower(name)
	if _, ok := r.engineByName[key]; ok {
		return quilterr.Internal(fmt.Errorf("registry: engine %q already registered", name))
	}
	entry := &engineEntry{name: name, fn: fn}
	r.engines = append(r.engines, entry)
	r.engineByName[key] = entry
	return nil
}

// RegisterBulk registers a bulk-generation callback under name.
func (r *Registry) RegisterBulk(name string, fn BulkFunc) error {
	key := strings.ToLower(name)
	if _, ok := r.bulkByName[key]; ok {
		return quilterr.Internal(fmt.Errorf("registry: bulk generator %q already registered", name))
	}
	entry := &bulkEntry{name: name, fn: fn}
	r.bulks = append(r.bulks, entry)
	r.bulkByName[key] = entry
	return nil
}

// MatchMIME returns the registered Type and serialiser for an exact
// MIME type, mirroring quilt_plugin_serializer_match_mime.
func (r *Registry) MatchMIME(mime string) (Type, SerializeFunc, bool) {
	if entry, ok := r.serializerByMIME[strings.ToLower(mime)]; ok {
		return entry.typ, entry.fn, true
	}
	return Type{}, nil, false
}

// MatchExt returns the first registered Type/serialiser recognising
// ext (without a leading dot), mirroring
// quilt_plugin_serializer_match_ext: first-registered wins ties.
func (r *Registry) MatchExt(ext string) (Type, SerializeFunc, bool) {
	for _, entry := range r.serializers {
		for _, e := range entry.typ.Extensions {
			if strings.EqualFold(e, ext) {
				return entry.typ, entry.fn, true
			}
		}
	}
	return Type{}, nil, false
}

// Types returns every registered Type, in registration order,
// mirroring the quilt_plugin_serializer_first/quilt_plugin_next walk.
func (r *Registry) Types() []Type {
	out := make([]Type, 0, len(r.serializers))
	for _, entry := range r.serializers {
		out = append(out, entry.typ)
	}
	return out
}

// VisibleTypes returns every registered Type with Visible set, in
// registration order, for use by type-listing UIs.
func (r *Registry) VisibleTypes() []Type {
	out := make([]Type, 0, len(r.serializers))
	for _, entry := range r.serializers {
		if entry.typ.Visible {
			out = append(out, entry.typ)
		}
	}
	return out
}

// NegotiateType runs two-level media-type negotiation over every
// registered serialiser against an Accept header value.
func (r *Registry) NegotiateType(accept string) string {
	return r.negotiator.NegotiateType(accept)
}

// Engine returns the engine registered under name.
func (r *Registry) Engine(name string) (EngineFunc, bool) {
	entry, ok := r.engineByName[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return entry.fn, true
}

// Bulk returns the bulk generator registered under name.
func (r *Registry) Bulk(name string) (BulkFunc, bool) {
	entry, ok := r.bulkByName[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return entry.fn, true
}

// BulkNames returns the names of every registered bulk generator, in
// registration order.
func (r *Registry) BulkNames() []string {
	out := make([]string, 0, len(r.bulks))
	for _, entry := range r.bulks {
		out = append(out, entry.name)
	}
	return out
}
