package htmlserial

import (
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/quiltlod/quilt/canon"
	"github.com/quiltlod/quilt/liquid"
	"github.com/quiltlod/quilt/model"
	"github.com/quiltlod/quilt/registry"
	"github.com/quiltlod/quilt/request"
)

const (
	rdfType         = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	rdfsLabel       = "http://www.w3.org/2000/01/rdf-schema#label"
	rdfsComment     = "http://www.w3.org/2000/01/rdf-schema#comment"
	dctermsDesc     = "http://purl.org/dc/terms/description"
	geoLong         = "http://www.w3.org/2003/01/geo/wgs84_pos#long"
	geoLat          = "http://www.w3.org/2003/01/geo/wgs84_pos#lat"
	specificLang    = "en-GB"
	genericLang     = "en"
)

// buildDict assembles the data dictionary a Liquid template renders
// against, mirroring html_serialize's json_object() tree: request/
// home/index/title/links/data/object.
func buildDict(req *request.Request, types []registry.Type, baseURI string) liquid.Context {
	dict := liquid.Context{}
	addRequest(dict, req, types)
	addData(dict, req, baseURI)
	return dict
}

// addRequest adds the "request"/"home"/"index"/"title"/"links" members.
func addRequest(dict liquid.Context, req *request.Request, types []registry.Type) {
	r := map[string]any{
		"path":        req.Path,
		"ext":         req.Ext,
		"type":        req.Type,
		"host":        req.Host,
		"ident":       req.Ident,
		"method":      req.Method,
		"referer":     req.Referer,
		"ua":          req.UserAgent,
		"status":      float64(req.Status),
		"statustitle": req.StatusTitle,
		"statusdesc":  req.ErrorDesc,
	}
	document := "/" + req.Path
	if req.Home {
		document = "/index"
	}
	r["document"] = document
	dict["request"] = r
	dict["home"] = req.Home
	dict["index"] = req.Index
	if req.Index {
		dict["title"] = req.IndexTitle
	}

	var links []any
	base := document
	for _, typ := range types {
		if !typ.Visible || len(typ.Extensions) == 0 {
			continue
		}
		if req.Type != "" && strings.EqualFold(req.Type, typ.MIMEType) {
			continue
		}
		ext := typ.Extensions[0]
		if len(ext) > 6 {
			continue
		}
		links = append(links, map[string]any{
			"type":  typ.MIMEType,
			"title": typ.Description,
			"uri":   base + "." + ext,
			"ext":   ext,
		})
	}
	dict["links"] = links
}

// addData adds the "data" member (one entry per subject URI seen in the
// model) and, when the request's canonical URI matches a known subject,
// the "object"/"title" members identifying the resource being described.
func addData(dict liquid.Context, req *request.Request, baseURI string) {
	items := map[string]any{}
	props := map[string]map[string]any{}

	for _, q := range req.Model.Quads() {
		subjIRI, sOK := q.S.(rdf.IRI)
		if !sOK {
			continue
		}
		uri := subjIRI.Value
		item, ok := items[uri].(map[string]any)
		if !ok {
			item = map[string]any{}
			items[uri] = item
			item["me"] = false
			addSubject(item, req.Model, uri, baseURI)
			itemProps := map[string]any{}
			item["props"] = itemProps
			props[uri] = itemProps
		}
		itemProps := props[uri]

		predUri := q.P.Value
		values, _ := itemProps[predUri].([]any)
		value := map[string]any{}
		addPredicate(value, predUri)
		addObject(value, q.O, baseURI)
		itemProps[predUri] = append(values, value)
	}
	dict["data"] = items

	reqcanon := req.Canonical
	if reqcanon == nil {
		return
	}
	var matchURI string
	c := reqcanon.String(canon.NoExt | canon.Fragment)
	if strings.Contains(c, "#") {
		matchURI = c
	} else if req.Ext != "" {
		matchURI = reqcanon.String(canon.Abstract)
	} else {
		matchURI = reqcanon.String(canon.Request)
	}
	if item, ok := items[matchURI].(map[string]any); ok {
		item["me"] = true
		dict["object"] = item
		if t, ok := item["title"]; ok {
			dict["title"] = t
		}
		return
	}
	if item, ok := items[req.Path].(map[string]any); ok {
		item["me"] = true
		dict["object"] = item
		if t, ok := item["title"]; ok {
			dict["title"] = t
		}
	}
}

// addSubject populates one "data[uri]" item structure, mirroring
// html.c's add_subject.
func addSubject(item map[string]any, m *model.Model, uri, baseURI string) {
	item["subject"] = uri
	var link, shortURI string
	if baseURI != "" && strings.HasPrefix(uri, baseURI) {
		link = "/" + strings.TrimPrefix(uri, baseURI)
		shortURI = link
	} else {
		link = uri
		shortURI = m.ContractURI(uri)
	}
	item["link"] = link
	item["uri"] = shortURI

	if title, ok := getLiteral(m, uri, rdfsLabel); ok {
		item["hasTitle"] = true
		item["title"] = title
	} else {
		item["hasTitle"] = false
		item["title"] = shortURI
	}
	if desc, ok := getLiteral(m, uri, rdfsComment); ok {
		item["shortdesc"] = desc
	} else {
		item["shortdesc"] = ""
	}
	if desc, ok := getLiteral(m, uri, dctermsDesc); ok {
		item["description"] = desc
	} else {
		item["description"] = ""
	}

	if strings.HasPrefix(shortURI, "/") {
		item["from"] = ""
	} else if host := hostOf(uri); host != "" {
		item["from"] = "from " + host
	} else {
		item["from"] = ""
	}

	if c, ok := matchClass(m, uri); ok {
		item["class"] = c.CSSClass
		item["classLabel"] = c.Label
		item["classSuffix"] = c.Suffix
		item["classDefinite"] = c.Definite
	} else {
		item["class"] = ""
		item["classSuffix"] = ""
	}

	if lon, ok := m.FindDouble(uri, geoLong); ok {
		if lat, ok := m.FindDouble(uri, geoLat); ok {
			item["geo"] = map[string]any{"long": lon, "lat": lat}
		}
	}
}

// addPredicate populates a "value" member's predicate fields.
func addPredicate(value map[string]any, predURI string) {
	value["predicateUri"] = predURI
}

// addObject populates a "value" member's object fields, mirroring
// html.c's add_object.
func addObject(value map[string]any, obj rdf.Term, baseURI string) {
	switch o := obj.(type) {
	case rdf.IRI:
		value["type"] = "uri"
		value["isUri"] = true
		value["value"] = o.Value
		if baseURI != "" && strings.HasPrefix(o.Value, baseURI) {
			link := "/" + strings.TrimPrefix(o.Value, baseURI)
			value["link"] = link
			value["uri"] = link
		} else {
			value["uri"] = o.Value
			value["link"] = o.Value
		}
	case rdf.Literal:
		value["type"] = "literal"
		value["isLiteral"] = true
		value["value"] = o.Lexical
		if o.Lang != "" {
			value["lang"] = o.Lang
		}
		if o.Datatype.Value != "" {
			value["datatype"] = o.Datatype.Value
		}
	case rdf.BlankNode:
		value["type"] = "bnode"
		value["value"] = o.String()
	}
}

// getLiteral performs the "specific > generic > none" language
// selection get_literal implements: en-GB wins outright, en is used if
// no en-GB value exists, and an unlabelled literal is used only if
// neither language-tagged variant was seen.
func getLiteral(m *model.Model, subject, predicate string) (string, bool) {
	pred := model.IRI(predicate)
	var generic, none string
	var hasGeneric, hasNone bool
	for _, q := range m.Find(model.IRI(subject), &pred, nil) {
		lit, ok := q.O.(rdf.Literal)
		if !ok || lit.Datatype.Value != "" {
			continue
		}
		switch {
		case lit.Lang == "":
			if !hasGeneric && !hasNone {
				none, hasNone = lit.Lexical, true
			}
		case strings.EqualFold(lit.Lang, specificLang):
			return lit.Lexical, true
		case strings.EqualFold(lit.Lang, genericLang) && !hasGeneric:
			generic, hasGeneric = lit.Lexical, true
		}
	}
	if hasGeneric {
		return generic, true
	}
	return none, hasNone
}

func hostOf(uri string) string {
	rest := uri
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	} else {
		return ""
	}
	if idx := strings.IndexAny(rest, "/?#"); idx >= 0 {
		rest = rest[:idx]
	}
	return rest
}
