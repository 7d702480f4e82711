// Package htmlserial is the HTML serialiser: it turns a populated
// request model into a data dictionary and renders it through a
// liquid.Env of error/home/index/item templates.
//
// Grounded on original_source/serialisers/{html.c,html-classes.c,
// template.c}: the dictionary shape (request/home/index/title/links/
// data/object) and the fixed rdfs:Class-to-CSS-class table are ported
// directly; rendering itself is delegated to the liquid package rather
// than libliquify's C implementation.
package htmlserial

import (
	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/quiltlod/quilt/model"
)

// classInfo describes one entry of the rdf:type-to-presentation table
// html-classes.c hard-codes.
type classInfo struct {
	URI      string
	CSSClass string
	Label    string
	Suffix   string
	Definite string
}

// classTable mirrors html_classes[] verbatim, in preference order:
// earlier entries win when a subject has more than one matching type.
var classTable = []classInfo{
	{"http://xmlns.com/foaf/0.1/Person", "person", "Person", "(Person)", "a person"},
	{"http://xmlns.com/foaf/0.1/Group", "group", "Group", "(Group)", "a group"},
	{"http://xmlns.com/foaf/0.1/Agent", "agent", "Agent", "(Agent)", "an agent"},
	{"http://www.w3.org/2003/01/geo/wgs84_pos#SpatialThing", "place", "Place", "(Place)", "a place"},
	{"http://www.cidoc-crm.org/cidoc-crm/E18_Physical_Thing", "thing", "Thing", "(Thing)", "a physical thing"},
	{"http://purl.org/dc/dcmitype/Collection", "collection", "Collection", "(Collection)", "a collection"},
	{"http://purl.org/vocab/frbr/core#Work", "creative-work", "Creative work", "(Creative work)", "a creative work"},
	{"http://xmlns.com/foaf/0.1/Document", "digital-object", "Digital asset", "(Digital asset)", "a digital asset"},
	{"http://purl.org/NET/c4dm/event.owl#Event", "event", "Event", "(Event)", "an event"},
	{"http://rdfs.org/ns/void#Dataset", "dataset", "Dataset", "(Dataset)", "a dataset"},
	{"http://www.w3.org/2004/02/skos/core#Concept", "concept", "Concept", "(Concept)", "a concept"},
}

// matchClass finds the rdf:type of subject that appears earliest in
// classTable, mirroring html_class_match's "lower table index always
// wins" scoring.
func matchClass(m *model.Model, subject string) (classInfo, bool) {
	pred := model.IRI(rdfType)
	best := -1
	for _, q := range m.Find(model.IRI(subject), &pred, nil) {
		obj, ok := q.O.(rdf.IRI)
		if !ok {
			continue
		}
		uri := obj.Value
		for i, c := range classTable {
			if best >= 0 && i > best {
				break
			}
			if c.URI == uri {
				best = i
				break
			}
		}
	}
	if best < 0 {
		return classInfo{}, false
	}
	return classTable[best], true
}
