package engines

import (
	"github.com/quiltlod/quilt/model"
	"github.com/quiltlod/quilt/quilterr"
)

const (
	errorType    = "http://bbcarchdev.github.io/ns/err#Error"
	errorStatus  = "http://bbcarchdev.github.io/ns/err#status"
	errorMessage = "http://bbcarchdev.github.io/ns/err#message"
	rdfTypeURI   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
)

// AnnotateError optionally populates m with a small set of error
// triples describing a non-200 engine outcome, rooted at subject,
// matching spec.md's "the model may be optionally populated with error
// triples" step.
//
// Grounded on original_source/libquilt/error.c's err_triple() helper.
func AnnotateError(m *model.Model, subject string, err error) {
	if err == nil || subject == "" {
		return
	}
	status := quilterr.StatusOf(err)
	m.AddURI(subject, rdfTypeURI, errorType)
	m.AddLiteral(subject, errorStatus, itoa(status), "")
	m.AddLiteral(subject, errorMessage, err.Error(), "en")
}
