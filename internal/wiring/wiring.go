// Package wiring builds a registry.Registry from a config.Config,
// shared by cmd/quilt-cli and cmd/quilt-server so each binary's
// plugin-registration step (the Go analogue of each engine/serialiser
// module's constructor attribute in the original C) isn't duplicated.
package wiring

import (
	"fmt"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/afero"

	"github.com/quiltlod/quilt/config"
	"github.com/quiltlod/quilt/engines"
	"github.com/quiltlod/quilt/htmlserial"
	"github.com/quiltlod/quilt/jsonld"
	"github.com/quiltlod/quilt/liquid"
	"github.com/quiltlod/quilt/registry"
	"github.com/quiltlod/quilt/serial"
	"github.com/quiltlod/quilt/sparqlc"
)

// BuildRegistry registers every serialiser (the HTML one only when a
// template directory is configured) and the
// single configured engine (required, per spec.md §6's "quilt:engine —
// single engine name; required"), mirroring each engine/serialiser
// module's own plugin-registration constructor in the original C
// (engines/*.c, serialisers/*.c) collapsed into one explicit wiring
// function since Go has no implicit constructor-attribute registration.
func BuildRegistry(cfg *config.Config) (*registry.Registry, error) {
	reg := registry.New()

	reg.RegisterSerializer(registry.Type{MIMEType: "text/turtle", Extensions: []string{"ttl"}, Description: "Turtle", Qs: 1.0, Visible: true},
		serial.RDFFormat(rdf.FormatTurtle))
	reg.RegisterSerializer(registry.Type{MIMEType: "application/trig", Extensions: []string{"trig"}, Description: "TriG", Qs: 0.9, Visible: true},
		serial.RDFFormat(rdf.FormatTriG))
	reg.RegisterSerializer(registry.Type{MIMEType: "application/n-triples", Extensions: []string{"nt"}, Description: "N-Triples", Qs: 0.8, Visible: true},
		serial.RDFFormat(rdf.FormatNTriples))
	reg.RegisterSerializer(registry.Type{MIMEType: "application/n-quads", Extensions: []string{"nq"}, Description: "N-Quads", Qs: 0.8, Visible: true},
		serial.RDFFormat(rdf.FormatNQuads))
	reg.RegisterSerializer(registry.Type{MIMEType: "application/rdf+xml", Extensions: []string{"rdf"}, Description: "RDF/XML", Qs: 0.7, Visible: true},
		serial.RDFFormat(rdf.FormatRDFXML))
	reg.RegisterSerializer(registry.Type{MIMEType: "application/ld+json", Extensions: []string{"jsonld"}, Description: "JSON-LD", Qs: 0.9, Visible: true},
		jsonld.New(jsonld.Config{
			Namespaces: cfg.Namespaces,
			Aliases:    cfg.JSONLD.Aliases,
			Datatypes:  cfg.JSONLD.Datatypes,
			Containers: cfg.JSONLD.Containers,
			BaseGraph:  cfg.Quilt.Base,
		}))
	reg.RegisterSerializer(registry.Type{MIMEType: "text/plain", Extensions: []string{"txt"}, Description: "Plain text", Qs: 0.5, Visible: true},
		serial.Text())

	if cfg.HTML.TemplateDir != "" {
		env, err := liquid.NewEnv(afero.NewOsFs(), cfg.HTML.TemplateDir)
		if err != nil {
			return nil, fmt.Errorf("loading html templates from %s: %w", cfg.HTML.TemplateDir, err)
		}
		reg.RegisterSerializer(registry.Type{MIMEType: "text/html", Extensions: []string{"html"}, Description: "HTML", Qs: 0.6, Visible: true},
			htmlserial.New(env, reg.VisibleTypes(), htmlserial.Config{BaseURI: cfg.Quilt.Base}))
	}

	if err := registerEngine(reg, cfg); err != nil {
		return nil, err
	}
	return reg, nil
}

func registerEngine(reg *registry.Registry, cfg *config.Config) error {
	switch cfg.Quilt.Engine {
	case "resourcegraph":
		client := sparqlc.New(cfg.SPARQL.Query, sparqlc.WithVerbose(cfg.SPARQL.Verbose))
		if err := reg.RegisterEngine("resourcegraph", engines.ResourceGraph(client)); err != nil {
			return err
		}
		return reg.RegisterBulk("resourcegraph", engines.ResourceGraphBulk(client))
	case "coref":
		client := sparqlc.New(cfg.SPARQL.Query, sparqlc.WithVerbose(cfg.SPARQL.Verbose))
		indices := engines.DefaultIndices
		if len(cfg.Indices) > 0 {
			indices = make([]engines.IndexConfig, len(cfg.Indices))
			for i, e := range cfg.Indices {
				indices[i] = engines.IndexConfig{Path: e.Path, Title: e.Title, ClassURI: e.ClassURI}
			}
		}
		if err := reg.RegisterEngine("coref", engines.Coref(client, indices)); err != nil {
			return err
		}
		return reg.RegisterBulk("coref", engines.CorefBulk(client, indices))
	case "file":
		if cfg.File.Root == "" {
			return fmt.Errorf("registry: quilt:engine=file requires file:root")
		}
		fs := afero.NewOsFs()
		if err := reg.RegisterEngine("file", engines.File(fs, cfg.File.Root)); err != nil {
			return err
		}
		return reg.RegisterBulk("file", engines.FileBulk(fs, cfg.File.Root, cfg.Quilt.Base))
	case "s3":
		client, err := minio.New(cfg.S3.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.S3.Access, cfg.S3.Secret, ""),
			Secure: true,
		})
		if err != nil {
			return fmt.Errorf("registry: constructing s3 client: %w", err)
		}
		s3cfg := engines.S3Config{Bucket: cfg.Coref.Bucket}
		if err := reg.RegisterEngine("s3", engines.S3(client, s3cfg)); err != nil {
			return err
		}
		return reg.RegisterBulk("s3", engines.S3Bulk(client, s3cfg, cfg.Quilt.Base))
	case "":
		return fmt.Errorf("registry: quilt:engine is required")
	default:
		return fmt.Errorf("registry: unknown engine %q", cfg.Quilt.Engine)
	}
}
