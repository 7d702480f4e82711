package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestNewAppliesDefaults(t *testing.T) {
	c := New()
	if c.Quilt.Base != "http://www.example.com/" {
		t.Fatalf("base = %q", c.Quilt.Base)
	}
	if c.SPARQL.Query != "http://localhost/sparql/" {
		t.Fatalf("sparql query = %q", c.SPARQL.Query)
	}
	if c.FastCGI.Socket != "/tmp/quilt.sock" {
		t.Fatalf("fastcgi socket = %q", c.FastCGI.Socket)
	}
	if c.Quilt.DefaultLimit != 20 {
		t.Fatalf("default limit = %d", c.Quilt.DefaultLimit)
	}
}

func TestLoadParsesTOMLAndKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quilt.toml")
	body := `
[quilt]
base = "http://ex.example/"
engine = "resourcegraph"

[namespaces]
foaf = "http://xmlns.com/foaf/0.1/"

[jsonld.aliases]
name = "http://xmlns.com/foaf/0.1/name"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writefile: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Quilt.Base != "http://ex.example/" {
		t.Fatalf("base = %q", c.Quilt.Base)
	}
	if c.Quilt.Engine != "resourcegraph" {
		t.Fatalf("engine = %q", c.Quilt.Engine)
	}
	if c.Namespaces["foaf"] != "http://xmlns.com/foaf/0.1/" {
		t.Fatalf("namespaces = %v", c.Namespaces)
	}
	if c.JSONLD.Aliases["name"] != "http://xmlns.com/foaf/0.1/name" {
		t.Fatalf("jsonld aliases = %v", c.JSONLD.Aliases)
	}
	// defaults not overridden by the file still apply.
	if c.SPARQL.Query != "http://localhost/sparql/" {
		t.Fatalf("sparql query = %q", c.SPARQL.Query)
	}
}

func TestLoadParsesEngineBackendSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quilt.toml")
	body := `
[file]
root = "/srv/quilt/data"

[s3]
endpoint = "s3.example.com"
access = "key"
secret = "secret"

[coref]
bucket = "quilt-assets"

[html]
templatedir = "/srv/quilt/templates"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writefile: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.File.Root != "/srv/quilt/data" {
		t.Fatalf("file root = %q", c.File.Root)
	}
	if c.S3.Endpoint != "s3.example.com" || c.S3.Access != "key" || c.S3.Secret != "secret" {
		t.Fatalf("s3 section = %+v", c.S3)
	}
	if c.Coref.Bucket != "quilt-assets" {
		t.Fatalf("coref bucket = %q", c.Coref.Bucket)
	}
	if c.HTML.TemplateDir != "/srv/quilt/templates" {
		t.Fatalf("html templatedir = %q", c.HTML.TemplateDir)
	}
}

func TestApplyOptions(t *testing.T) {
	c := New().Apply(WithBase("http://override/"), WithEngine("file"))
	if c.Quilt.Base != "http://override/" {
		t.Fatalf("base = %q", c.Quilt.Base)
	}
	if c.Quilt.Engine != "file" {
		t.Fatalf("engine = %q", c.Quilt.Engine)
	}
}

func TestNewLoggerLevelMapping(t *testing.T) {
	c := New()
	c.Log.Level = "debug"
	c.Log.Stderr = true
	logger := c.NewLogger()
	if logger == nil {
		t.Fatal("expected a logger")
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug level enabled")
	}
}
