// Package config loads Quilt's TOML configuration file and applies
// defaults, following the teacher's Config-struct-plus-Defaults-plus-
// functional-Option idiom (infogulch-xtemplate's config.go) generalised
// from a single html/template front-end's settings to the section/key
// table original_source/config.c seeds via config_set_default.
package config

import (
	"log/slog"

	"github.com/BurntSushi/toml"
)

// Config is Quilt's process-wide configuration, loaded once at startup
// and treated as read-only thereafter (spec.md §4.12's "Shared
// resources" invariant).
type Config struct {
	Global struct {
		ConfigFile string `toml:"configFile"`
	} `toml:"global"`

	Log struct {
		Level    string `toml:"level"`
		Facility string `toml:"facility"`
		Syslog   bool   `toml:"syslog"`
		Stderr   bool   `toml:"stderr"`
		Ident    string `toml:"ident"`
	} `toml:"log"`

	SPARQL struct {
		Query   string `toml:"query"`
		Verbose bool   `toml:"verbose"`
	} `toml:"sparql"`

	FastCGI struct {
		Socket string `toml:"socket"`
	} `toml:"fastcgi"`

	Quilt struct {
		Base         string   `toml:"base"`
		Engine       string   `toml:"engine"`
		DefaultLimit int      `toml:"defaultLimit"`
		Modules      []string `toml:"module"`
	} `toml:"quilt"`

	// File configures the file-backed engine (engines.File).
	File struct {
		Root string `toml:"root"`
	} `toml:"file"`

	// S3 configures the S3-backed engine (engines.S3).
	S3 struct {
		Endpoint string `toml:"endpoint"`
		Access   string `toml:"access"`
		Secret   string `toml:"secret"`
		Verbose  bool   `toml:"verbose"`
	} `toml:"s3"`

	// Coref configures the coref engine beyond its index table.
	Coref struct {
		Bucket string `toml:"bucket"`
	} `toml:"coref"`

	// HTML configures the liquid-template HTML serialiser.
	HTML struct {
		TemplateDir string `toml:"templatedir"`
	} `toml:"html"`

	// Namespaces maps a prefix to a URI, shared by model.ContractURI
	// and the jsonld serialiser's @context.
	Namespaces map[string]string `toml:"namespaces"`

	JSONLD struct {
		Aliases    map[string]string `toml:"aliases"`
		Datatypes  map[string]string `toml:"datatypes"`
		Containers map[string]string `toml:"containers"`
	} `toml:"jsonld"`

	// Indices is the coref engine's path-to-index table; empty means
	// engines.DefaultIndices.
	Indices []IndexEntry `toml:"indices"`

	// Bulk configures the bulk-generation filesystem target (§5 of
	// SPEC_FULL.md).
	Bulk struct {
		Root         string   `toml:"root"`
		Encodings    []string `toml:"encodings"`
		DefaultLimit int      `toml:"defaultLimit"`
	} `toml:"bulk"`

	// Logger is built from the Log section by NewLogger and assigned by
	// the caller; not part of the TOML document itself.
	Logger *slog.Logger `toml:"-"`
}

// IndexEntry is one row of the coref engine's index table, the TOML
// form of engines.IndexConfig.
type IndexEntry struct {
	Path     string `toml:"path"`
	Title    string `toml:"title"`
	ClassURI string `toml:"classURI"`
}

// Defaults sets default values for unset fields, mirroring
// quilt_config_defaults's config_set_default calls.
func (c *Config) Defaults() *Config {
	if c.Global.ConfigFile == "" {
		c.Global.ConfigFile = "/etc/quilt.conf"
	}
	if c.Log.Level == "" {
		c.Log.Level = "notice"
	}
	if c.Log.Facility == "" {
		c.Log.Facility = "daemon"
	}
	if c.Log.Ident == "" {
		c.Log.Ident = "quilt"
	}
	if c.SPARQL.Query == "" {
		c.SPARQL.Query = "http://localhost/sparql/"
	}
	if c.FastCGI.Socket == "" {
		c.FastCGI.Socket = "/tmp/quilt.sock"
	}
	if c.Quilt.Base == "" {
		c.Quilt.Base = "http://www.example.com/"
	}
	if c.Quilt.DefaultLimit <= 0 {
		c.Quilt.DefaultLimit = 20
	}
	if c.Namespaces == nil {
		c.Namespaces = map[string]string{}
	}
	if c.JSONLD.Aliases == nil {
		c.JSONLD.Aliases = map[string]string{}
	}
	if c.JSONLD.Datatypes == nil {
		c.JSONLD.Datatypes = map[string]string{}
	}
	if c.JSONLD.Containers == nil {
		c.JSONLD.Containers = map[string]string{}
	}
	return c
}

// New returns a Config populated with defaults, ready for Option
// overrides or Load to fill in.
func New() *Config {
	c := &Config{}
	c.Defaults()
	return c
}

// Load reads and parses a TOML file at path into a new defaulted
// Config.
func Load(path string) (*Config, error) {
	c := New()
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, err
	}
	c.Defaults()
	return c, nil
}

// Option mutates a Config after defaults/file-loading, mirroring the
// teacher's override functions (WithLogger, WithDB, ...).
type Option func(*Config)

// WithLogger overrides the configured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithBase overrides quilt:base.
func WithBase(base string) Option {
	return func(c *Config) { c.Quilt.Base = base }
}

// WithEngine overrides the single configured engine name.
func WithEngine(name string) Option {
	return func(c *Config) { c.Quilt.Engine = name }
}

// Apply runs every opt against c in order.
func (c *Config) Apply(opts ...Option) *Config {
	for _, opt := range opts {
		opt(c)
	}
	return c
}
