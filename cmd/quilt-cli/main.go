// Command quilt-cli is the single-shot command-line front-end: it
// turns one REQUEST-URI (or, in bulk mode, a whole collection) into a
// serialised response on stdout or a tree of files, mirroring
// original_source/cli.c's getopt-driven main().
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/quiltlod/quilt/adapter"
	"github.com/quiltlod/quilt/bulk"
	"github.com/quiltlod/quilt/config"
	"github.com/quiltlod/quilt/internal/wiring"
	"github.com/quiltlod/quilt/pipeline"
	"github.com/quiltlod/quilt/registry"
	"github.com/quiltlod/quilt/request"
)

func main() {
	app := cli.NewApp()
	app.Name = "quilt-cli"
	app.Usage = "query a Quilt-backed dataset from the command line"
	app.ArgsUsage = "REQUEST-URI"
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "d", Usage: "enable debug output"},
		cli.StringFlag{Name: "c", Usage: "specify path to configuration file"},
		cli.StringFlag{Name: "t", Usage: "specify MIME type to serialise as"},
		cli.BoolFlag{Name: "b", Usage: "bulk-generate output"},
		cli.IntFlag{Name: "L", Usage: "limit bulk generation to L items"},
		cli.IntFlag{Name: "O", Usage: "start bulk generation at offset O"},
		cli.StringFlag{Name: "q", Usage: "specify query parameters (key=value&key=value...)"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "quilt-cli: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	accept := "text/turtle"
	if t := c.String("t"); t != "" {
		accept = t
	}

	reg, err := wiring.BuildRegistry(cfg)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	p := pipeline.New(reg)

	if c.Bool("b") {
		return runBulk(c, cfg, reg, p, accept)
	}
	return runSingle(c, cfg, p, accept)
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path := c.String("c"); path != "" {
		cfg, err = config.Load(path)
	} else if path := os.Getenv("QUILT_CONFIG"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg = config.New()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.Bool("d") {
		cfg.Log.Level = "debug"
		cfg.Log.Stderr = true
	}
	cfg.Logger = cfg.NewLogger()
	return cfg, nil
}

func runSingle(c *cli.Context, cfg *config.Config, p *pipeline.Pipeline, accept string) error {
	if c.NArg() != 1 {
		cli.ShowAppHelp(c)
		return cli.NewExitError("", 1)
	}

	a := adapter.NewCLI(c.String("q"), os.Stdout)
	req := request.New("GET", c.Args().First(), c.String("q"))
	req.BaseURI = cfg.Quilt.Base
	req.DefaultLimit = cfg.Quilt.DefaultLimit

	if err := a.Begin(req); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	body, _ := p.Run(context.Background(), req, accept, singleEngineSelector(cfg))
	if err := adapter.WriteResponse(a, req, body); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return a.End(req)
}

func runBulk(c *cli.Context, cfg *config.Config, reg *registry.Registry, p *pipeline.Pipeline, accept string) error {
	gen, ok := reg.Bulk(cfg.Quilt.Engine)
	if !ok {
		return cli.NewExitError(fmt.Sprintf("no bulk generator registered for engine %q", cfg.Quilt.Engine), 1)
	}

	root := cfg.Bulk.Root
	if root == "" {
		root = "."
	}
	fs := afero.NewBasePathFs(afero.NewOsFs(), root)

	encodings := make([]bulk.Encoding, 0, len(cfg.Bulk.Encodings))
	for _, e := range cfg.Bulk.Encodings {
		encodings = append(encodings, bulk.Encoding(e))
	}

	results, err := bulk.Run(context.Background(), p, gen, fs, bulk.Options{
		BaseURI:      cfg.Quilt.Base,
		Accept:       accept,
		EngineName:   cfg.Quilt.Engine,
		DefaultLimit: cfg.Quilt.DefaultLimit,
		Offset:       c.Int("O"),
		Limit:        c.Int("L"),
		Encodings:    encodings,
	})
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "quilt-cli: %s: %v\n", r.Subject, r.Err)
			continue
		}
		fmt.Printf("%s -> %s\n", r.Subject, r.Path)
	}
	return nil
}

func singleEngineSelector(cfg *config.Config) pipeline.EngineSelector {
	return func(*request.Request) (string, bool) {
		return cfg.Quilt.Engine, cfg.Quilt.Engine != ""
	}
}
