package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"

	"github.com/zee-sandev/outscope"
	"github.com/zee-sandev/outscope/docgen"
)

type CLI struct {
	Version VersionCmd `cmd:"" help:"Print version information."`
	Routes  RoutesCmd  `cmd:"" help:"Print the route table for a contract manifest."`
	OpenAPI OpenAPICmd `cmd:"" name:"openapi" help:"Generate an OpenAPI document from a contract manifest."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

type RoutesCmd struct {
	Manifest string `arg:"" help:"Path to a contract manifest JSON file." type:"existingfile"`
	Prefix   string `help:"Route prefix." default:"/api"`
}

func (c *RoutesCmd) Run() error {
	root, err := loadManifest(c.Manifest)
	if err != nil {
		return err
	}
	routes, err := outscope.RouteTable(root, c.Prefix)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tKEY")
	for _, r := range routes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Method, r.Path, r.Key)
	}
	return w.Flush()
}

type OpenAPICmd struct {
	Manifest string `arg:"" help:"Path to a contract manifest JSON file." type:"existingfile"`
	Output   string `help:"Output file. Writes to stdout when empty." short:"o"`
	Format   string `help:"Output format." enum:"yaml,json" default:"yaml"`
	Config   string `help:"Directory containing .outscope.yaml." default:"."`
	Title    string `help:"API title, overriding the config file."`
	APIVer   string `help:"API version, overriding the config file." name:"api-version"`
}

func (c *OpenAPICmd) Run() error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("load .outscope.yaml: %w", err)
	}
	if c.Title != "" {
		cfg.Title = c.Title
	}
	if c.APIVer != "" {
		cfg.Version = c.APIVer
	}

	root, err := loadManifest(c.Manifest)
	if err != nil {
		return err
	}
	routes, err := outscope.RouteTable(root, cfg.Prefix)
	if err != nil {
		return err
	}

	spec, err := docgen.FromRoutes(routes, &docgen.Config{
		Title:       cfg.Title,
		Version:     cfg.Version,
		Description: cfg.Description,
		ServerURL:   cfg.ServerURL,
	})
	if err != nil {
		return err
	}

	var data []byte
	switch c.Format {
	case "json":
		raw, err := spec.MarshalJSON()
		if err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
		buf.WriteByte('\n')
		data = buf.Bytes()
	default:
		if data, err = yaml.Marshal(spec); err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
	}

	if c.Output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(c.Output, data, 0644)
}

func loadManifest(path string) (*outscope.Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return outscope.ParseContract(data)
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("outscope"),
		kong.Description("Outscope CLI for route inspection and OpenAPI generation."),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
