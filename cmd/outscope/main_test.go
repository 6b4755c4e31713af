package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const planetManifest = `{
  "planet": {
    "list": {"method": "POST", "path": "/planets"},
    "get": {"method": "GET", "path": "/planets/{id}"}
  }
}`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Prefix != "/api" {
		t.Errorf("expected default prefix /api, got %q", cfg.Prefix)
	}
	if cfg.Title != "" {
		t.Errorf("expected empty title, got %q", cfg.Title)
	}
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	content := "title: Planets\nversion: 2.0.0\nprefix: /v2\n"
	if err := os.WriteFile(filepath.Join(dir, ".outscope.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Title != "Planets" || cfg.Version != "2.0.0" || cfg.Prefix != "/v2" {
		t.Errorf("config not loaded: %+v", cfg)
	}
}

func TestLoadConfig_Malformed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".outscope.yaml"), []byte("title: [oops"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := loadConfig(dir); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, planetManifest)

	root, err := loadManifest(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	leaf := root.Child("planet").Child("get")
	if leaf == nil || !leaf.IsLeaf() || leaf.Method() != "GET" {
		t.Errorf("manifest not parsed correctly")
	}
}

func TestLoadManifest_Missing(t *testing.T) {
	if _, err := loadManifest(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing manifest")
	}
}

func TestOpenAPICmd_WritesYAML(t *testing.T) {
	manifest := writeManifest(t, planetManifest)
	out := filepath.Join(t.TempDir(), "openapi.yaml")

	cmd := &OpenAPICmd{
		Manifest: manifest,
		Output:   out,
		Format:   "yaml",
		Config:   t.TempDir(),
		Title:    "Planets",
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	doc := string(data)
	for _, want := range []string{"openapi:", "Planets", "/api/planet/list", "/api/planets/{id}"} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
}

func TestOpenAPICmd_WritesJSON(t *testing.T) {
	manifest := writeManifest(t, planetManifest)
	out := filepath.Join(t.TempDir(), "openapi.json")

	cmd := &OpenAPICmd{
		Manifest: manifest,
		Output:   out,
		Format:   "json",
		Config:   t.TempDir(),
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"openapi"`) {
		t.Error("expected JSON document")
	}
}

func TestOpenAPICmd_BadManifest(t *testing.T) {
	manifest := writeManifest(t, `{"planet": {"method": "TRACE", "path": "/planets"}}`)

	cmd := &OpenAPICmd{Manifest: manifest, Format: "yaml", Config: t.TempDir()}
	if err := cmd.Run(); err == nil {
		t.Error("expected error for unsupported method")
	} else if !strings.Contains(err.Error(), "unsupported HTTP method") {
		t.Errorf("unexpected error: %v", err)
	}
}
