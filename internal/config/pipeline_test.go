package config

import (
	"os"
	"path/filepath"
	"testing"

	"geomagd/internal/spec"
)

func specAdjusted(in, out []string, statefile, dataType, location string) spec.AdjustedSpec {
	return spec.AdjustedSpec{
		InChannels:  in,
		OutChannels: out,
		Statefile:   statefile,
		DataType:    dataType,
		Location:    location,
	}
}

func TestLoadPipelineSpec_ResolvesRelativePathsAndSchema(t *testing.T) {
	dir := t.TempDir()
	pipe := []byte(`schema_version: v1
source:
  kind: kafka
  driver: sarama
  config: kafka_source.yml
adjusted:
  statefile: adjusted_state.json
  in_channels: [H, E, Z, F]
  out_channels: [X, Y, Z, F]
sinks: [stdout]
`)
	if err := os.WriteFile(filepath.Join(dir, "pipeline.yml"), pipe, 0o644); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "kafka_source.yml"), []byte("schema_version: v1\n"), 0o644); err != nil {
		t.Fatalf("write kafka cfg: %v", err)
	}

	cfg, abs, err := LoadPipelineSpec(filepath.Join(dir, "pipeline.yml"))
	if err != nil {
		t.Fatalf("LoadPipelineSpec: %v", err)
	}
	if cfg.SchemaVersion != SupportedSchema {
		t.Fatalf("want schema %s, got %s", SupportedSchema, cfg.SchemaVersion)
	}
	if abs == "" || !filepath.IsAbs(abs) {
		t.Fatalf("want absolute kafka config path, got %q", abs)
	}
	if !filepath.IsAbs(cfg.Adjusted.Statefile) {
		t.Fatalf("want absolute statefile path, got %q", cfg.Adjusted.Statefile)
	}
	if len(cfg.Adjusted.InChannels) != 4 || cfg.Adjusted.InChannels[3] != "F" {
		t.Fatalf("in_channels = %v", cfg.Adjusted.InChannels)
	}
}

func TestLoadPipelineSpec_InvalidSchema(t *testing.T) {
	dir := t.TempDir()
	pipe := []byte(`schema_version: v999
source: { kind: kafka, driver: sarama, config: cf.yml }
sinks: [stdout]
`)
	if err := os.WriteFile(filepath.Join(dir, "pipeline.yml"), pipe, 0o644); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}
	if _, _, err := LoadPipelineSpec(filepath.Join(dir, "pipeline.yml")); err == nil {
		t.Fatal("expected error for invalid schema_version")
	}
}

func TestLoadAdjusted_DefaultsAndEnvOverride(t *testing.T) {
	cfg, err := LoadAdjusted(specAdjusted(nil, nil, "", "", ""))
	if err != nil {
		t.Fatalf("LoadAdjusted: %v", err)
	}
	if len(cfg.InChannels) != 0 {
		t.Fatalf("empty block must stay empty (algorithm applies defaults), got %v", cfg.InChannels)
	}

	t.Setenv("GEOMAGD_ADJUST__IN_CHANNELS", "H,D,Z,F")
	t.Setenv("GEOMAGD_ADJUST__LOCATION", "A1")
	cfg, err = LoadAdjusted(specAdjusted([]string{"H", "E", "Z", "F"}, nil, "", "", "A0"))
	if err != nil {
		t.Fatalf("LoadAdjusted: %v", err)
	}
	if len(cfg.InChannels) != 4 || cfg.InChannels[1] != "D" {
		t.Fatalf("env override not applied: %v", cfg.InChannels)
	}
	if cfg.Location != "A1" {
		t.Fatalf("location = %q, want A1", cfg.Location)
	}
}
