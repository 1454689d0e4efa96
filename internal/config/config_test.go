package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Error("expected defaults for a missing file")
	}
}

func TestLoadDeepMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reelforge.yaml")
	data := []byte(`
concurrency: 6
unknown_key: ignored
selection:
  image_percentage: 50
output:
  profiles:
    none:
      crf: 30
anchors:
  middle-left:
    x: "0+{mx}"
    y: "(H-h)/2"
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Concurrency != 6 {
		t.Errorf("expected concurrency 6, got %d", cfg.Concurrency)
	}
	if cfg.Selection.ImagePercentage != 50 {
		t.Errorf("expected image_percentage 50, got %d", cfg.Selection.ImagePercentage)
	}
	// sibling keys keep their defaults
	if cfg.Selection.ImageDuration != 5.0 || !cfg.Selection.UniqueAssets {
		t.Errorf("selection defaults lost: %+v", cfg.Selection)
	}

	none := cfg.Output.Profiles["none"]
	if none.VideoCodec != "libx264" || none.Tune != "film" {
		t.Errorf("profile defaults lost after partial override: %+v", none)
	}
	if none.CRF == nil || *none.CRF != 30 {
		t.Errorf("expected crf override 30, got %v", none.CRF)
	}
	if _, ok := cfg.Output.Profiles["cuda"]; !ok {
		t.Error("other profiles should survive the merge")
	}

	if _, ok := cfg.Anchors["middle-left"]; !ok {
		t.Error("new anchor missing")
	}
	if _, ok := cfg.Anchors["top-left"]; !ok {
		t.Error("default anchors should survive the merge")
	}
}

func TestLoadProjectJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.json")
	data := []byte(`{"features": {"watermark": false}, "output_folder": "out/proj"}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	base := Default()
	cfg, err := LoadProject(base, path)
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}

	if cfg.Features.Watermark {
		t.Error("watermark should be disabled by the project")
	}
	if !cfg.Features.BGM {
		t.Error("bgm default should survive")
	}
	if cfg.OutputFolder != "out/proj" {
		t.Errorf("unexpected output folder %q", cfg.OutputFolder)
	}
	if !base.Features.Watermark {
		t.Error("base config must not be modified")
	}
}

func TestEncodingAppliesQualityToFamily(t *testing.T) {
	tests := []struct {
		profile string
		quality string
		key     string
		value   int
	}{
		{"none", "high", "crf", 18},
		{"qsv", "fast", "global_quality", 26},
		{"cuda", "balanced", "cq", 23},
	}

	for _, tt := range tests {
		cfg := Default()
		cfg.Output.Profile = tt.profile
		cfg.Output.Quality = tt.quality

		enc, err := cfg.Encoding()
		if err != nil {
			t.Fatalf("%s/%s: %v", tt.profile, tt.quality, err)
		}
		key, value, ok := enc.RateControl()
		if !ok || key != tt.key || value != tt.value {
			t.Errorf("%s/%s: got %s=%d, want %s=%d", tt.profile, tt.quality, key, value, tt.key, tt.value)
		}
	}

	// the default table is left untouched
	if *Default().Output.Profiles["none"].CRF != 21 {
		t.Error("profile defaults mutated")
	}
}

func TestEncodingUnknown(t *testing.T) {
	cfg := Default()
	cfg.Output.Profile = "vulkan"
	if _, err := cfg.Encoding(); !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("expected ErrUnknownProfile, got %v", err)
	}

	cfg = Default()
	cfg.Output.Quality = "ultra"
	if _, err := cfg.Encoding(); !errors.Is(err, ErrUnknownQuality) {
		t.Errorf("expected ErrUnknownQuality, got %v", err)
	}
}

func TestExtraFlags(t *testing.T) {
	p := EncodingProfile{ExtraArgs: []string{
		"-x264-params keyint=60:min-keyint=60",
		"-movflags +faststart",
		"-an",
		"-profile:v high",
	}}

	want := []Flag{
		{Key: "x264-params", Value: "keyint=60:min-keyint=60"},
		{Key: "movflags", Value: "+faststart"},
		{Key: "an"},
		{Key: "profile:v", Value: "high"},
	}
	if got := p.ExtraFlags(); !reflect.DeepEqual(got, want) {
		t.Errorf("ExtraFlags() = %+v, want %+v", got, want)
	}
}

func TestResolvePaths(t *testing.T) {
	cfg := Default()
	cfg.AssetsBasePath = "/data/assets"
	cfg.Files.Watermark = "/abs/wm.png"

	r := cfg.Resolve()
	if r.Folders.Videos[0] != filepath.Join("/data/assets", "videos") {
		t.Errorf("unexpected videos folder %q", r.Folders.Videos[0])
	}
	if r.Files.Watermark != "/abs/wm.png" {
		t.Errorf("absolute file should be kept, got %q", r.Files.Watermark)
	}
	if cfg.Folders.Videos[0] != "videos" {
		t.Error("Resolve must not modify the receiver")
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Concurrency = 0
	cfg.Selection.ImagePercentage = 120
	cfg.Selection.VideoMode = "sideways"
	cfg.BGM.MixDuration = "forever"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	t.Logf("validation: %v", err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAssets, "/srv/assets")
	t.Setenv(EnvConcurrency, "8")
	t.Setenv(EnvSeed, "42")

	cfg, err := Default().ApplyEnv()
	if err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.AssetsBasePath != "/srv/assets" || cfg.Concurrency != 8 || cfg.Seed != 42 {
		t.Errorf("env overrides not applied: %+v", cfg)
	}

	t.Setenv(EnvConcurrency, "many")
	if _, err := Default().ApplyEnv(); err == nil {
		t.Error("expected error for non-numeric concurrency")
	}
}

func TestContextRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Concurrency = 9
	ctx := cfg.WithConfig(context.Background())
	if got := FromContext(ctx); got.Concurrency != 9 {
		t.Errorf("expected config from context, got concurrency %d", got.Concurrency)
	}
	if got := FromContext(context.Background()); got.Concurrency != Default().Concurrency {
		t.Error("expected defaults without a config in context")
	}
}
