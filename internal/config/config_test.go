package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/radix/internal/compute"
	"github.com/san-kum/radix/internal/radix"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DigitBits != 4 || cfg.KeyBits != 32 || cfg.WorkGroupSize != 128 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Device != "auto" {
		t.Errorf("expected device auto, got %s", cfg.Device)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if cfg.Params().Iterations() != 8 {
		t.Errorf("expected 8 passes, got %d", cfg.Params().Iterations())
	}
}

func TestLoad_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radix.yaml")
	data := "digit_bits: 8\nwork_group_size: 256\nbench:\n  n_pow: 16\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DigitBits != 8 || cfg.WorkGroupSize != 256 || cfg.Bench.NPow != 16 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.KeyBits != 32 || cfg.Bench.Iterations != DefaultIterations || cfg.Device != "auto" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radix.yaml")
	want := GetPreset("narrow")
	want.Bench.Seed = 42

	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *got != *want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"digit bits", "digit_bits: 0\n", radix.ErrParams},
		{"group size", "work_group_size: 96\n", radix.ErrParams},
		{"device", "device: tpu\n", compute.ErrUnknownBackend},
		{"iterations", "bench:\n  iterations: 0\n", radix.ErrParams},
		{"too small", "bench:\n  n_pow: 4\n", radix.ErrTooSmall},
		{"table too large", "digit_bits: 16\nwork_group_size: 1\n", radix.ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "radix.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	os.WriteFile(path, []byte("digit_bits: [\n"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("byte")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.DigitBits != 8 {
		t.Errorf("expected 8 digit bits, got %d", cfg.DigitBits)
	}

	cfg.DigitBits = 3
	if Presets["byte"].DigitBits != 8 {
		t.Error("GetPreset returned a shared value")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresets_Valid(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("listed %d of %d presets", len(names), len(Presets))
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}
