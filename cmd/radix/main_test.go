package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/radix/internal/bench"
	"github.com/san-kum/radix/internal/radix"
)

func TestReadWriteKeys(t *testing.T) {
	keys, err := readKeys(strings.NewReader("5 3\n8\t1  4294967295\n"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !slices.Equal(keys, []uint32{5, 3, 8, 1, 4294967295}) {
		t.Errorf("got %v", keys)
	}

	var buf bytes.Buffer
	if err := writeKeys(&buf, []uint32{1, 22}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "1\n22\n" {
		t.Errorf("got %q", buf.String())
	}

	for _, bad := range []string{"-1", "4294967296", "abc"} {
		if _, err := readKeys(strings.NewReader(bad)); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestPadKeys(t *testing.T) {
	tests := []struct {
		name string
		n    int
		p    radix.Params
		want int
		fill uint32
	}{
		{"below one group", 5, radix.DefaultParams(), 128, 0xFFFFFFFF},
		{"rounds up", 300, radix.DefaultParams(), 512, 0xFFFFFFFF},
		{"exact", 256, radix.DefaultParams(), 256, 0},
		{"narrow keys", 3, radix.Params{DigitBits: 4, KeyBits: 12, WorkGroupSize: 8}, 8, 0xFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := padKeys(make([]uint32, tt.n), tt.p)
			if len(out) != tt.want {
				t.Fatalf("padded to %d, want %d", len(out), tt.want)
			}
			if tt.n < tt.want && out[len(out)-1] != tt.fill {
				t.Errorf("fill %#x, want %#x", out[len(out)-1], tt.fill)
			}
		})
	}
}

func newFlagCmd(args ...string) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	addSorterFlags(cmd)
	addBenchFlags(cmd)
	cmd.Flags().Parse(args)
	return cmd
}

func TestResolveConfig(t *testing.T) {
	t.Cleanup(func() { preset, configFile = "", "" })

	cfg, err := resolveConfig(newFlagCmd())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.DigitBits != 4 || cfg.Bench.NPow != 20 {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	path := filepath.Join(t.TempDir(), "radix.yaml")
	os.WriteFile(path, []byte("digit_bits: 8\nwork_group_size: 256\ndevice: cpu\n"), 0644)

	cfg, err = resolveConfig(newFlagCmd("--config", path, "--wg-size", "512", "--npow", "12"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.DigitBits != 8 || cfg.WorkGroupSize != 512 || cfg.Bench.NPow != 12 || cfg.Device != "cpu" {
		t.Errorf("flags did not override the file: %+v", cfg)
	}

	configFile = ""
	cfg, err = resolveConfig(newFlagCmd("--preset", "byte"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.DigitBits != 8 {
		t.Errorf("preset not applied: %+v", cfg)
	}

	preset = ""
	if _, err := resolveConfig(newFlagCmd("--digit-bits", "0")); err == nil {
		t.Error("expected validation error")
	}
}

func TestSortRoundTrip(t *testing.T) {
	t.Cleanup(func() { device = "auto" })

	cmd := newFlagCmd("--device", "cpu", "--wg-size", "8")
	cfg, err := resolveConfig(cmd)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	s, err := openSorter(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Backend().Cleanup()

	keys := []uint32{9, 0xFFFFFFFF, 2, 7, 2}
	out, err := s.Sort(padKeys(keys, s.Params()))
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	if !slices.Equal(out[:len(keys)], []uint32{2, 2, 7, 9, 0xFFFFFFFF}) {
		t.Errorf("got %v", out[:len(keys)])
	}
}

func TestHistogramInput_UsesConfigFile(t *testing.T) {
	t.Cleanup(func() { configFile = "" })

	path := filepath.Join(t.TempDir(), "radix.yaml")
	os.WriteFile(path, []byte("key_bits: 12\nwork_group_size: 8\nbench:\n  n_pow: 10\n"), 0644)

	cfg, err := resolveConfig(newFlagCmd("--config", path))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	keys := histogramInput(cfg)
	if len(keys) != 1<<10 {
		t.Fatalf("got %d keys, want %d", len(keys), 1<<10)
	}
	for i, k := range keys {
		if k > 0xFFF {
			t.Fatalf("keys[%d] = %#x exceeds key_bits", i, k)
		}
	}
}

func TestBenchNarrowKeys(t *testing.T) {
	t.Cleanup(func() { device, keyBits = "auto", radix.DefaultKeyBits })

	cfg, err := resolveConfig(newFlagCmd("--device", "cpu", "--key-bits", "16", "--npow", "10", "--iters", "1"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	s, err := openSorter(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Backend().Cleanup()

	res, err := bench.Run(context.Background(), s, benchConfig(cfg))
	if err != nil {
		t.Fatalf("bench: %v", err)
	}
	if res.N != 1<<10 {
		t.Errorf("n = %d", res.N)
	}
}
