package config

import "sort"

var Presets = map[string]*Config{
	"default": {
		DigitBits: 4, KeyBits: 32, WorkGroupSize: 128, Device: DefaultDevice,
		Bench: BenchConfig{NPow: 20, Iterations: 10},
	},
	// four passes, 256-bucket histograms
	"byte": {
		DigitBits: 8, KeyBits: 32, WorkGroupSize: 256, Device: DefaultDevice,
		Bench: BenchConfig{NPow: 22, Iterations: 10},
	},
	"narrow": {
		DigitBits: 2, KeyBits: 32, WorkGroupSize: 64, Device: DefaultDevice,
		Bench: BenchConfig{NPow: 18, Iterations: 5},
	},
	"wide-groups": {
		DigitBits: 4, KeyBits: 32, WorkGroupSize: 256, Device: DefaultDevice,
		Bench: BenchConfig{NPow: 24, Iterations: 10},
	},
	"small": {
		DigitBits: 4, KeyBits: 32, WorkGroupSize: 128, Device: "cpu",
		Bench: BenchConfig{NPow: 12, Iterations: 3},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
