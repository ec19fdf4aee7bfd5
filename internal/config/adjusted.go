package config

import (
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"geomagd/internal/adjusted"
	"geomagd/internal/spec"
)

// LoadAdjusted merges the pipeline's adjusted block with env-var overrides
// (prefix `GEOMAGD_ADJUST__`, delimiter `__`). Channel lists in env vars are
// comma separated, e.g. GEOMAGD_ADJUST__IN_CHANNELS=H,E,Z,F.
func LoadAdjusted(block spec.AdjustedSpec) (adjusted.Config, error) {
	k := koanf.New(".")
	seed := map[string]any{}
	if len(block.InChannels) > 0 {
		seed["in_channels"] = block.InChannels
	}
	if len(block.OutChannels) > 0 {
		seed["out_channels"] = block.OutChannels
	}
	if block.Statefile != "" {
		seed["statefile"] = block.Statefile
	}
	if block.DataType != "" {
		seed["data_type"] = block.DataType
	}
	if block.Location != "" {
		seed["location"] = block.Location
	}
	for key, val := range seed {
		if err := k.Set(key, val); err != nil {
			return adjusted.Config{}, err
		}
	}

	_ = k.Load(env.Provider("GEOMAGD_ADJUST__", "__", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "GEOMAGD_ADJUST__"))
	}), nil)

	var cfg adjusted.Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	cfg.InChannels = splitIfScalar(cfg.InChannels)
	cfg.OutChannels = splitIfScalar(cfg.OutChannels)
	return cfg, nil
}

// Env overrides arrive as one comma-joined string; YAML arrives as a list.
func splitIfScalar(list []string) []string {
	if len(list) == 1 && strings.Contains(list[0], ",") {
		parts := strings.Split(list[0], ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return list
}
