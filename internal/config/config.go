// Package config loads and persists the controller configuration: lighting
// topology (regions over physical channels) plus rider preferences. It also
// watches the config file and signals the control core when it changes.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/openboard/lightcore/internal/lights"
)

type Prefs struct {
	// Renderer is the default light mode name applied after a config
	// (re)load, e.g. "running" or "rainbow".
	Renderer   string  `yaml:"renderer"`
	Brightness float64 `yaml:"brightness"`
}

type Config struct {
	Prefs  Prefs         `yaml:"prefs"`
	Lights lights.Config `yaml:"lights"`
}

// DefaultMode is the parsed default renderer mode.
func (c *Config) DefaultMode() lights.Mode {
	return lights.ParseMode(c.Prefs.Renderer)
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.Lights.Normalize()
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Default returns a small single-channel topology used when no config file
// is present: tail brake section, headlight, and two turn regions.
func Default() *Config {
	c := &Config{
		Prefs: Prefs{Renderer: "running", Brightness: 0.8},
		Lights: lights.Config{
			Channels: map[uint8]lights.Channel{
				0: {Channel: 0, LEDs: 60, Type: lights.NeoPixelGRB},
			},
			Regions: map[string]lights.Region{
				"brake": {Sections: []lights.Section{{Channel: 0, Start: 0, End: 14}}},
				"front": {Sections: []lights.Section{{Channel: 0, Start: 15, End: 29}}},
				"left":  {Sections: []lights.Section{{Channel: 0, Start: 30, End: 44}}},
				"right": {Sections: []lights.Section{{Channel: 0, Start: 45, End: 59}}},
			},
		},
	}
	c.Lights.Normalize()
	return c
}
