package providers

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EndpointConfig is the per-provider transport configuration. Base URLs
// default to the production partner endpoints and can be overridden from a
// YAML file, which is how the adapter tests point providers at fake servers.
type EndpointConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"` // seconds
	Enabled *bool  `yaml:"enabled"`
}

// Credentials holds the secrets the bootstrap layer injects from the
// environment. An adapter whose credentials are blank is built disabled.
type Credentials struct {
	WebWunderAPIKey          string
	ByteMeAPIKey             string
	PingPerfectClientID      string
	PingPerfectSigningSecret string
	VerbynDichAPIKey         string
	ServusSpeedUsername      string
	ServusSpeedPassword      string
}

// Config aggregates endpoint settings for all partner services.
type Config struct {
	WebWunder   EndpointConfig `yaml:"webwunder"`
	ByteMe      EndpointConfig `yaml:"byteme"`
	PingPerfect EndpointConfig `yaml:"pingperfect"`
	VerbynDich  EndpointConfig `yaml:"verbyndich"`
	ServusSpeed EndpointConfig `yaml:"servusspeed"`

	Credentials Credentials `yaml:"-"`
}

// DefaultConfig returns the production endpoint set.
func DefaultConfig() Config {
	return Config{
		WebWunder:   EndpointConfig{BaseURL: "https://webwunder.gendev7.check24.fun/endpunkte/soap/ws", Timeout: 20},
		ByteMe:      EndpointConfig{BaseURL: "https://byteme.gendev7.check24.fun/app/api/products/data", Timeout: 20},
		PingPerfect: EndpointConfig{BaseURL: "https://pingperfect.gendev7.check24.fun", Timeout: 20},
		VerbynDich:  EndpointConfig{BaseURL: "https://verbyndich.gendev7.check24.fun/check24/data", Timeout: 15},
		ServusSpeed: EndpointConfig{BaseURL: "https://servusspeed.gendev7.check24.fun", Timeout: 15},
	}
}

// LoadConfig merges optional YAML overrides from path into the defaults.
// A missing file is not an error; the defaults stand.
func LoadConfig(path string, creds Credentials) (Config, error) {
	cfg := DefaultConfig()
	cfg.Credentials = creds

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read provider config: %w", err)
	}

	var overrides Config
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return cfg, fmt.Errorf("failed to parse provider config: %w", err)
	}

	merge(&cfg.WebWunder, overrides.WebWunder)
	merge(&cfg.ByteMe, overrides.ByteMe)
	merge(&cfg.PingPerfect, overrides.PingPerfect)
	merge(&cfg.VerbynDich, overrides.VerbynDich)
	merge(&cfg.ServusSpeed, overrides.ServusSpeed)

	return cfg, nil
}

func merge(dst *EndpointConfig, src EndpointConfig) {
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.Timeout > 0 {
		dst.Timeout = src.Timeout
	}
	if src.Enabled != nil {
		dst.Enabled = src.Enabled
	}
}

func (e EndpointConfig) enabled() bool {
	return e.Enabled == nil || *e.Enabled
}
