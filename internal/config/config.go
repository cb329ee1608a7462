package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/DarkFirexs/Parser/internal/checker"
	"github.com/DarkFirexs/Parser/internal/collector"
)

type Config struct {
	// App Settings
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`
	Workers  int    `envconfig:"MAX_WORKERS" default:"30"`
	TopN     int    `envconfig:"TOP_N" default:"100"`

	// Network Logic
	FetchTimeout     time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s"`
	ProbeTimeout     time.Duration `envconfig:"PROBE_TIMEOUT" default:"3s"`
	GeoTimeout       time.Duration `envconfig:"GEO_TIMEOUT" default:"5s"`
	GeoAPIURL        string        `envconfig:"GEO_API_URL" default:"http://ip-api.com/json/{host}?fields=country,countryCode"`
	GeoRatePerMinute int           `envconfig:"GEO_RATE_PER_MINUTE" default:"45"`

	// File System Paths
	GeoIPPath string `envconfig:"GEOIP_PATH"`
	OutputDir string `envconfig:"OUTPUT_DIR" default:"."`
	ListsFile string `envconfig:"LISTS_FILE"`
}

// Lists holds the source URLs and policy lists. Empty entries in a YAML
// file keep the built-in defaults.
type Lists struct {
	Sources             []string `yaml:"sources"`
	AllowedServerNames  []string `yaml:"allowed_sni"`
	PreferredTransports []string `yaml:"preferred_transports"`
}

// Load reads .env, if present, and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &cfg, nil
}

// DefaultLists returns fresh copies of the built-in lists.
func DefaultLists() Lists {
	return Lists{
		Sources:             slices.Clone(collector.DefaultSources),
		AllowedServerNames:  slices.Clone(checker.DefaultAllowedServerNames),
		PreferredTransports: slices.Clone(checker.DefaultPreferredTransports),
	}
}

// LoadLists returns DefaultLists overridden by the YAML file at path.
// An empty path returns the defaults.
func LoadLists(path string) (Lists, error) {
	lists := DefaultLists()
	if path == "" {
		return lists, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return lists, fmt.Errorf("read lists file: %w", err)
	}

	var override Lists
	if err := yaml.Unmarshal(data, &override); err != nil {
		return lists, fmt.Errorf("parse lists file %s: %w", path, err)
	}

	if len(override.Sources) > 0 {
		lists.Sources = override.Sources
	}
	if len(override.AllowedServerNames) > 0 {
		lists.AllowedServerNames = override.AllowedServerNames
	}
	if len(override.PreferredTransports) > 0 {
		lists.PreferredTransports = override.PreferredTransports
	}
	return lists, nil
}

// Policy builds the checker policy from the lists.
func (l Lists) Policy() checker.Policy {
	p := checker.DefaultPolicy()
	p.AllowedServerNames = slices.Clone(l.AllowedServerNames)
	p.PreferredTransports = slices.Clone(l.PreferredTransports)
	return p
}
