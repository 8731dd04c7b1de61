package sites

import (
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/jonesrussell/newscrawl/internal/logger"
)

var (
	// ErrNoSites indicates no site configurations were found.
	ErrNoSites = errors.New("no sites found in configuration")
	// ErrUnknownSite indicates a requested site is not configured.
	ErrUnknownSite = errors.New("unknown site")
)

// sitesFile is the on-disk structure of a sites YAML file.
type sitesFile struct {
	Sites []map[string]any `yaml:"sites"`
}

// Manager holds the validated site configurations for a run.
type Manager struct {
	configs map[string]*Config
	order   []string
}

// Load reads and validates site configurations from a YAML file. A site that
// fails validation is skipped with a loud log; the remaining sites load
// normally. Load fails only when no valid site remains.
func Load(path string, log logger.Interface) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}

	var file sitesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse sites file: %w", err)
	}
	if len(file.Sites) == 0 {
		return nil, ErrNoSites
	}

	manager := &Manager{configs: make(map[string]*Config, len(file.Sites))}
	for _, raw := range file.Sites {
		cfg, decodeErr := decodeSite(raw)
		if decodeErr != nil {
			log.Error("skipping undecodable site config", "error", decodeErr)
			continue
		}
		if validateErr := cfg.Validate(); validateErr != nil {
			log.Error("skipping invalid site config", "site", cfg.Name, "error", validateErr)
			continue
		}
		if _, dup := manager.configs[cfg.Name]; dup {
			log.Error("skipping duplicate site config", "site", cfg.Name)
			continue
		}
		manager.configs[cfg.Name] = cfg
		manager.order = append(manager.order, cfg.Name)
	}

	if len(manager.configs) == 0 {
		return nil, ErrNoSites
	}
	return manager, nil
}

// decodeSite converts one raw YAML map into a Config.
func decodeSite(raw map[string]any) (*Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode site: %w", err)
	}
	return &cfg, nil
}

// Get returns the named site configuration.
func (m *Manager) Get(name string) (*Config, error) {
	cfg, ok := m.configs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSite, name)
	}
	return cfg, nil
}

// All returns every loaded site in file order.
func (m *Manager) All() []*Config {
	configs := make([]*Config, 0, len(m.order))
	for _, name := range m.order {
		configs = append(configs, m.configs[name])
	}
	return configs
}

// Enabled returns the enabled sites in file order.
func (m *Manager) Enabled() []*Config {
	var configs []*Config
	for _, cfg := range m.All() {
		if cfg.Enabled {
			configs = append(configs, cfg)
		}
	}
	return configs
}
