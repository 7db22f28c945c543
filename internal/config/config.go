package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/szmania/mega-manager/internal/model"
)

// DefaultFile is the configuration file looked up when no --config flag is given.
const DefaultFile = "megamanager.yaml"

var (
	defaultImageExtensions = []string{".jpg", ".jpeg", ".png"}
	defaultVideoExtensions = []string{".avi", ".mp4", ".wmv"}
)

// Config is the full application configuration, populated once at startup
// and passed by pointer to every constructor that needs it.
type Config struct {
	// Paths to the external collaborator executables.
	MegatoolsDir   string `yaml:"megatools_dir"`
	FFmpegPath     string `yaml:"ffmpeg_path"`
	ImageToolPath  string `yaml:"image_tool_path"`
	DataDir        string `yaml:"data_dir"`
	AccountsOutput string `yaml:"accounts_output"`

	// Optional transfer speed limits in KiB/s, passed to the storage client.
	DownSpeedLimit int `yaml:"down_speed_limit"`
	UpSpeedLimit   int `yaml:"up_speed_limit"`

	ImageExtensions []string `yaml:"image_extensions"`
	VideoExtensions []string `yaml:"video_extensions"`

	Profiles []model.Profile `yaml:"profiles"`
}

// Load reads and validates the YAML configuration file. Any failure here is
// fatal to the run.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.AccountsOutput == "" {
		c.AccountsOutput = "megaAccounts_DATA.txt"
	}
	if len(c.ImageExtensions) == 0 {
		c.ImageExtensions = append([]string(nil), defaultImageExtensions...)
	}
	if len(c.VideoExtensions) == 0 {
		c.VideoExtensions = append([]string(nil), defaultVideoExtensions...)
	}
	for i := range c.ImageExtensions {
		c.ImageExtensions[i] = strings.ToLower(c.ImageExtensions[i])
	}
	for i := range c.VideoExtensions {
		c.VideoExtensions[i] = strings.ToLower(c.VideoExtensions[i])
	}
}

func (c *Config) validate() error {
	if len(c.Profiles) == 0 {
		return errors.New("config must declare at least one profile")
	}
	seen := make(map[string]bool, len(c.Profiles))
	for i := range c.Profiles {
		p := &c.Profiles[i]
		if p.Name == "" {
			return fmt.Errorf("profile %d has no name", i+1)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate profile name %q", p.Name)
		}
		seen[p.Name] = true
		if p.Username == "" {
			return fmt.Errorf("profile %q has no username", p.Name)
		}
		if len(p.PathMappings) == 0 {
			return fmt.Errorf("profile %q has no path mappings", p.Name)
		}
		for j, m := range p.PathMappings {
			if m.LocalPath == "" || m.RemotePath == "" {
				return fmt.Errorf("profile %q mapping %d must set both local and remote roots", p.Name, j+1)
			}
		}
	}
	return nil
}

// IsImageExtension reports whether ext (including the dot) is in the
// configured image set. Comparison is case-insensitive.
func (c *Config) IsImageExtension(ext string) bool {
	return containsFold(c.ImageExtensions, ext)
}

// IsVideoExtension reports whether ext is in the configured video set.
func (c *Config) IsVideoExtension(ext string) bool {
	return containsFold(c.VideoExtensions, ext)
}

func containsFold(set []string, ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range set {
		if e == ext {
			return true
		}
	}
	return false
}
