package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrianliechti/devserve/pkg/mime"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBind = "127.0.0.1"
	DefaultPort = 8000

	DefaultFallback = "index.html"

	DefaultSFTPPort    = 2222
	DefaultMetricsPort = 9090
)

type Config struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
	Root string `yaml:"root"`

	Index    []string          `yaml:"index"`
	Listing  bool              `yaml:"listing"`
	Fallback string            `yaml:"fallback"`
	Mime     map[string]string `yaml:"mime"`
	Sniff    bool              `yaml:"sniff"`
	Cache    bool              `yaml:"cache"`

	Live bool `yaml:"live"`
	Open bool `yaml:"open"`

	SFTP     bool `yaml:"sftp"`
	SFTPPort int  `yaml:"sftp_port"`

	Metrics     bool `yaml:"metrics"`
	MetricsPort int  `yaml:"metrics_port"`
}

func Default() *Config {
	return &Config{
		Bind: DefaultBind,
		Port: DefaultPort,
		Root: ".",

		Listing: true,

		SFTPPort:    DefaultSFTPPort,
		MetricsPort: DefaultMetricsPort,
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	ports := []struct {
		name string
		port int
	}{
		{"port", c.Port},
		{"sftp_port", c.SFTPPort},
		{"metrics_port", c.MetricsPort},
	}

	for _, p := range ports {
		if p.port < 0 || p.port > 65535 {
			errs = append(errs, fmt.Errorf("invalid %s: %d", p.name, p.port))
		}
	}

	if c.Root == "" {
		errs = append(errs, errors.New("root must not be empty"))
	}

	if c.Fallback != "" && !filepath.IsLocal(filepath.FromSlash(strings.TrimPrefix(c.Fallback, "/"))) {
		errs = append(errs, fmt.Errorf("invalid fallback: %s", c.Fallback))
	}

	if _, err := mime.New(c.Mime); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (c *Config) Address() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}
