// Package config loads the command configuration: a YAML file, optional
// .env files and REGIONCASCADE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-regioncascade/pkg/region"
)

const envPrefix = "REGIONCASCADE_"

// Upstream describes the region API.
type Upstream struct {
	ChildrenURL   string            `yaml:"children_url"`
	AncestorsURL  string            `yaml:"ancestors_url"`
	ParentParam   string            `yaml:"parent_param"`
	AncestorParam string            `yaml:"ancestor_param"`
	Headers       map[string]string `yaml:"headers"`
	Timeout       time.Duration     `yaml:"timeout"`
	// OpenAPI points to a document resolving the endpoints by operation id.
	OpenAPI            string `yaml:"openapi"`
	ChildrenOperation  string `yaml:"children_operation"`
	AncestorsOperation string `yaml:"ancestors_operation"`
}

type Cascade struct {
	Placeholder        string            `yaml:"placeholder"`
	ErrorServerMessage string            `yaml:"error_server_message"`
	RootLevel          string            `yaml:"root_level"`
	RootParentID       string            `yaml:"root_parent_id"`
	LevelCodes         map[string]string `yaml:"level_codes"`
}

type Session struct {
	CookieName string        `yaml:"cookie_name"`
	TTL        time.Duration `yaml:"ttl"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Listen    string `yaml:"listen"`
	BasePath  string `yaml:"base_path"`
	RoutePath string `yaml:"route_path"`
	// Fixture is a YAML region tree served in place of the upstream. It is
	// used when no upstream is configured; "embedded" selects the bundled
	// sample.
	Fixture  string   `yaml:"fixture"`
	Upstream Upstream `yaml:"upstream"`
	Cascade  Cascade  `yaml:"cascade"`
	Session  Session  `yaml:"session"`
	Log      Log      `yaml:"log"`
}

func Default() Config {
	return Config{
		Listen:    ":8080",
		RoutePath: "/regions",
		Upstream: Upstream{
			ParentParam:        "parent_id",
			AncestorParam:      "administrative_id",
			Timeout:            10 * time.Second,
			ChildrenOperation:  "listChildren",
			AncestorsOperation: "listAncestors",
		},
		Session: Session{
			CookieName: "regioncascade_session",
			TTL:        30 * time.Minute,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// LoadEnvFiles loads the given .env files into the process environment.
// Missing files are skipped and variables already set are kept.
func LoadEnvFiles(files ...string) error {
	for _, file := range files {
		if file == "" {
			continue
		}
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("config: load %s: %w", file, err)
		}
	}
	return nil
}

// Load reads path (optional), applies environment overrides and validates the
// result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if cfg, err = Parse(data); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode yaml: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from REGIONCASCADE_* variables and LOG_LEVEL /
// LOG_FORMAT.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(name)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
		*dst = d
		return nil
	}

	str(envPrefix+"LISTEN", &c.Listen)
	str(envPrefix+"BASE_PATH", &c.BasePath)
	str(envPrefix+"ROUTE_PATH", &c.RoutePath)
	str(envPrefix+"FIXTURE", &c.Fixture)
	str(envPrefix+"CHILDREN_URL", &c.Upstream.ChildrenURL)
	str(envPrefix+"ANCESTORS_URL", &c.Upstream.AncestorsURL)
	str(envPrefix+"PARENT_PARAM", &c.Upstream.ParentParam)
	str(envPrefix+"ANCESTOR_PARAM", &c.Upstream.AncestorParam)
	str(envPrefix+"OPENAPI", &c.Upstream.OpenAPI)
	str(envPrefix+"PLACEHOLDER", &c.Cascade.Placeholder)
	str(envPrefix+"ERROR_MESSAGE", &c.Cascade.ErrorServerMessage)
	str(envPrefix+"ROOT_LEVEL", &c.Cascade.RootLevel)
	str(envPrefix+"ROOT_PARENT_ID", &c.Cascade.RootParentID)
	str(envPrefix+"COOKIE_NAME", &c.Session.CookieName)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	if err := dur(envPrefix+"UPSTREAM_TIMEOUT", &c.Upstream.Timeout); err != nil {
		return err
	}
	return dur(envPrefix+"SESSION_TTL", &c.Session.TTL)
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Listen) == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if (c.Upstream.ChildrenURL == "") != (c.Upstream.AncestorsURL == "") {
		errs = append(errs, errors.New("upstream children_url and ancestors_url must be set together"))
	}
	if c.Upstream.OpenAPI != "" && (c.Upstream.ChildrenOperation == "" || c.Upstream.AncestorsOperation == "") {
		errs = append(errs, errors.New("upstream openapi requires children_operation and ancestors_operation"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}
	if c.Upstream.Timeout < 0 {
		errs = append(errs, errors.New("upstream timeout must not be negative"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}

// HasUpstream reports whether a real region API is configured.
func (c Config) HasUpstream() bool {
	return c.Upstream.OpenAPI != "" || c.Upstream.ChildrenURL != ""
}

// LevelCodes merges the configured codes over the defaults.
func (c Config) LevelCodes() region.LevelCodes {
	codes := region.DefaultLevelCodes()
	names := make([]string, 0, len(c.Cascade.LevelCodes))
	for name := range c.Cascade.LevelCodes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		codes = codes.With(name, c.Cascade.LevelCodes[name])
	}
	return codes
}
