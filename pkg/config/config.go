// Package config loads threadshot settings from YAML, .env and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/user/threadshot/pkg/adapters/chromebrowser"
	"github.com/user/threadshot/pkg/enginepool"
	"github.com/user/threadshot/pkg/guard"
	"github.com/user/threadshot/pkg/pipeline"
	"github.com/user/threadshot/pkg/ports"
	"github.com/user/threadshot/pkg/server"
	"github.com/user/threadshot/pkg/stages/prefetch"
	"github.com/user/threadshot/pkg/threadshot"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "THREADSHOT_"

// Config represents the full configuration for threadshot.
type Config struct {
	// Browser
	Headless          bool          `yaml:"headless"`
	ChromePath        string        `yaml:"chrome_path"`
	UserAgent         string        `yaml:"user_agent"`
	IgnoreHTTPSErrors bool          `yaml:"ignore_https_errors"`
	ProxyServer       string        `yaml:"proxy_server"`
	InstallChromium   bool          `yaml:"install_chromium"`
	EngineLifetime    time.Duration `yaml:"engine_lifetime"`
	ProactiveTeardown bool          `yaml:"proactive_teardown"`
	Oneshot           bool          `yaml:"oneshot"`

	// Rendering
	Render RenderConfig          `yaml:"render"`
	Preset string                `yaml:"preset"`
	Page   pipeline.RenderConfig `yaml:"page"` // overrides on top of the preset
	Scale  float64               `yaml:"output_scale"`

	// Prefetch
	Prefetch PrefetchConfig `yaml:"prefetch"`

	// Server
	Addr         string  `yaml:"addr"`
	PostsFile    string  `yaml:"posts_file"`
	RequestRate  float64 `yaml:"request_rate"` // render requests per second, 0 = unlimited
	RequestBurst int     `yaml:"request_burst"`

	// Logging and debug
	LogLevel string `yaml:"log_level"`
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// RenderConfig holds admission and retry settings.
type RenderConfig struct {
	Concurrency int           `yaml:"concurrency"`
	Retries     int           `yaml:"retries"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	Timeout     time.Duration `yaml:"timeout"`
}

// PrefetchConfig holds preview download settings.
type PrefetchConfig struct {
	Concurrency int           `yaml:"concurrency"`
	Rate        float64       `yaml:"rate"` // requests per second, 0 = unlimited
	Burst       int           `yaml:"burst"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	g := guard.DefaultConfig()
	return Config{
		Headless:       true,
		EngineLifetime: enginepool.DefaultLifetime,

		Render: RenderConfig{
			Concurrency: g.Concurrency,
			Retries:     g.Retries,
			RetryDelay:  g.RetryDelay,
			Timeout:     g.Timeout,
		},
		Preset: string(threadshot.PresetDesktop),

		Prefetch: PrefetchConfig{
			Concurrency: prefetch.DefaultConcurrency,
			Timeout:     15 * time.Second,
		},

		Addr:     ":8000",
		LogLevel: "info",
		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file over Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Load reads path when non-empty, then .env, then the environment.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return cfg, err
		}
	}
	_ = godotenv.Load()
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from THREADSHOT_* variables and CHROME_PATH.
// A variable NAME may also be given as NAME_FILE pointing at a file.
func (c *Config) ApplyEnv() error {
	var errs []string
	intVar := func(name string, dst *int) {
		if v := Get(EnvPrefix+name, ""); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, EnvPrefix+name)
				return
			}
			*dst = n
		}
	}
	durVar := func(name string, dst *time.Duration) {
		if v := Get(EnvPrefix+name, ""); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, EnvPrefix+name)
				return
			}
			*dst = d
		}
	}
	boolVar := func(name string, dst *bool) {
		if v := Get(EnvPrefix+name, ""); v != "" {
			b, ok := parseBool(v)
			if !ok {
				errs = append(errs, EnvPrefix+name)
				return
			}
			*dst = b
		}
	}

	intVar("RENDER_CONCURRENCY", &c.Render.Concurrency)
	intVar("RENDER_RETRIES", &c.Render.Retries)
	durVar("RENDER_RETRY_DELAY", &c.Render.RetryDelay)
	durVar("RENDER_TIMEOUT", &c.Render.Timeout)
	durVar("ENGINE_LIFETIME", &c.EngineLifetime)
	boolVar("PROACTIVE_TEARDOWN", &c.ProactiveTeardown)
	boolVar("HEADLESS", &c.Headless)
	boolVar("DEBUG", &c.Debug)
	intVar("PREFETCH_CONCURRENCY", &c.Prefetch.Concurrency)

	if v := Get(chromebrowser.ChromePathEnv, ""); v != "" {
		c.ChromePath = v
	}
	if v := Get(EnvPrefix+"PRESET", ""); v != "" {
		c.Preset = v
	}
	if v := Get(EnvPrefix+"ADDR", ""); v != "" {
		c.Addr = v
	}
	if v := Get(EnvPrefix+"POSTS_FILE", ""); v != "" {
		c.PostsFile = v
	}
	if v := Get(EnvPrefix+"LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: malformed %s", ports.ErrInvalidConfig, strings.Join(errs, ", "))
	}
	return nil
}

// Validate checks the settings that cannot be defaulted.
func (c Config) Validate() error {
	if c.Render.Concurrency < 1 {
		return fmt.Errorf("%w: render concurrency must be at least 1", ports.ErrInvalidConfig)
	}
	if c.Render.Retries < 1 {
		return fmt.Errorf("%w: render retries must be at least 1", ports.ErrInvalidConfig)
	}
	if c.Render.Timeout < 0 || c.Render.RetryDelay < 0 || c.EngineLifetime < 0 {
		return fmt.Errorf("%w: durations must not be negative", ports.ErrInvalidConfig)
	}
	if _, err := c.Defaults(); err != nil {
		return err
	}
	return nil
}

// Defaults returns the preset merged with the page overrides.
func (c Config) Defaults() (pipeline.RenderConfig, error) {
	preset, err := threadshot.PresetConfig(threadshot.Preset(c.Preset))
	if err != nil {
		return pipeline.RenderConfig{}, fmt.Errorf("%w: %v", ports.ErrInvalidConfig, err)
	}
	merged := preset.Merge(c.Page)
	if err := merged.Validate(); err != nil {
		return pipeline.RenderConfig{}, err
	}
	return merged, nil
}

// ToServiceOptions converts Config to threadshot.Options. Adapters left
// nil are filled in by threadshot.New.
func (c Config) ToServiceOptions() (threadshot.Options, error) {
	if err := c.Validate(); err != nil {
		return threadshot.Options{}, err
	}
	defaults, _ := c.Defaults()

	return threadshot.Options{
		Browser: ports.BrowserOptions{
			Headless:          c.Headless,
			ChromePath:        c.ChromePath,
			UserAgent:         c.UserAgent,
			IgnoreHTTPSErrors: c.IgnoreHTTPSErrors,
			ProxyServer:       c.ProxyServer,
			InstallIfMissing:  c.InstallChromium,
		},
		Lifetime:          c.EngineLifetime,
		ProactiveTeardown: c.ProactiveTeardown,
		Oneshot:           c.Oneshot,
		Guard: guard.Config{
			Concurrency: c.Render.Concurrency,
			Retries:     c.Render.Retries,
			RetryDelay:  c.Render.RetryDelay,
			Timeout:     c.Render.Timeout,
		},
		Defaults: defaults,
		Prefetch: prefetch.Options{
			Concurrency: c.Prefetch.Concurrency,
			Rate:        rate.Limit(c.Prefetch.Rate),
			Burst:       c.Prefetch.Burst,
		},
		FetchTimeout: c.Prefetch.Timeout,
		OutputScale:  c.Scale,
	}, nil
}

// ToServerOptions converts the server settings.
func (c Config) ToServerOptions() server.Options {
	return server.Options{
		Addr:  c.Addr,
		Rate:  rate.Limit(c.RequestRate),
		Burst: c.RequestBurst,
	}
}

// Get returns the environment variable key, or the trimmed contents of the
// file named by key_FILE, or def.
func Get(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if path := os.Getenv(key + "_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return def
}

func parseBool(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "1", "t", "true", "y", "yes", "on":
		return true, true
	case "0", "f", "false", "n", "no", "off":
		return false, true
	}
	return false, false
}
