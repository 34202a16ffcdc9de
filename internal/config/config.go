package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const appDirName = "dualview"

type Config struct {
	Log    LogConfig    `yaml:"log"`
	Window WindowConfig `yaml:"window"`
	Zoom   ZoomConfig   `yaml:"zoom"`
	Update UpdateConfig `yaml:"update"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
	JSON  bool   `yaml:"json"`
}

type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type ZoomConfig struct {
	Step float64 `yaml:"step"`
	Min  float64 `yaml:"min"`
}

type UpdateConfig struct {
	FeedURL           string        `yaml:"feed_url"`
	Interval          time.Duration `yaml:"interval"`
	AutoDownload      bool          `yaml:"auto_download"`
	AutoInstallOnQuit bool          `yaml:"auto_install_on_quit"`
	CacheDir          string        `yaml:"cache_dir"`
}

func Default() Config {
	return Config{
		Log: LogConfig{
			Level: "info",
			File:  defaultLogFile(),
		},
		Window: WindowConfig{
			Title:  "dualview",
			Width:  1024,
			Height: 768,
		},
		Zoom: ZoomConfig{
			Step: 0.1,
			Min:  0.5,
		},
		Update: UpdateConfig{
			Interval:          time.Hour,
			AutoDownload:      true,
			AutoInstallOnQuit: true,
			CacheDir:          defaultCacheDir(),
		},
	}
}

func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, appDirName, "config.yaml"), nil
}

// Load reads the config file at the standard location, or path when set,
// and applies environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if err := mergeFile(&cfg, path); err != nil {
		return nil, err
	}
	applyEnv(&cfg, os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	// Unmarshalling over the defaults keeps every key the file leaves out.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	switch {
	case getenv("LOG_LEVEL") != "":
		cfg.Log.Level = getenv("LOG_LEVEL")
	case getenv("DEBUG") == "1":
		cfg.Log.Level = "debug"
	}

	if getenv("DUALVIEW_JSON_LOGS") == "true" {
		cfg.Log.JSON = true
	}
	if v := getenv("DUALVIEW_FEED_URL"); v != "" {
		cfg.Update.FeedURL = v
	}
	if v := getenv("DUALVIEW_UPDATE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Update.Interval = d
		}
	}
}

func (c *Config) Validate() error {
	var errs []error

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Zoom.Min <= 0 {
		errs = append(errs, fmt.Errorf("zoom.min must be positive, got %v", c.Zoom.Min))
	}
	if c.Zoom.Step <= 0 {
		errs = append(errs, fmt.Errorf("zoom.step must be positive, got %v", c.Zoom.Step))
	}
	if c.Update.Interval <= 0 {
		errs = append(errs, fmt.Errorf("update.interval must be positive, got %v", c.Update.Interval))
	}
	if c.Update.FeedURL != "" && !strings.HasPrefix(c.Update.FeedURL, "http://") && !strings.HasPrefix(c.Update.FeedURL, "https://") {
		errs = append(errs, fmt.Errorf("update.feed_url must be an http(s) URL, got %q", c.Update.FeedURL))
	}

	return errors.Join(errs...)
}

func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appDirName, "logs", "main.log")
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appDirName+"-updater")
	}
	return filepath.Join(dir, appDirName, "pending")
}
