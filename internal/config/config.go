// Package config loads settings from an optional TOML file, a .env file and
// environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/ironsheep/dental-detect/internal/detection"
	"github.com/ironsheep/dental-detect/internal/imaging"
	"github.com/ironsheep/dental-detect/internal/logger"
)

// DefaultPredictURL is the local prediction service.
const DefaultPredictURL = "http://127.0.0.1:5000/predict"

type ServerConfig struct {
	Host         string   `toml:"host"`
	Port         int      `toml:"port"`
	StaticDir    string   `toml:"static_dir"`
	AllowOrigins []string `toml:"allow_origins"`
}

type PredictConfig struct {
	URL     string            `toml:"url"`
	Timeout string            `toml:"timeout"`
	Headers map[string]string `toml:"headers"`
}

type DisplayConfig struct {
	MaxWidth    int      `toml:"max_width"`
	MaxHeight   int      `toml:"max_height"`
	MaxUploadMB int      `toml:"max_upload_mb"`
	Palette     []string `toml:"palette"`
}

// TreatmentConfig overrides the catalog entry of one class. Empty fields
// keep the built-in text.
type TreatmentConfig struct {
	ClassID     int    `toml:"class_id"`
	ClassName   string `toml:"class_name"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
}

type Config struct {
	LogLevel   string            `toml:"log_level"`
	Server     ServerConfig      `toml:"server"`
	Predict    PredictConfig     `toml:"predict"`
	Display    DisplayConfig     `toml:"display"`
	Treatments []TreatmentConfig `toml:"treatment"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Port:         8080,
			AllowOrigins: []string{"*"},
		},
		Predict: PredictConfig{
			URL:     DefaultPredictURL,
			Timeout: "60s",
			Headers: map[string]string{"Ngrok-Skip-Browser-Warning": "1"},
		},
		Display: DisplayConfig{
			MaxWidth:    imaging.DefaultMaxWidth,
			MaxHeight:   imaging.DefaultMaxHeight,
			MaxUploadMB: imaging.DefaultMaxUploadBytes / (1024 * 1024),
		},
	}
}

// FromEnvironment loads envFiles (".env" when none are given) into the
// environment, then the TOML file named by DENTAL_CONFIG (if set), then
// applies environment overrides. Variables already set in the environment
// win over env files.
func FromEnvironment(envFiles ...string) (*Config, error) {
	// A missing .env file is normal.
	_ = godotenv.Load(envFiles...)
	return Load(os.Getenv("DENTAL_CONFIG"))
}

// Load reads the TOML file at path over the defaults and applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var err error
	c.Server.Host = getEnv("HOST", c.Server.Host)
	if c.Server.Port, err = getEnvAsInt("PORT", c.Server.Port); err != nil {
		return err
	}
	c.Server.StaticDir = getEnv("STATIC_DIR", c.Server.StaticDir)
	if origins := os.Getenv("ALLOW_ORIGINS"); origins != "" {
		c.Server.AllowOrigins = splitList(origins)
	}

	c.Predict.URL = getEnv("PREDICT_URL", c.Predict.URL)
	c.Predict.Timeout = getEnv("PREDICT_TIMEOUT", c.Predict.Timeout)

	if c.Display.MaxUploadMB, err = getEnvAsInt("MAX_UPLOAD_MB", c.Display.MaxUploadMB); err != nil {
		return err
	}

	c.LogLevel = getEnv("DENTAL_LOG_LEVEL", c.LogLevel)
	return nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if _, err := c.PredictURL(); err != nil {
		return err
	}
	if _, err := c.PredictTimeout(); err != nil {
		return err
	}
	if c.Display.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive, got %d", c.Display.MaxUploadMB)
	}
	if c.Display.MaxWidth <= 0 || c.Display.MaxHeight <= 0 {
		return fmt.Errorf("invalid display box %dx%d", c.Display.MaxWidth, c.Display.MaxHeight)
	}
	if len(c.Display.Palette) > 0 {
		if _, err := imaging.ParsePalette(c.Display.Palette...); err != nil {
			return err
		}
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// PredictURL resolves the endpoint. A URL without a path is treated as a
// service base URL and gets "/predict" appended.
func (c *Config) PredictURL() (string, error) {
	u, err := url.Parse(strings.TrimSpace(c.Predict.URL))
	if err != nil {
		return "", fmt.Errorf("invalid predict url %q: %w", c.Predict.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid predict url %q: scheme must be http or https", c.Predict.URL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid predict url %q: missing host", c.Predict.URL)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/predict"
	}
	return u.String(), nil
}

// PredictTimeout parses the request timeout, e.g. "60s" or "2m".
func (c *Config) PredictTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Predict.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid predict timeout %q: %w", c.Predict.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("predict timeout must be positive, got %s", d)
	}
	return d, nil
}

// IntakeOptions returns the upload limit and display box.
func (c *Config) IntakeOptions() imaging.IntakeOptions {
	return imaging.IntakeOptions{
		MaxBytes:  int64(c.Display.MaxUploadMB) * 1024 * 1024,
		MaxWidth:  c.Display.MaxWidth,
		MaxHeight: c.Display.MaxHeight,
	}
}

// Palette returns the configured overlay colours or the default palette.
func (c *Config) Palette() imaging.Palette {
	if len(c.Display.Palette) == 0 {
		return imaging.DefaultPalette
	}
	p, err := imaging.ParsePalette(c.Display.Palette...)
	if err != nil {
		return imaging.DefaultPalette
	}
	return p
}

// Level returns the parsed log level.
func (c *Config) Level() logger.Level {
	level, _ := logger.ParseLevel(c.LogLevel)
	return level
}

// Catalog returns the built-in treatment catalog with the [[treatment]]
// overrides applied.
func (c *Config) Catalog() detection.Catalog {
	base := detection.DefaultCatalog()
	overrides := make(detection.Catalog, len(c.Treatments))
	for _, t := range c.Treatments {
		entry := base[t.ClassID]
		if prev, ok := overrides[t.ClassID]; ok {
			entry = prev
		}
		if t.ClassName != "" {
			entry.ClassName = t.ClassName
		}
		if t.Title != "" {
			entry.Treatment.Title = t.Title
		}
		if t.Description != "" {
			entry.Treatment.Description = t.Description
		}
		overrides[t.ClassID] = entry
	}
	return base.Merge(overrides)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns defaultValue when key is unset and an error when it is
// set to something other than an integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be an integer", key, value)
	}
	return intValue, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
