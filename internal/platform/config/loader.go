package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ai-image-gateway/internal/platform/errors"
)

const (
	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "GATEWAY_CONFIG"
	// DefaultConfigPath is read when present in the working directory.
	DefaultConfigPath = "config.yaml"

	envPrefix = "GATEWAY_"
)

// Loader assembles configuration from defaults, an optional YAML file and the environment.
type Loader struct {
	useDotEnv bool
	path      string
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a loader that reads .env, config.yaml and process environment.
func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		lookupEnv: os.LookupEnv,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath pins the YAML file to read (useful for tests).
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// WithEnv replaces the environment lookup (useful for tests).
func (l *Loader) WithEnv(lookup func(string) (string, bool)) *Loader {
	if lookup != nil {
		l.lookupEnv = lookup
	}
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load builds, normalises and validates the configuration.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(errors.KindConfig, "config.load", "failed to read .env", err)
		}
	}

	cfg := DefaultConfig()
	path, err := l.resolvePath()
	if err != nil {
		return nil, err
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.KindConfig, "config.load", "failed to read config file "+path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, errors.Wrap(errors.KindConfig, "config.load", "failed to parse config file "+path, err)
		}
	} else {
		path = "default"
	}

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Result{Config: cfg, Path: path}, nil
}

func (l *Loader) resolvePath() (string, error) {
	if l.path != "" {
		return l.path, nil
	}
	if p, ok := l.lookupEnv(EnvConfigPath); ok && strings.TrimSpace(p) != "" {
		return strings.TrimSpace(p), nil
	}
	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return DefaultConfigPath, nil
	} else if !os.IsNotExist(err) {
		return "", errors.Wrap(errors.KindConfig, "config.load", "failed to stat "+DefaultConfigPath, err)
	}
	return "", nil
}

type envBinding struct {
	keys  []string
	apply func(cfg *Config, value string) error
}

// envBindings maps environment variables onto config fields. AISERVICE__URL keeps
// the key naming used by earlier deployments of the gateway.
var envBindings = []envBinding{
	{[]string{envPrefix + "SERVER_IP"}, func(c *Config, v string) error { c.Server.IP = v; return nil }},
	{[]string{envPrefix + "SERVER_PORT", "PORT"}, func(c *Config, v string) error { return setInt(&c.Server.Port, v) }},
	{[]string{envPrefix + "SERVER_MAX_REQUEST_BYTES"}, func(c *Config, v string) error { return setInt64(&c.Server.MaxRequestBytes, v) }},
	{[]string{envPrefix + "SERVER_SHUTDOWN_TIMEOUT"}, func(c *Config, v string) error { return setDuration(&c.Server.ShutdownTimeout, v) }},
	{[]string{envPrefix + "LOG_LEVEL"}, func(c *Config, v string) error { c.Log.Level = v; return nil }},
	{[]string{envPrefix + "LOG_DIR"}, func(c *Config, v string) error { c.Log.Dir = v; return nil }},
	{[]string{envPrefix + "LOG_FILE"}, func(c *Config, v string) error { c.Log.File = v; return nil }},
	{[]string{envPrefix + "WEB_ENABLED"}, func(c *Config, v string) error { return setBool(&c.Web.Enabled, v) }},
	{[]string{envPrefix + "WEB_STATIC_DIR"}, func(c *Config, v string) error { c.Web.StaticDir = v; return nil }},
	{[]string{envPrefix + "AI_SERVICE_URL", "AISERVICE__URL"}, func(c *Config, v string) error { c.AIService.URL = v; return nil }},
	{[]string{envPrefix + "AI_SERVICE_TIMEOUT"}, func(c *Config, v string) error { return setDuration(&c.AIService.Timeout, v) }},
	{[]string{envPrefix + "AI_SERVICE_FORWARD_AUTHORIZATION"}, func(c *Config, v string) error { return setBool(&c.AIService.ForwardAuthorization, v) }},
	{[]string{envPrefix + "UPLOAD_MAX_FILE_SIZE"}, func(c *Config, v string) error { return setInt64(&c.Upload.MaxFileSize, v) }},
	{[]string{envPrefix + "UPLOAD_ALLOWED_EXTENSIONS"}, func(c *Config, v string) error {
		c.Upload.AllowedExtensions = strings.Split(v, ",")
		return nil
	}},
	{[]string{envPrefix + "UPLOAD_VERIFY_CONTENT"}, func(c *Config, v string) error { return setBool(&c.Upload.VerifyContent, v) }},
}

func (l *Loader) applyEnv(cfg *Config) error {
	for _, binding := range envBindings {
		for _, key := range binding.keys {
			value, ok := l.lookupEnv(key)
			if !ok || strings.TrimSpace(value) == "" {
				continue
			}
			if err := binding.apply(cfg, strings.TrimSpace(value)); err != nil {
				return errors.Wrap(errors.KindConfig, "config.env", fmt.Sprintf("invalid value for %s", key), err)
			}
			break
		}
	}
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, v string) error {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// Normalize fills empty fields with defaults and canonicalises the extension list.
func (c *Config) Normalize() {
	if strings.TrimSpace(c.Upload.FieldName) == "" {
		c.Upload.FieldName = "image"
	}

	exts := make([]string, 0, len(c.Upload.AllowedExtensions))
	seen := make(map[string]struct{}, len(c.Upload.AllowedExtensions))
	for _, ext := range c.Upload.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	c.Upload.AllowedExtensions = exts

	c.AIService.URL = strings.TrimSpace(c.AIService.URL)
}

// Validate rejects configurations the gateway cannot serve with, so that a
// misconfigured AI endpoint stops the process at startup.
func (c *Config) Validate() error {
	if err := ValidateServiceURL(c.AIService.URL); err != nil {
		return errors.Wrap(errors.KindConfig, "config.validate", "ai_service.url is invalid", err)
	}
	if c.AIService.Timeout < 0 {
		return errors.New(errors.KindConfig, "config.validate", "ai_service.timeout must not be negative")
	}
	if c.Upload.MaxFileSize <= 0 {
		return errors.New(errors.KindConfig, "config.validate", "upload.max_file_size must be positive")
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		return errors.New(errors.KindConfig, "config.validate", "upload.allowed_extensions must not be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New(errors.KindConfig, "config.validate", fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	return nil
}

// ValidateServiceURL checks that raw is an absolute http(s) URL with a host.
func ValidateServiceURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is empty")
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}
