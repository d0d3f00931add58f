package config

import (
	"time"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Web       WebConfig       `yaml:"web"`
	AIService AIServiceConfig `yaml:"ai_service"`
	Upload    UploadConfig    `yaml:"upload"`
}

type ServerConfig struct {
	IP              string        `yaml:"ip"`
	Port            int           `yaml:"port"`
	MaxRequestBytes int64         `yaml:"max_request_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

// WebConfig controls the bundled browser upload page.
type WebConfig struct {
	Enabled   bool   `yaml:"enabled"`
	StaticDir string `yaml:"static_dir"`
}

// AIServiceConfig describes the external classification endpoint.
type AIServiceConfig struct {
	URL string `yaml:"url"`
	// Timeout of zero leaves the transport default in place.
	Timeout              time.Duration `yaml:"timeout"`
	ForwardAuthorization bool          `yaml:"forward_authorization"`
}

// UploadConfig is the acceptance policy for incoming images.
type UploadConfig struct {
	FieldName         string   `yaml:"field_name"`
	MaxFileSize       int64    `yaml:"max_file_size"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
	VerifyContent     bool     `yaml:"verify_content"`
	MaxWidth          int      `yaml:"max_width"`
	MaxHeight         int      `yaml:"max_height"`
	MaxPixels         int64    `yaml:"max_pixels"`
}
