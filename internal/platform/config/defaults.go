package config

import "time"

// MaxUploadSize is the 10MB ceiling advertised to callers.
const MaxUploadSize = 10 * 1024 * 1024

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:              "0.0.0.0",
			Port:            5001,
			MaxRequestBytes: 32 * 1024 * 1024,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "INFO",
			Dir:   "data/logs",
			File:  "gateway.log",
		},
		Web: WebConfig{
			Enabled:   true,
			StaticDir: "./web",
		},
		AIService: AIServiceConfig{
			URL:                  "http://localhost:5002/process",
			ForwardAuthorization: true,
		},
		Upload: UploadConfig{
			FieldName:         "image",
			MaxFileSize:       MaxUploadSize,
			AllowedExtensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp"},
			VerifyContent:     false,
			MaxWidth:          8192,
			MaxHeight:         8192,
			MaxPixels:         40_000_000,
		},
	}
}
