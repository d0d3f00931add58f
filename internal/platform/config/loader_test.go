package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-image-gateway/internal/platform/errors"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Load(t *testing.T) {
	path := writeConfig(t, `
server:
  ip: "127.0.0.1"
  port: 8080
  shutdown_timeout: 3s
log:
  log_level: "DEBUG"
  log_dir: "/tmp/logs"
  log_file: "test.log"
ai_service:
  url: "http://ai.internal:5002/process"
  timeout: 30s
upload:
  allowed_extensions: ["JPG", "png", ".Gif", "png"]
`)

	result, err := NewLoader().
		WithDotEnv(false).
		WithPath(path).
		WithEnv(envMap(nil)).
		Load()
	require.NoError(t, err)

	cfg := result.Config
	assert.Equal(t, path, result.Path)
	assert.Equal(t, "127.0.0.1", cfg.Server.IP)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
	assert.Equal(t, "http://ai.internal:5002/process", cfg.AIService.URL)
	assert.Equal(t, 30*time.Second, cfg.AIService.Timeout)
	assert.Equal(t, []string{".jpg", ".png", ".gif"}, cfg.Upload.AllowedExtensions)

	// untouched sections keep their defaults
	assert.Equal(t, int64(MaxUploadSize), cfg.Upload.MaxFileSize)
	assert.Equal(t, "image", cfg.Upload.FieldName)
	assert.True(t, cfg.AIService.ForwardAuthorization)
}

func TestLoader_DefaultsWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	result, err := NewLoader().WithDotEnv(false).WithEnv(envMap(nil)).Load()
	require.NoError(t, err)

	assert.Equal(t, "default", result.Path)
	assert.Equal(t, DefaultConfig().AIService.URL, result.Config.AIService.URL)
	assert.Equal(t, []string{".jpg", ".jpeg", ".png", ".gif", ".bmp"}, result.Config.Upload.AllowedExtensions)
}

func TestLoader_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "ai_service:\n  url: http://from-file/process\n")

	result, err := NewLoader().
		WithDotEnv(false).
		WithPath(path).
		WithEnv(envMap(map[string]string{
			"AISERVICE__URL":                    "http://legacy-key:9000/process",
			"GATEWAY_SERVER_PORT":               "9090",
			"GATEWAY_UPLOAD_VERIFY_CONTENT":     "true",
			"GATEWAY_UPLOAD_ALLOWED_EXTENSIONS": "jpg, png",
		})).
		Load()
	require.NoError(t, err)

	assert.Equal(t, "http://legacy-key:9000/process", result.Config.AIService.URL)
	assert.Equal(t, 9090, result.Config.Server.Port)
	assert.True(t, result.Config.Upload.VerifyContent)
	assert.Equal(t, []string{".jpg", ".png"}, result.Config.Upload.AllowedExtensions)
}

func TestLoader_PrefixedKeyWinsOverLegacyKey(t *testing.T) {
	result, err := NewLoader().
		WithDotEnv(false).
		WithPath(writeConfig(t, "{}\n")).
		WithEnv(envMap(map[string]string{
			"GATEWAY_AI_SERVICE_URL": "http://primary/process",
			"AISERVICE__URL":         "http://legacy/process",
		})).
		Load()
	require.NoError(t, err)
	assert.Equal(t, "http://primary/process", result.Config.AIService.URL)
}

func TestLoader_FailsFast(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "unparsable url", yaml: "ai_service:\n  url: \"::not a url\"\n"},
		{name: "relative url", yaml: "ai_service:\n  url: \"/process\"\n"},
		{name: "unsupported scheme", yaml: "ai_service:\n  url: \"ftp://host/process\"\n"},
		{name: "empty url", yaml: "ai_service:\n  url: \"\"\n"},
		{name: "non-positive size", yaml: "upload:\n  max_file_size: 0\n"},
		{name: "empty allow-list", yaml: "upload:\n  allowed_extensions: []\n"},
		{name: "bad env int", yaml: "{}\n", env: map[string]string{"GATEWAY_SERVER_PORT": "eighty"}},
		{name: "malformed yaml", yaml: "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().
				WithDotEnv(false).
				WithPath(writeConfig(t, tt.yaml)).
				WithEnv(envMap(tt.env)).
				Load()
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, errors.KindConfig), "got %v", err)
		})
	}
}

func TestValidateServiceURL(t *testing.T) {
	assert.NoError(t, ValidateServiceURL("https://ai.example.com/api/process"))
	assert.NoError(t, ValidateServiceURL("http://localhost:5002/process"))
	assert.Error(t, ValidateServiceURL("localhost:5002"))
	assert.Error(t, ValidateServiceURL("http://"))
}
