package process

import "ai-image-gateway/internal/domain/eventbus"

// Response bodies for failures. They are sent as text/plain.
const (
	MsgUpstreamUnavailable = "AI service is temporarily unavailable"
	MsgUnexpectedFailure   = "An error occurred while processing the image"
)

// StatusData is the data field of GET /api/process.
type StatusData struct {
	AIServiceHost     string         `json:"ai_service_host"`
	FieldName         string         `json:"field_name"`
	AllowedExtensions []string       `json:"allowed_extensions"`
	MaxFileSize       int64          `json:"max_file_size"`
	VerifyContent     bool           `json:"verify_content"`
	Stats             eventbus.Stats `json:"stats"`
}
