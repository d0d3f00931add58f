package eventbus

import "time"

// 上传事件类型定义
const (
	EventUploadReceived  = "upload:received"
	EventUploadRejected  = "upload:rejected"
	EventUploadProcessed = "upload:processed"
	EventUploadFailed    = "upload:failed"
)

// Topics lists every upload topic in publication order.
var Topics = []string{
	EventUploadReceived,
	EventUploadRejected,
	EventUploadProcessed,
	EventUploadFailed,
}

// UploadEventData is the payload shared by all upload topics.
type UploadEventData struct {
	RequestID string `json:"request_id"`
	FileName  string `json:"file_name"`
	Size      int64  `json:"size"`
	Reason    string `json:"reason,omitempty"`
	// Kind is the error kind for rejected and failed uploads.
	Kind           string        `json:"kind,omitempty"`
	Classification string        `json:"classification,omitempty"`
	Duration       time.Duration `json:"duration,omitempty"`
}
