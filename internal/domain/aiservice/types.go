package aiservice

import "io"

// Request is one image to classify.
type Request struct {
	FileName    string
	ContentType string
	Body        io.Reader
	// Authorization is forwarded verbatim when the client allows it.
	Authorization string
	RequestID     string
}

// Object is a labelled detection inside the image.
type Object struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Response is the AI service reply. Field names match case-insensitively.
type Response struct {
	Classification string   `json:"classification"`
	Confidence     float64  `json:"confidence"`
	Objects        []Object `json:"objects"`
	ProcessingTime *float64 `json:"processingTime"`
	// ProcessingTimeSeconds carries the snake_case key some deployments emit.
	ProcessingTimeSeconds *float64 `json:"processing_time"`
}

// Elapsed returns the processing time, preferring the camelCase key.
func (r *Response) Elapsed() float64 {
	switch {
	case r.ProcessingTime != nil:
		return *r.ProcessingTime
	case r.ProcessingTimeSeconds != nil:
		return *r.ProcessingTimeSeconds
	default:
		return 0
	}
}
