package processing

import (
	"io"

	"ai-image-gateway/internal/domain/aiservice"
)

// Upload is an incoming image as the handler received it.
type Upload struct {
	// Present is false when the request carried no image field at all.
	Present       bool
	FileName      string
	ContentType   string
	Size          int64
	Body          io.Reader
	Authorization string
	RequestID     string
}

// DetectedObject is one labelled region of the result.
type DetectedObject struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Result is returned to the caller on success.
type Result struct {
	Classification string           `json:"classification"`
	Confidence     float64          `json:"confidence"`
	Objects        []DetectedObject `json:"objects"`
	ProcessingTime float64          `json:"processingTime"`
}

// FromAIResponse copies resp field for field. A nil object list stays nil and an
// empty one stays empty.
func FromAIResponse(resp *aiservice.Response) Result {
	result := Result{
		Classification: resp.Classification,
		Confidence:     resp.Confidence,
		ProcessingTime: resp.Elapsed(),
	}
	if resp.Objects != nil {
		result.Objects = make([]DetectedObject, len(resp.Objects))
		for i, obj := range resp.Objects {
			result.Objects[i] = DetectedObject{Label: obj.Label, Confidence: obj.Confidence}
		}
	}
	return result
}
