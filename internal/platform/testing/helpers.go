package testing

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"ai-image-gateway/internal/platform/config"
	"ai-image-gateway/internal/platform/logging"
)

// SetupTestConfig returns defaults pointed at aiURL with logs under a temp dir.
func SetupTestConfig(t *testing.T, aiURL string) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Server.IP = "127.0.0.1"
	cfg.Server.Port = 8080
	cfg.Log.Level = "DEBUG"
	cfg.Log.Dir = t.TempDir()
	cfg.Log.File = "test.log"
	cfg.Web.Enabled = false
	if aiURL != "" {
		cfg.AIService.URL = aiURL
	}

	return cfg
}

// SetupTestLogger creates a logger writing to a temp dir with console output discarded.
func SetupTestLogger(t *testing.T) *logging.Logger {
	t.Helper()

	logger, err := logging.New(logging.Config{
		Level:    "DEBUG",
		Dir:      t.TempDir(),
		Filename: "test.log",
		Console:  io.Discard,
	})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	t.Cleanup(func() { _ = logger.Close() })

	return logger
}

// CapturedRequest is what the stub AI service saw for a single call.
type CapturedRequest struct {
	Method        string
	Authorization string
	RequestID     string
	ContentType   string
	FieldName     string
	FileName      string
	PartType      string
	Body          []byte
}

// AIServiceStub is an httptest server standing in for the external AI service.
type AIServiceStub struct {
	Server *httptest.Server

	mu       sync.Mutex
	requests []CapturedRequest
	status   int
	body     string
}

// NewAIServiceStub starts a stub answering every call with status and body.
func NewAIServiceStub(t *testing.T, status int, body string) *AIServiceStub {
	t.Helper()

	stub := &AIServiceStub{status: status, body: body}
	stub.Server = httptest.NewServer(http.HandlerFunc(stub.serve))
	t.Cleanup(stub.Server.Close)
	return stub
}

// URL is the endpoint to configure as ai_service.url.
func (s *AIServiceStub) URL() string {
	return s.Server.URL + "/process"
}

// Respond swaps the canned reply.
func (s *AIServiceStub) Respond(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.body = body
}

// Calls returns how many requests reached the stub.
func (s *AIServiceStub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Requests returns a copy of every captured request.
func (s *AIServiceStub) Requests() []CapturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CapturedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *AIServiceStub) serve(w http.ResponseWriter, r *http.Request) {
	captured := CapturedRequest{
		Method:        r.Method,
		Authorization: r.Header.Get("Authorization"),
		RequestID:     r.Header.Get("X-Request-Id"),
		ContentType:   r.Header.Get("Content-Type"),
	}

	if mediaType, params, err := mime.ParseMediaType(captured.ContentType); err == nil && mediaType == "multipart/form-data" {
		reader := multipart.NewReader(r.Body, params["boundary"])
		if part, err := reader.NextPart(); err == nil {
			captured.FieldName = part.FormName()
			captured.FileName = part.FileName()
			captured.PartType = part.Header.Get("Content-Type")
			captured.Body, _ = io.ReadAll(part)
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, captured)
	status, body := s.status, s.body
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// PNG encodes a solid image of the given dimensions.
func PNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// PaddedPNG returns a valid PNG followed by filler so the payload reaches size bytes.
func PaddedPNG(t *testing.T, size int) []byte {
	t.Helper()

	data := PNG(t, 4, 4)
	if size <= len(data) {
		return data
	}
	return append(data, make([]byte, size-len(data))...)
}

// MultipartUpload builds a multipart body with a single file part.
func MultipartUpload(t *testing.T, field, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + fileName + `"`}
	if contentType != "" {
		header["Content-Type"] = []string{contentType}
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	return body, writer.FormDataContentType()
}
