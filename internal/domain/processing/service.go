package processing

import (
	"bytes"
	"context"
	"io"
	"time"

	"ai-image-gateway/internal/domain/aiservice"
	"ai-image-gateway/internal/domain/eventbus"
	"ai-image-gateway/internal/domain/image"
	"ai-image-gateway/internal/platform/errors"
	"ai-image-gateway/internal/platform/logging"
)

// Classifier is the outbound AI call.
type Classifier interface {
	Classify(ctx context.Context, req aiservice.Request) (*aiservice.Response, error)
}

// Options wires the service dependencies. Bus and Logger are optional.
type Options struct {
	Validator  *image.Validator
	Classifier Classifier
	Bus        *eventbus.Bus
	Logger     *logging.Logger
}

// Service runs validate, forward and map for a single upload.
type Service struct {
	validator  *image.Validator
	classifier Classifier
	bus        *eventbus.Bus
	logger     *logging.Logger
}

// NewService constructs a processing service.
func NewService(opts Options) *Service {
	return &Service{
		validator:  opts.Validator,
		classifier: opts.Classifier,
		bus:        opts.Bus,
		logger:     opts.Logger,
	}
}

// Process validates upload and, only if it passes, forwards it to the AI service.
// Errors carry KindInvalidInput, KindUpstream or another kind for unexpected failures.
func (s *Service) Process(ctx context.Context, upload Upload) (*Result, error) {
	start := time.Now()
	event := eventbus.UploadEventData{
		RequestID: upload.RequestID,
		FileName:  upload.FileName,
		Size:      upload.Size,
	}
	s.bus.Publish(eventbus.EventUploadReceived, event)
	if s.logger != nil {
		s.logger.InfoTag("Gateway", "Received image: %s", upload.FileName)
	}

	body, err := s.validate(upload)
	if err != nil {
		event.Reason = errors.MessageOf(err)
		event.Kind = string(errors.KindOf(err))
		event.Duration = time.Since(start)
		topic := eventbus.EventUploadRejected
		if errors.KindOf(err) != errors.KindInvalidInput {
			topic = eventbus.EventUploadFailed
		}
		s.bus.Publish(topic, event)
		return nil, err
	}

	resp, err := s.classifier.Classify(ctx, aiservice.Request{
		FileName:      upload.FileName,
		ContentType:   upload.ContentType,
		Body:          body,
		Authorization: upload.Authorization,
		RequestID:     upload.RequestID,
	})
	if err == nil && resp == nil {
		err = errors.New(errors.KindInternal, "processing.process", "AI service returned no result")
	}
	if err != nil {
		if errors.KindOf(err) == errors.KindUnknown {
			err = errors.Wrap(errors.KindInternal, "processing.process", "classification failed", err)
		}
		event.Reason = err.Error()
		event.Kind = string(errors.KindOf(err))
		event.Duration = time.Since(start)
		s.bus.Publish(eventbus.EventUploadFailed, event)
		return nil, err
	}

	result := FromAIResponse(resp)
	event.Classification = result.Classification
	event.Duration = time.Since(start)
	s.bus.Publish(eventbus.EventUploadProcessed, event)
	return &result, nil
}

// validate returns the body to forward. With content verification on the bytes
// are buffered so they can be both sniffed and sent.
func (s *Service) validate(upload Upload) (io.Reader, error) {
	if err := s.validator.Check(image.Candidate{
		Present:  upload.Present && upload.Body != nil,
		FileName: upload.FileName,
		Size:     upload.Size,
	}); err != nil {
		return nil, err
	}

	if !s.validator.VerifyContent() {
		return upload.Body, nil
	}

	data, err := io.ReadAll(io.LimitReader(upload.Body, upload.Size))
	if err != nil {
		return nil, errors.Wrap(errors.KindInternal, "processing.read", "failed to read upload", err)
	}
	if _, err := s.validator.Inspect(upload.FileName, data); err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}
