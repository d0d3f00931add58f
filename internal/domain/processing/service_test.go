package processing

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-image-gateway/internal/domain/aiservice"
	"ai-image-gateway/internal/domain/eventbus"
	"ai-image-gateway/internal/domain/image"
	"ai-image-gateway/internal/platform/config"
	"ai-image-gateway/internal/platform/errors"
	testutil "ai-image-gateway/internal/platform/testing"
)

type fakeClassifier struct {
	calls    int
	last     aiservice.Request
	lastBody []byte
	resp     *aiservice.Response
	err      error
}

func (f *fakeClassifier) Classify(_ context.Context, req aiservice.Request) (*aiservice.Response, error) {
	f.calls++
	f.last = req
	buf := &bytes.Buffer{}
	_, _ = buf.ReadFrom(req.Body)
	f.lastBody = buf.Bytes()
	return f.resp, f.err
}

func float(v float64) *float64 { return &v }

func newService(t *testing.T, classifier Classifier, mutate func(*config.UploadConfig)) (*Service, *eventbus.StatsCollector) {
	t.Helper()
	policy := config.DefaultConfig().Upload
	if mutate != nil {
		mutate(&policy)
	}
	logger := testutil.SetupTestLogger(t)
	bus := eventbus.New()
	stats, err := eventbus.NewStatsCollector(bus)
	require.NoError(t, err)

	return NewService(Options{
		Validator:  image.NewValidator(policy, logger),
		Classifier: classifier,
		Bus:        bus,
		Logger:     logger,
	}), stats
}

func upload(name string, data []byte) Upload {
	return Upload{
		Present:     true,
		FileName:    name,
		ContentType: "image/png",
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
		RequestID:   "req-1",
	}
}

func TestFromAIResponse_Fidelity(t *testing.T) {
	got := FromAIResponse(&aiservice.Response{
		Classification: "cat",
		Confidence:     0.97,
		Objects:        []aiservice.Object{{Label: "eye", Confidence: 0.8}},
		ProcessingTime: float(0.12),
	})

	assert.Equal(t, Result{
		Classification: "cat",
		Confidence:     0.97,
		Objects:        []DetectedObject{{Label: "eye", Confidence: 0.8}},
		ProcessingTime: 0.12,
	}, got)
}

func TestFromAIResponse_PreservesNilVersusEmpty(t *testing.T) {
	assert.Nil(t, FromAIResponse(&aiservice.Response{}).Objects)

	empty := FromAIResponse(&aiservice.Response{Objects: []aiservice.Object{}}).Objects
	require.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestProcess_Success(t *testing.T) {
	classifier := &fakeClassifier{resp: &aiservice.Response{Classification: "dog", Confidence: 0.5, ProcessingTime: float(1)}}
	svc, stats := newService(t, classifier, nil)
	data := testutil.PaddedPNG(t, 2*1024*1024)

	in := upload("photo.png", data)
	in.Authorization = "Bearer abc"
	result, err := svc.Process(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "dog", result.Classification)
	assert.Equal(t, 1, classifier.calls)
	assert.Equal(t, "photo.png", classifier.last.FileName)
	assert.Equal(t, "image/png", classifier.last.ContentType)
	assert.Equal(t, "Bearer abc", classifier.last.Authorization)
	assert.Equal(t, "req-1", classifier.last.RequestID)
	assert.Equal(t, data, classifier.lastBody)

	assert.Equal(t, eventbus.Stats{Received: 1, Processed: 1}, stats.Snapshot())
}

func TestProcess_RejectionsNeverCallUpstream(t *testing.T) {
	tests := []struct {
		name    string
		in      Upload
		message string
	}{
		{"missing", Upload{}, image.MsgNoFile},
		{"empty", upload("photo.png", nil), image.MsgNoFile},
		{"pdf", upload("doc.pdf", []byte("%PDF-1.4")), image.MsgInvalidType},
		{"upper-case exe", upload("SETUP.EXE", []byte("MZ")), image.MsgInvalidType},
		{"11MB jpg", Upload{Present: true, FileName: "photo.jpg", Size: 11 * 1024 * 1024, Body: bytes.NewReader(nil)}, image.MsgTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := &fakeClassifier{}
			svc, stats := newService(t, classifier, nil)

			_, err := svc.Process(context.Background(), tt.in)
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, errors.KindInvalidInput))
			assert.Equal(t, tt.message, errors.MessageOf(err))
			assert.Zero(t, classifier.calls)
			assert.Equal(t, eventbus.Stats{Received: 1, Rejected: 1}, stats.Snapshot())
		})
	}
}

func TestProcess_ClassifierFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind errors.Kind
		stat eventbus.Stats
	}{
		{
			name: "upstream",
			err:  errors.New(errors.KindUpstream, "aiservice.classify", "AI service returned status 500"),
			kind: errors.KindUpstream,
			stat: eventbus.Stats{Received: 1, UpstreamFailures: 1},
		},
		{
			name: "malformed",
			err:  errors.New(errors.KindInternal, "aiservice.decode", "AI service returned malformed JSON"),
			kind: errors.KindInternal,
			stat: eventbus.Stats{Received: 1, UnexpectedFailures: 1},
		},
		{
			name: "untyped",
			err:  fmt.Errorf("boom"),
			kind: errors.KindInternal,
			stat: eventbus.Stats{Received: 1, UnexpectedFailures: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, stats := newService(t, &fakeClassifier{err: tt.err}, nil)

			_, err := svc.Process(context.Background(), upload("photo.png", []byte("png")))
			require.Error(t, err)
			assert.Equal(t, tt.kind, errors.KindOf(err))
			assert.Equal(t, tt.stat, stats.Snapshot())
		})
	}
}

func TestProcess_VerifyContent(t *testing.T) {
	classifier := &fakeClassifier{resp: &aiservice.Response{Classification: "cat"}}
	svc, _ := newService(t, classifier, func(p *config.UploadConfig) { p.VerifyContent = true })

	_, err := svc.Process(context.Background(), upload("fake.png", []byte("definitely not an image")))
	require.Error(t, err)
	assert.Equal(t, image.MsgInvalidType, errors.MessageOf(err))
	assert.Zero(t, classifier.calls)

	data := testutil.PNG(t, 16, 16)
	_, err = svc.Process(context.Background(), upload("real.png", data))
	require.NoError(t, err)
	assert.Equal(t, data, classifier.lastBody)
}

func TestProcess_UnreadableBodyCountsAsFailure(t *testing.T) {
	classifier := &fakeClassifier{resp: &aiservice.Response{Classification: "cat"}}
	svc, stats := newService(t, classifier, func(p *config.UploadConfig) { p.VerifyContent = true })

	u := upload("photo.png", []byte("png"))
	u.Body = iotest.ErrReader(fmt.Errorf("connection reset"))

	_, err := svc.Process(context.Background(), u)
	require.Error(t, err)
	assert.Equal(t, errors.KindInternal, errors.KindOf(err))
	assert.Zero(t, classifier.calls)
	assert.Equal(t, eventbus.Stats{Received: 1, UnexpectedFailures: 1}, stats.Snapshot())
}
