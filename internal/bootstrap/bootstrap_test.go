package bootstrap

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformconfig "ai-image-gateway/internal/platform/config"
	platformerrors "ai-image-gateway/internal/platform/errors"
	testutil "ai-image-gateway/internal/platform/testing"
)

func noEnv(string) (string, bool) { return "", false }

func stateFor(t *testing.T, yaml string) *appState {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	return &appState{
		loader: platformconfig.NewLoader().WithDotEnv(false).WithPath(path).WithEnv(noEnv),
	}
}

func baseYAML(t *testing.T, aiURL string, port int) string {
	return "server:\n" +
		"  ip: 127.0.0.1\n" +
		"  port: " + strconv.Itoa(port) + "\n" +
		"  shutdown_timeout: 2s\n" +
		"log:\n" +
		"  log_level: debug\n" +
		"  log_dir: " + t.TempDir() + "\n" +
		"  log_file: gateway.log\n" +
		"web:\n" +
		"  enabled: false\n" +
		"ai_service:\n" +
		"  url: " + aiURL + "\n"
}

func initialised(t *testing.T, aiURL string) *appState {
	t.Helper()
	state := stateFor(t, baseYAML(t, aiURL, 5001))
	require.NoError(t, executeInitSteps(context.Background(), InitGraph(), state))
	t.Cleanup(func() {
		_ = state.observabilityShutdown(context.Background())
		_ = state.logger.Close()
	})
	return state
}

func TestInitGraphOrder(t *testing.T) {
	steps := InitGraph()
	want := []string{
		"config:load-runtime",
		"logging:init-provider",
		"observability:setup-hooks",
		"events:init-bus",
		"gateway:init-client",
	}
	require.Len(t, steps, len(want))
	for i, step := range steps {
		assert.Equal(t, want[i], step.ID)
	}
}

func TestExecuteInitGraph(t *testing.T) {
	state := initialised(t, "http://ai.internal:5002/process")

	assert.NotNil(t, state.config)
	assert.NotNil(t, state.logger)
	assert.NotNil(t, state.observabilityShutdown)
	assert.NotNil(t, state.bus)
	assert.NotNil(t, state.stats)
	require.NotNil(t, state.aiClient)
	assert.Equal(t, "http://ai.internal:5002/process", state.aiClient.URL())
}

func TestExecuteInitSteps_FailsFastOnBadServiceURL(t *testing.T) {
	state := stateFor(t, "ai_service:\n  url: \"not a url\"\n")

	err := executeInitSteps(context.Background(), InitGraph(), state)
	require.Error(t, err)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindConfig), "got %v", err)
	assert.Nil(t, state.logger, "later steps must not run")
}

func TestExecuteInitSteps_DependencyNotSatisfied(t *testing.T) {
	steps := []initStep{
		{ID: "b", DependsOn: []string{"a"}, Execute: func(context.Context, *appState) error { return nil }},
	}
	err := executeInitSteps(context.Background(), steps, &appState{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependency a not satisfied")

	err = executeInitSteps(context.Background(), []initStep{{ID: "x"}}, &appState{})
	assert.Contains(t, err.Error(), "missing execute function")

	assert.Error(t, executeInitSteps(context.Background(), nil, nil))
}

func TestBuildHandler_Routes(t *testing.T) {
	stub := testutil.NewAIServiceStub(t, http.StatusOK, `{"classification":"cat","confidence":0.9,"objects":[],"processingTime":0.2}`)
	state := initialised(t, stub.URL())

	handler, err := buildHandler(context.Background(), state)
	require.NoError(t, err)

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := serve(httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"/process"`)

	rec = serve(httptest.NewRequest(http.MethodGet, "/docs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/openapi.json")

	rec = serve(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(httptest.NewRequest(http.MethodGet, "/api/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "api Not found")

	body, contentType := testutil.MultipartUpload(t, "image", "photo.png", "image/png", testutil.PNG(t, 4, 4))
	req := httptest.NewRequest(http.MethodPost, "/api/process", body)
	req.Header.Set("Content-Type", contentType)
	rec = serve(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"classification":"cat","confidence":0.9,"objects":[],"processingTime":0.2}`, rec.Body.String())
	assert.Equal(t, int64(1), state.stats.Snapshot().Processed)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	port := freePort(t)
	state := stateFor(t, baseYAML(t, "http://127.0.0.1:1/process", port))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, state) }()

	url := "http://127.0.0.1:" + strconv.Itoa(port) + "/api/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}
