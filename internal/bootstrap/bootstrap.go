package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/swaggo/swag"
	"golang.org/x/sync/errgroup"

	_ "ai-image-gateway/docs"
	"ai-image-gateway/internal/domain/aiservice"
	"ai-image-gateway/internal/domain/eventbus"
	domainimage "ai-image-gateway/internal/domain/image"
	"ai-image-gateway/internal/domain/processing"
	platformconfig "ai-image-gateway/internal/platform/config"
	platformerrors "ai-image-gateway/internal/platform/errors"
	platformlogging "ai-image-gateway/internal/platform/logging"
	platformobservability "ai-image-gateway/internal/platform/observability"
	httptransport "ai-image-gateway/internal/transport/http"
	httpprocess "ai-image-gateway/internal/transport/http/process"
	httpsystem "ai-image-gateway/internal/transport/http/system"
)

const scalarHTML = `<!DOCTYPE html>
<html lang="en">
	<head>
		<meta charset="utf-8" />
		<title>AI Image Gateway API Reference</title>
		<meta name="viewport" content="width=device-width, initial-scale=1" />
	</head>
	<body>
		<script
			id="api-reference"
			data-url="/openapi.json"
			data-layout="modern"
			src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"
		></script>
	</body>
</html>`

const logTag = "Bootstrap"

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	// loader overrides the default config loader (tests).
	loader                *platformconfig.Loader
	config                *platformconfig.Config
	configPath            string
	logger                *platformlogging.Logger
	observabilityShutdown platformobservability.ShutdownFunc
	bus                   *eventbus.Bus
	stats                 *eventbus.StatsCollector
	aiClient              *aiservice.Client
}

// Run 启动整个服务生命周期，负责加载配置、初始化依赖和优雅关停。
func Run(ctx context.Context) error {
	return run(ctx, &appState{})
}

func run(ctx context.Context, state *appState) error {
	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		if state.logger != nil {
			state.logger.ErrorTag(logTag, "startup failed: %v", err)
			_ = state.logger.Close()
		}
		return err
	}

	logger := state.logger
	defer logger.Close()

	logBootstrapGraph(steps, logger)

	if shutdown := state.observabilityShutdown; shutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.WarnTag(logTag, "observability did not shut down cleanly: %v", err)
			}
		}()
	}
	defer state.bus.Wait()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if _, err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return platformerrors.Wrap(platformerrors.KindTransport, "http:start", "failed to start http server", err)
	}

	return waitForShutdown(signalCtx, groupCtx, cancel, logger, group, state.config.Server.ShutdownTimeout)
}

func logBootstrapGraph(steps []initStep, logger *platformlogging.Logger) {
	if logger == nil {
		return
	}
	logger.InfoTag(logTag, "init graph:")
	for _, step := range steps {
		deps := "-"
		if len(step.DependsOn) > 0 {
			deps = strings.Join(step.DependsOn, ", ")
		}
		logger.InfoTag(logTag, "  %s (%s) after %s", step.ID, step.Title, deps)
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

// InitGraph lists the startup steps in execution order.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load-runtime",
			Title:   "Load configuration file and environment",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load-runtime"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "observability:setup-hooks",
			Title:     "Setup observability hooks",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   setupObservabilityStep,
		},
		{
			ID:        "events:init-bus",
			Title:     "Initialise upload event bus",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initEventBusStep,
		},
		{
			ID:        "gateway:init-client",
			Title:     "Initialise AI service client",
			DependsOn: []string{"config:load-runtime", "observability:setup-hooks"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initAIClientStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	loader := state.loader
	if loader == nil {
		loader = platformconfig.NewLoader()
	}

	result, err := loader.Load()
	if err != nil {
		return err
	}

	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"logging:init-provider",
			"config not loaded",
		)
	}

	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialize logging provider", err)
	}

	state.logger = logger
	logger.InfoTag(logTag, "logging ready [%s] config=%s", state.config.Log.Level, state.configPath)
	return nil
}

func setupObservabilityStep(ctx context.Context, state *appState) error {
	if state.logger == nil || state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"observability:setup-hooks",
			"config/logger not initialised",
		)
	}

	cfg := platformobservability.Config{
		Enabled: strings.EqualFold(state.config.Log.Level, "debug"),
		Service: "image-gateway",
	}

	shutdown, err := platformobservability.Setup(ctx, cfg, state.logger.Slog())
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "observability:setup-hooks", "failed to setup observability hooks", err)
	}
	state.observabilityShutdown = shutdown
	return nil
}

func initEventBusStep(_ context.Context, state *appState) error {
	bus := eventbus.New()

	stats, err := eventbus.NewStatsCollector(bus)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "events:init-bus", "failed to subscribe stats collector", err)
	}
	if err := eventbus.AttachLogger(bus, state.logger); err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "events:init-bus", "failed to subscribe event logger", err)
	}

	state.bus = bus
	state.stats = stats
	return nil
}

func initAIClientStep(_ context.Context, state *appState) error {
	cfg := state.config.AIService
	state.aiClient = aiservice.NewClient(aiservice.Options{
		URL:                  cfg.URL,
		Timeout:              cfg.Timeout,
		ForwardAuthorization: cfg.ForwardAuthorization,
		Logger:               state.logger,
	})

	timeout := "transport default"
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout.String()
	}
	state.logger.InfoTag("AIService", "client ready url=%s timeout=%s forward_authorization=%t",
		cfg.URL, timeout, cfg.ForwardAuthorization)
	return nil
}

// buildHandler assembles the router and every HTTP service.
func buildHandler(ctx context.Context, state *appState) (*gin.Engine, error) {
	config := state.config
	logger := state.logger

	httpRouter, err := httptransport.Build(httptransport.Options{
		Config: config,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	router := httpRouter.Engine
	apiGroup := httpRouter.API

	router.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api") || !config.Web.Enabled {
			httptransport.RespondError(c, http.StatusNotFound, "api Not found", gin.H{})
			return
		}
		c.File(filepath.Join(config.Web.StaticDir, "index.html"))
	})

	processor := processing.NewService(processing.Options{
		Validator:  domainimage.NewValidator(config.Upload, logger),
		Classifier: state.aiClient,
		Bus:        state.bus,
		Logger:     logger,
	})

	processService, err := httpprocess.NewService(config, logger, processor, state.stats)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "process:new-service", "failed to create process service", err)
	}
	if err := processService.Register(ctx, apiGroup); err != nil {
		return nil, err
	}
	if err := httpsystem.NewService(logger).Register(ctx, apiGroup); err != nil {
		return nil, err
	}

	router.GET("/openapi.json", func(c *gin.Context) {
		doc, err := swag.ReadDoc()
		if err != nil {
			logger.ErrorTag("HTTP", "failed to render OpenAPI document: %v", err)
			httptransport.RespondError(c, http.StatusInternalServerError, "failed to generate openapi spec", gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
	})

	router.GET("/docs", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(scalarHTML))
	})

	return router, nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	handler, err := buildHandler(groupCtx, state)
	if err != nil {
		return nil, err
	}

	config := state.config
	logger := state.logger
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(config.Server.IP, strconv.Itoa(config.Server.Port)),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "gateway listening on http://%s", httpServer.Addr)
		logger.InfoTag("HTTP", "upload endpoint: POST http://localhost:%d/api/process", config.Server.Port)
		logger.InfoTag("HTTP", "API docs: http://localhost:%d/docs", config.Server.Port)

		go func() {
			<-groupCtx.Done()
			timeout := config.Server.ShutdownTimeout
			if timeout <= 0 {
				timeout = 10 * time.Second
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "http server shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "http server stopped gracefully")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "http server failed: %v", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

// waitForShutdown returns once a signal arrives or a server goroutine exits,
// then waits up to timeout plus a margin for the group to drain.
func waitForShutdown(
	signalCtx context.Context,
	groupCtx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
	timeout time.Duration,
) error {
	select {
	case <-signalCtx.Done():
	case <-groupCtx.Done():
	}
	if signalCtx.Err() != nil {
		logger.InfoTag(logTag, "received shutdown signal (%v), cleaning up", context.Cause(signalCtx))
	} else {
		logger.WarnTag(logTag, "a server stopped unexpectedly, shutting down")
	}

	cancel()

	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag(logTag, "shutdown finished with error: %v", err)
			return err
		}
		logger.InfoTag(logTag, "all services stopped")
	case <-time.After(timeout + 5*time.Second):
		logger.ErrorTag(logTag, "shutdown timed out, forcing exit")
		return platformerrors.New(platformerrors.KindBootstrap, "shutdown", "shutdown timed out")
	}
	return nil
}
