package system

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"ai-image-gateway/internal/platform/logging"
	httptransport "ai-image-gateway/internal/transport/http"
)

// HostStats is a best-effort snapshot of the machine running the gateway.
type HostStats struct {
	MemoryTotal       uint64  `json:"memory_total,omitempty"`
	MemoryAvailable   uint64  `json:"memory_available,omitempty"`
	MemoryUsedPercent float64 `json:"memory_used_percent,omitempty"`
	CPUPercent        float64 `json:"cpu_percent,omitempty"`
	Load1             float64 `json:"load1,omitempty"`
	Load5             float64 `json:"load5,omitempty"`
	Load15            float64 `json:"load15,omitempty"`
	HostUptimeSeconds uint64  `json:"host_uptime_seconds,omitempty"`
}

// Health is the data field of GET /api/health.
type Health struct {
	Status        string    `json:"status"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Goroutines    int       `json:"goroutines"`
	Host          HostStats `json:"host"`
}

// Service serves liveness and host statistics.
type Service struct {
	logger  *logging.Logger
	started time.Time
}

func NewService(logger *logging.Logger) *Service {
	return &Service{logger: logger, started: time.Now()}
}

func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.GET("/health", s.handleHealth)
	return nil
}

// handleHealth 健康检查
// @Summary Health check
// @Description Reports gateway liveness together with host memory, CPU and load figures
// @Tags System
// @Produce json
// @Success 200 {object} httptransport.APIResponse{data=Health}
// @Router /health [get]
func (s *Service) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	httptransport.RespondSuccess(c, http.StatusOK, Health{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		Host:          s.collect(ctx),
	}, "")
}

// collect skips any figure the platform cannot provide.
func (s *Service) collect(ctx context.Context) HostStats {
	var stats HostStats

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemoryTotal = vm.Total
		stats.MemoryAvailable = vm.Available
		stats.MemoryUsedPercent = vm.UsedPercent
	} else {
		s.debug("memory stats unavailable: %v", err)
	}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	} else if err != nil {
		s.debug("cpu stats unavailable: %v", err)
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		stats.Load1, stats.Load5, stats.Load15 = avg.Load1, avg.Load5, avg.Load15
	} else {
		s.debug("load stats unavailable: %v", err)
	}

	if uptime, err := host.UptimeWithContext(ctx); err == nil {
		stats.HostUptimeSeconds = uptime
	}

	return stats
}

func (s *Service) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.DebugTag("HTTP", msg, args...)
	}
}
