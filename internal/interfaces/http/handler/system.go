package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rxforms/backend/internal/infrastructure/logger"
	"github.com/rxforms/backend/internal/interfaces/http/dto"
)

// HealthCheck reports whether one dependency is usable
type HealthCheck func(ctx context.Context) error

// SystemHandler handles health and system information endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	checks    map[string]HealthCheck
	timeout   time.Duration
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. checks are run by Health,
// keyed by the dependency name they report under.
func NewSystemHandler(name, version string, checks map[string]HealthCheck) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		checks:    checks,
		timeout:   3 * time.Second,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name" example:"rxforms-backend"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// HealthResponse reports the service status and each dependency check
type HealthResponse struct {
	Status string            `json:"status"`
	Time   string            `json:"time"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health godoc
//
//	@ID				health
//	@Summary		Health check
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	HealthResponse
//	@Router			/health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status: "healthy",
		Checks: make(map[string]string, len(h.checks)),
	}
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.String("check", name), zap.Error(err))
			resp.Status = "unhealthy"
			resp.Checks[name] = "error"
			continue
		}
		resp.Checks[name] = "ok"
	}
	resp.Time = time.Now().Format(time.RFC3339)

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// GetSystemInfo godoc
//
//	@ID				getSystemInfo
//	@Summary		Get system information
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	APIResponse[SystemInfoResponse]
//	@Router			/system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}))
}
