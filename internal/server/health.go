package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// healthHandler reports process and host state. Host metrics are best
// effort: a probe that fails is reported as "unknown".
func (s *Server) healthHandler(c echo.Context) error {
	ctx := c.Request().Context()

	runtime := map[string]interface{}{
		"uptime":     time.Since(s.startTime).Round(time.Second).String(),
		"start_time": s.startTime.Format(time.RFC3339),
	}
	if hInfo, err := host.InfoWithContext(ctx); err == nil {
		runtime["os"] = hInfo.OS
		runtime["platform"] = hInfo.Platform
		runtime["host_uptime"] = (time.Duration(hInfo.Uptime) * time.Second).String()
	}

	cpuUsage := "unknown"
	if cpuPercent, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(cpuPercent) > 0 {
		cpuUsage = fmt.Sprintf("%.2f%%", cpuPercent[0])
	}

	ramUsage := "unknown"
	if v, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		ramUsage = fmt.Sprintf("%.2f%%", v.UsedPercent)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "up",
		"sessions": s.sessions.Len(),
		"runtime":  runtime,
		"cpu":      map[string]string{"usage_percent": cpuUsage},
		"memory":   map[string]string{"used_percent": ramUsage},
	})
}
