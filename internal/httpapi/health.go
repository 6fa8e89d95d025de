package httpapi

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Server is running",
	})
}

type healthDetails struct {
	Status     string       `json:"status"`
	Message    string       `json:"message"`
	Uptime     string       `json:"uptime"`
	Backend    string       `json:"backend"`
	Configured bool         `json:"configured"`
	Storage    string       `json:"storage"`
	Process    processStats `json:"process"`
}

type processStats struct {
	PID        int     `json:"pid"`
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
	Goroutines int     `json:"goroutines"`
}

// healthDetails reports process and backend state. It is always 200 so load balancers
// keep using /health for liveness; storage failures show up in the body.
func (h *handler) healthDetails(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out := healthDetails{
		Status:     "ok",
		Message:    "Server is running",
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Backend:    h.opts.Backend,
		Configured: h.opts.Ready == nil || h.opts.Ready(),
		Storage:    "unknown",
		Process:    currentProcess(ctx),
	}

	if h.opts.Pinger != nil && out.Configured {
		if err := h.opts.Pinger.Ping(ctx); err != nil {
			h.log.WithContext(ctx).WithError(err).Warn("storage ping failed")
			out.Status = "degraded"
			out.Storage = err.Error()
		} else {
			out.Storage = "ok"
		}
	}
	if !out.Configured {
		out.Status = "degraded"
		out.Storage = notConfiguredMessage
	}

	writeJSON(w, http.StatusOK, out)
}

func currentProcess(ctx context.Context) processStats {
	stats := processStats{PID: os.Getpid(), Goroutines: runtime.NumGoroutine()}
	p, err := process.NewProcessWithContext(ctx, int32(stats.PID))
	if err != nil {
		return stats
	}
	if mem, err := p.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		stats.RSSBytes = mem.RSS
	}
	if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
		stats.CPUPercent = cpu
	}
	return stats
}
