package ws

import (
	"net/http"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

type healthResponse struct {
	Success       bool    `json:"success"`
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
	ModelPresent  bool    `json:"modelPresent"`
	Observers     int     `json:"observers"`
	CPUPercent    float64 `json:"cpuPercent,omitempty"`
	MemoryRSSMB   float64 `json:"memoryRssMb,omitempty"`
}

// handleHealth reports controller liveness plus the process's own CPU and
// memory footprint. Process stats are best-effort; a probe failure does
// not fail the health check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	resp := healthResponse{
		Success:       true,
		Status:        "ok",
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
		ModelPresent:  s.ctrl.HasModel(),
		Observers:     s.broadcaster.ClientCount(),
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if cpu, err := proc.CPUPercent(); err == nil {
			resp.CPUPercent = cpu
		}
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			resp.MemoryRSSMB = float64(mem.RSS) / (1024 * 1024)
		}
	}

	writeJSON(w, resp)
}
