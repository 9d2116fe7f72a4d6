package api

import (
	"net/http"
	"runtime"
	"time"
)

type DiagnosticsInfo struct {
	HTTPAddr string   `json:"http_addr"`
	DataDir  string   `json:"data_dir"`
	DBPath   string   `json:"db_path"`
	Config   string   `json:"config_file"`
	Accounts []string `json:"accounts"`
}

type DiagnosticsResponse struct {
	Time          time.Time       `json:"time"`
	StartedAt     time.Time       `json:"started_at"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	GoVersion     string          `json:"go_version"`
	Info          DiagnosticsInfo `json:"info"`
	Hub           map[string]any  `json:"hub"`
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	now := time.Now().UTC()
	started := s.StartedAt
	if started.IsZero() {
		started = now
	}
	resp := DiagnosticsResponse{
		Time:          now,
		StartedAt:     started,
		UptimeSeconds: int64(now.Sub(started).Seconds()),
		GoVersion:     runtime.Version(),
		Info:          s.Info,
		Hub:           map[string]any{},
	}
	if s.Hub != nil {
		resp.Hub["subscribers"] = s.Hub.SubscriberCount()
		resp.Hub["queued_commands"] = s.Hub.Len()
	}
	writeJSON(w, http.StatusOK, resp)
}
