package api

import "github.com/joe/media-sync/internal/syncengine"

// ErrorResponse is returned on errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Phase         string `json:"phase"`
}

// PlanResponse is returned by POST /plan.
type PlanResponse struct {
	Items      []PlanItem `json:"items"`
	TotalBytes int64      `json:"total_bytes"`
	Status     string     `json:"status"`
}

// PlanItem is one queued file.
type PlanItem struct {
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	ModTime string `json:"mod_time"`
}

// SummaryResponse is returned by GET /summary.
type SummaryResponse struct {
	Planned   int           `json:"planned"`
	Completed int           `json:"completed"`
	Failed    int           `json:"failed"`
	Bytes     int64         `json:"bytes"`
	Failures  []FailureItem `json:"failures,omitempty"`
}

// FailureItem describes one file that was not copied.
type FailureItem struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ActionResponse is returned by the queue control endpoints.
type ActionResponse struct {
	Action string            `json:"action"`
	Status syncengine.Status `json:"status"`
}
