package shared

import "github.com/joe/media-sync/internal/syncengine"

// PlanResultMsg carries the outcome of a background Plan call.
type PlanResultMsg struct {
	Plan *syncengine.Plan
	Err  error
}

// ShutdownCompleteMsg is sent once the active copy has been aborted and the
// watermarks saved. Err is the save error, if any.
type ShutdownCompleteMsg struct {
	Err error
}
