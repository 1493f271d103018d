package syncengine

import "fmt"

// Phase names what the queue is doing.
type Phase string

// Phase values.
const (
	PhaseUnplanned Phase = "unplanned"
	PhaseReady     Phase = "ready"
	PhaseCopying   Phase = "copying"
	PhasePaused    Phase = "paused"
)

// Status is a point-in-time view of the Orchestrator for front ends.
type Status struct {
	Phase       Phase  `json:"phase"`
	Current     string `json:"current,omitempty"`
	Index       int    `json:"index"`
	Total       int    `json:"total"`
	BytesCopied int64  `json:"bytesCopied"`
	BytesTotal  int64  `json:"bytesTotal"`
	Completed   int    `json:"completed"`
	Failed      int    `json:"failed"`
	Dirty       bool   `json:"dirty"`
	Message     string `json:"message"`
}

// Percent returns progress in [0, 1].
func (s Status) Percent() float64 {
	if s.BytesTotal <= 0 {
		if s.Total > 0 && s.Index >= s.Total {
			return 1
		}

		return 0
	}

	return float64(s.BytesCopied) / float64(s.BytesTotal)
}

// Snapshot returns the current Status. Message is the last error if one is
// pending, the active item while copying, the run result once the queue has
// drained and been saved, or the plan summary otherwise.
func (o *Orchestrator) Snapshot() Status {
	copied, total := o.Progress()

	o.mu.Lock()
	defer o.mu.Unlock()

	status := Status{
		BytesCopied: copied,
		BytesTotal:  total,
		Index:       o.cursor,
		Total:       o.plan.Len(),
		Completed:   o.completed,
		Failed:      len(o.failures),
		Dirty:       o.dirty,
	}

	switch {
	case o.plan == nil:
		status.Phase = PhaseUnplanned
	case o.paused:
		status.Phase = PhasePaused
	case o.active != nil:
		status.Phase = PhaseCopying
	default:
		status.Phase = PhaseReady
	}

	if o.active != nil {
		status.Current = o.plan.Items[o.cursor].RelativePath
	}

	switch {
	case o.lastErr != nil:
		status.Message = o.lastErr.Error()
	case o.active != nil:
		status.Message = "Copying " + o.plan.Items[o.cursor].String()
	case o.plan != nil && o.plan.Len() > 0 && o.cursor >= o.plan.Len() && !o.dirty:
		status.Message = drainedLine(o.completed, len(o.failures))
	case o.plan != nil:
		status.Message = StatusLine(o.plan)
	}

	return status
}

func drainedLine(completed, failed int) string {
	if failed == 0 {
		return "Destination is up-to-date."
	}

	return fmt.Sprintf("Copied %d of %d file(s), %d failed.", completed, completed+failed, failed)
}
