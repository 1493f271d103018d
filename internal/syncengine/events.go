package syncengine

// Event is the interface implemented by all sync engine events.
type Event interface {
	isEvent()
}

// EventEmitter is the interface for emitting events.
type EventEmitter interface {
	Emit(event Event)
}

// Plan phase events

// PlanComplete is emitted when a new plan replaces the queue.
type PlanComplete struct {
	Plan   *Plan
	Status string // StatusLine of the plan
}

func (PlanComplete) isEvent() {}

// Copy phase events

// FileStarted is emitted when the orchestrator hands an item to a copier.
type FileStarted struct {
	Item  WorkItem
	Index int
	Total int
}

func (FileStarted) isEvent() {}

// FileCompleted is emitted when an item has been copied.
type FileCompleted struct {
	Item WorkItem
}

func (FileCompleted) isEvent() {}

// FileFailed is emitted when an item failed, was skipped, or was aborted.
type FileFailed struct {
	Item    WorkItem
	Err     error
	Trouble string // short reason for display
}

func (FileFailed) isEvent() {}

// QueueDrained is emitted when the cursor passes the last item.
type QueueDrained struct {
	Completed int
	Failed    int
}

func (QueueDrained) isEvent() {}

// Persist events

// WatermarksSaved is emitted after the table has been written.
type WatermarksSaved struct {
	Location string
	Folders  int
}

func (WatermarksSaved) isEvent() {}

// PersistFailed is emitted when saving the table failed. The save is
// retried at the next idle tick.
type PersistFailed struct {
	Err error
}

func (PersistFailed) isEvent() {}

// Error events

// ErrorOccurred is emitted when planning fails.
type ErrorOccurred struct {
	Phase string
	Err   error
}

func (ErrorOccurred) isEvent() {}
