// Package syncengine plans and drives incremental media copies.
package syncengine

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/joe/media-sync/internal/log"
	"github.com/joe/media-sync/internal/watermark"
	"github.com/joe/media-sync/pkg/fileops"
	"github.com/joe/media-sync/pkg/filesystem"
)

// DefaultPollInterval is the scheduler tick cadence.
const DefaultPollInterval = 100 * time.Millisecond

type itemState int

const (
	itemPending itemState = iota
	itemCompleted
	itemFailed
)

// Orchestrator drives a plan through one copier at a time and keeps the
// watermark table. It is safe for concurrent use; the queue only moves
// inside Tick.
//
// Emitted events are delivered after the internal lock is released, so an
// EventEmitter may call back into the Orchestrator.
type Orchestrator struct {
	SourceRoot string
	DestRoot   string
	Store      watermark.Store
	Planner    *Planner
	FileOps    *fileops.FileOps
	Logger     *slog.Logger

	emitter EventEmitter

	mu         sync.Mutex
	plan       *Plan
	states     []itemState
	table      watermark.Watermarks
	cursor     int
	active     *fileops.Copier
	paused     bool
	halted     bool
	dirty      bool
	generation uint64
	saving     bool
	failures   []*CopyError
	completed  int
	lastErr    error
	pending    []Event
}

// NewOrchestrator wires a planner and copier factory over the given
// filesystems.
func NewOrchestrator(sourceRoot, destRoot string, store watermark.Store, sourceFS, destFS filesystem.FileSystem) *Orchestrator {
	return &Orchestrator{
		SourceRoot: sourceRoot,
		DestRoot:   destRoot,
		Store:      store,
		Planner:    NewPlanner(sourceFS, destFS),
		FileOps:    fileops.NewDualFileOps(sourceFS, destFS),
		Logger:     log.WithComponent("orchestrator"),
		table:      watermark.Watermarks{},
	}
}

// SetEventEmitter sets the event emitter.
// The emitter is optional - if nil, no events will be emitted.
func (o *Orchestrator) SetEventEmitter(emitter EventEmitter) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.emitter = emitter
}

// GetEventEmitter returns the current event emitter.
func (o *Orchestrator) GetEventEmitter() EventEmitter {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.emitter
}

// Abort stops the active copy and keeps the queue from advancing. Used on
// shutdown; Copy or Plan lifts the hold.
func (o *Orchestrator) Abort() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.halted = true

	if o.active != nil {
		o.active.Abort()
	}
}

// AbortAndWait aborts the active copy and waits until its partial output has
// been cleaned up, then settles it like Tick would.
func (o *Orchestrator) AbortAndWait(ctx context.Context) error {
	o.mu.Lock()
	o.halted = true
	copier := o.active

	if copier != nil {
		copier.Abort()
	}
	o.mu.Unlock()

	if copier == nil {
		return nil
	}

	select {
	case <-copier.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	o.mu.Lock()
	if o.active == copier {
		o.settleLocked()
	}
	o.mu.Unlock()

	o.flushEvents()

	return nil
}

// Copy resumes a paused copy or continues the queue from its cursor. A
// drained queue is not restarted; Plan builds the next one.
func (o *Orchestrator) Copy() error {
	defer o.flushEvents()

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.plan == nil {
		return ErrNoPlan
	}

	o.paused = false
	o.halted = false

	if o.active != nil {
		o.active.Resume()
		return nil
	}

	if o.cursor >= len(o.plan.Items) {
		return ErrQueueExhausted
	}

	o.startLocked()

	return nil
}

// Current returns the item being copied.
func (o *Orchestrator) Current() (WorkItem, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active == nil {
		return WorkItem{}, false
	}

	return o.plan.Items[o.cursor], true
}

// CurrentPlan returns the plan the queue was built from, or nil.
func (o *Orchestrator) CurrentPlan() *Plan {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.plan
}

// Dirty reports whether the table has changes not yet saved.
func (o *Orchestrator) Dirty() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.dirty
}

// Failures returns the items that did not copy in this run.
func (o *Orchestrator) Failures() []*CopyError {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]*CopyError(nil), o.failures...)
}

// IsIdle reports whether no copy is active.
func (o *Orchestrator) IsIdle() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.active == nil
}

// IsPaused reports whether the queue is paused.
func (o *Orchestrator) IsPaused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.paused
}

// Pause pauses the active copy and stops the queue from advancing.
func (o *Orchestrator) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.plan == nil {
		return
	}

	o.paused = true

	if o.active != nil {
		o.active.Pause()
	}
}

// Persist saves the table if it has unsaved changes.
func (o *Orchestrator) Persist(ctx context.Context) error {
	if !o.Dirty() {
		return nil
	}

	return o.persist(ctx)
}

// Plan loads the watermark table and replaces the queue with a fresh plan.
// Unsaved watermark changes are saved first. Planning is refused while a
// copy is active.
func (o *Orchestrator) Plan(ctx context.Context) (*Plan, error) {
	defer o.flushEvents()

	if !o.IsIdle() {
		return nil, ErrBusy
	}

	if err := o.Persist(ctx); err != nil {
		return nil, err
	}

	table, err := o.Store.Load(ctx)
	if err != nil {
		return nil, o.planFailed(&PlanError{Op: "watermarks", Path: o.Store.Location(), Err: err})
	}

	plan, err := o.Planner.Plan(ctx, o.SourceRoot, o.DestRoot, table)
	if err != nil {
		return nil, o.planFailed(err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != nil {
		return nil, ErrBusy
	}

	o.plan = plan
	o.states = make([]itemState, len(plan.Items))
	o.table = table
	o.cursor = 0
	o.paused = false
	o.halted = false
	o.dirty = false
	o.failures = nil
	o.completed = 0
	o.lastErr = nil

	o.Logger.Info("plan computed",
		slog.Int("items", len(plan.Items)),
		slog.Int64("bytes", plan.TotalBytes),
		slog.Int("folders", len(table)))
	o.queueEvent(PlanComplete{Plan: plan, Status: StatusLine(plan)})

	return plan, nil
}

// Progress returns the bytes copied across the queue and the planned total.
// Items the cursor has passed count in full, failed ones included.
func (o *Orchestrator) Progress() (int64, int64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.plan == nil {
		return 0, 0
	}

	var copied int64

	for i := 0; i < o.cursor && i < len(o.plan.Items); i++ {
		copied += o.plan.Items[i].Size
	}

	if o.active != nil && o.cursor < len(o.plan.Items) {
		live := o.active.BytesCopied()
		if size := o.plan.Items[o.cursor].Size; live > size {
			live = size
		}

		copied += live
	}

	return copied, o.plan.TotalBytes
}

// Skip aborts the current item. Its partial output is discarded and the
// queue moves on at the next tick.
func (o *Orchestrator) Skip() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != nil {
		o.active.Abort()
	}
}

// Tick is the scheduler step. It settles a finished copy, starts the next
// item unless paused, and saves the table once nothing is active.
func (o *Orchestrator) Tick(ctx context.Context) error {
	defer o.flushEvents()

	o.mu.Lock()

	if o.active != nil {
		select {
		case <-o.active.Done():
			o.settleLocked()
		default:
		}
	}

	shouldPersist := o.active == nil && o.dirty && !o.paused && !o.saving
	o.mu.Unlock()

	if !shouldPersist {
		return nil
	}

	return o.persist(ctx)
}

// Watermarks returns a copy of the in-memory table.
func (o *Orchestrator) Watermarks() watermark.Watermarks {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.table.Clone()
}

// advanceWatermarkLocked raises a folder's watermark to the newest completed
// item that is older than every item of the folder still outstanding, so a
// failed or skipped file is always planned again. Once every item of the
// folder has completed this is max(current, newest item modification time).
func (o *Orchestrator) advanceWatermarkLocked(folder string) {
	var (
		oldestOutstanding time.Time
		hasOutstanding    bool
	)

	for i, item := range o.plan.Items {
		if item.Folder() != folder || o.states[i] == itemCompleted {
			continue
		}

		if !hasOutstanding || item.ModTime.Before(oldestOutstanding) {
			oldestOutstanding = item.ModTime
			hasOutstanding = true
		}
	}

	var (
		newest time.Time
		found  bool
	)

	for i, item := range o.plan.Items {
		if item.Folder() != folder || o.states[i] != itemCompleted {
			continue
		}

		if hasOutstanding && !item.ModTime.Before(oldestOutstanding) {
			continue
		}

		if !found || item.ModTime.After(newest) {
			newest = item.ModTime
			found = true
		}
	}

	if found && o.table.Advance(folder, newest) {
		o.dirty = true
		o.generation++
	}
}

func (o *Orchestrator) flushEvents() {
	o.mu.Lock()
	events := o.pending
	o.pending = nil
	emitter := o.emitter
	o.mu.Unlock()

	if emitter == nil {
		return
	}

	for _, event := range events {
		emitter.Emit(event)
	}
}

func (o *Orchestrator) paths(item WorkItem) (string, string) {
	rel := filepath.FromSlash(item.RelativePath)
	return filepath.Join(o.SourceRoot, rel), filepath.Join(o.DestRoot, rel)
}

// persist saves a snapshot of the table. Changes made while saving keep the
// table dirty.
func (o *Orchestrator) persist(ctx context.Context) error {
	o.mu.Lock()

	if o.saving {
		o.mu.Unlock()
		return nil
	}

	o.saving = true
	snapshot := o.table.Clone()
	generation := o.generation
	o.mu.Unlock()

	err := o.Store.Save(ctx, snapshot)

	o.mu.Lock()
	defer o.mu.Unlock()

	o.saving = false

	if err != nil {
		perr := &PersistError{Location: o.Store.Location(), Err: err}
		o.lastErr = perr
		o.Logger.Error("saving watermarks failed", slog.String("store", o.Store.Location()), slog.Any("error", err))
		o.queueEvent(PersistFailed{Err: perr})

		return perr
	}

	if o.generation == generation {
		o.dirty = false
	}

	o.lastErr = nil
	o.Logger.Info("watermarks saved", slog.String("store", o.Store.Location()), slog.Int("folders", len(snapshot)))
	o.queueEvent(WatermarksSaved{Location: o.Store.Location(), Folders: len(snapshot)})

	return nil
}

func (o *Orchestrator) planFailed(err error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.lastErr = err
	o.Logger.Error("planning failed", slog.Any("error", err))
	o.queueEvent(ErrorOccurred{Phase: "plan", Err: err})

	return err
}

// queueEvent buffers an event until the lock is released. Lock held.
func (o *Orchestrator) queueEvent(event Event) {
	o.pending = append(o.pending, event)
}

// settleLocked records the outcome of the finished active copy and moves the
// cursor. Lock held.
func (o *Orchestrator) settleLocked() {
	copier := o.active
	o.active = nil
	item := o.plan.Items[o.cursor]

	if copier.Outcome() == fileops.Completed {
		o.states[o.cursor] = itemCompleted
		o.completed++
		o.advanceWatermarkLocked(item.Folder())
		o.Logger.Info("file copied", slog.String("path", item.RelativePath), slog.Int64("bytes", item.Size))
		o.queueEvent(FileCompleted{Item: item})
	} else {
		o.states[o.cursor] = itemFailed
		cerr := &CopyError{Item: item, Err: copier.Err()}
		o.failures = append(o.failures, cerr)
		o.Logger.Warn("file not copied",
			slog.String("path", item.RelativePath),
			slog.String("trouble", copier.Trouble()))
		o.queueEvent(FileFailed{Item: item, Err: cerr, Trouble: copier.Trouble()})
	}

	o.cursor++

	if o.cursor >= len(o.plan.Items) {
		o.Logger.Info("queue drained", slog.Int("completed", o.completed), slog.Int("failed", len(o.failures)))
		o.queueEvent(QueueDrained{Completed: o.completed, Failed: len(o.failures)})

		return
	}

	if !o.paused && !o.halted {
		o.startLocked()
	}
}

// startLocked hands the item at the cursor to a new copier. A copier that
// fails to start is already done and is settled by the next Tick. Lock held.
func (o *Orchestrator) startLocked() {
	item := o.plan.Items[o.cursor]
	src, dst := o.paths(item)

	copier := o.FileOps.NewCopier(src, dst)
	o.active = copier

	if err := copier.Start(); err != nil {
		o.Logger.Debug("copy did not start", slog.String("path", item.RelativePath), slog.Any("error", err))
	}

	o.queueEvent(FileStarted{Item: item, Index: o.cursor, Total: len(o.plan.Items)})
}
