// Package tui is the interactive front end: it drives the Orchestrator's
// scheduler from the bubbletea tick loop and maps keys to its operations.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/media-sync/internal/log"
	"github.com/joe/media-sync/internal/syncengine"
	"github.com/joe/media-sync/internal/tui/shared"
)

// Model is the top-level bubbletea model.
type Model struct {
	ctx      context.Context //nolint:containedctx // bubbletea models have no other way to carry it
	orch     *syncengine.Orchestrator
	bridge   *shared.EventBridge
	logger   *slog.Logger
	interval time.Duration

	keys     keyMap
	help     help.Model
	progress progress.Model
	meter    *syncengine.RateMeter
	activity *shared.ActivityLog
	now      func() time.Time

	status   syncengine.Status
	failures []*syncengine.CopyError
	planning bool
	replan   bool
	quitting bool
	err      error
	width    int
}

// New creates the model and registers it as the orchestrator's event
// emitter. A non-positive interval selects the default tick cadence.
func New(ctx context.Context, orch *syncengine.Orchestrator, interval time.Duration) *Model {
	bridge := shared.NewEventBridge()
	orch.SetEventEmitter(bridge)

	if interval <= 0 {
		interval = shared.TickInterval
	}

	return &Model{
		ctx:      ctx,
		orch:     orch,
		bridge:   bridge,
		logger:   log.WithComponent("tui"),
		interval: interval,
		keys:     defaultKeyMap(),
		help:     help.New(),
		progress: shared.NewProgressModel(shared.ProgressBarWidth),
		meter:    syncengine.NewRateMeter(syncengine.RateWindow),
		activity: shared.NewActivityLog(shared.ActivityLogEntries),
		now:      time.Now,
		status:   orch.Snapshot(),
	}
}

// Run starts the interactive program and blocks until it exits. However the
// program ends, the active copy is aborted and the watermarks are saved
// before Run returns; a failed save is returned as a *syncengine.PersistError.
func Run(ctx context.Context, orch *syncengine.Orchestrator, interval time.Duration) error {
	model := New(ctx, orch, interval)
	defer model.bridge.Close()

	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running interface: %w", err)
	}

	cleanup := context.Background()

	if err := orch.AbortAndWait(cleanup); err != nil {
		return err
	}

	return orch.Persist(cleanup)
}

// Init implements tea.Model. Planning starts right away.
func (m *Model) Init() tea.Cmd {
	m.planning = true

	return tea.Batch(m.planCmd(), m.bridge.ListenCmd(), shared.TickCmd(m.interval))
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.progress.Width = min(max(msg.Width-shared.DefaultPadding*4, shared.ProgressBarWidth/2), shared.MaxProgressBarWidth) //nolint:mnd // box borders and padding on both sides

		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case shared.TickMsg:
		return m.handleTick()
	case shared.EngineEventMsg:
		m.handleEvent(msg.Event)
		return m, m.bridge.ListenCmd()
	case shared.PlanResultMsg:
		return m.handlePlanResult(msg)
	case shared.ShutdownCompleteMsg:
		if msg.Err != nil {
			m.err = msg.Err
		}

		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) handleEvent(event syncengine.Event) {
	now := m.now()

	switch event := event.(type) {
	case syncengine.FileStarted:
		m.logger.Debug("copy started", slog.String("path", event.Item.RelativePath))
	case syncengine.FileCompleted:
		m.activity.Add(now, shared.SuccessSymbol()+" "+event.Item.RelativePath)
	case syncengine.FileFailed:
		m.activity.Add(now, shared.ErrorSymbol()+" "+event.Item.RelativePath+": "+event.Trouble)
		m.failures = m.orch.Failures()
	case syncengine.QueueDrained:
		m.activity.Add(now, fmt.Sprintf("Queue finished: %d copied, %d not copied", event.Completed, event.Failed))
		m.replan = true
	case syncengine.WatermarksSaved:
		m.activity.Add(now, fmt.Sprintf("Saved %d folders to %s", event.Folders, event.Location))
	case syncengine.PersistFailed:
		m.activity.Add(now, shared.RenderError(event.Err.Error()))
	case syncengine.PlanComplete:
		m.activity.Add(now, event.Status)
	case syncengine.ErrorOccurred:
		m.activity.Add(now, shared.RenderError(event.Err.Error()))
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.orch.Abort()

		return m, m.shutdownCmd()
	case key.Matches(msg, m.keys.Copy):
		m.copy()
	case key.Matches(msg, m.keys.Pause):
		m.orch.Pause()
	case key.Matches(msg, m.keys.Skip):
		m.orch.Skip()
	case key.Matches(msg, m.keys.Plan):
		if !m.planning && m.orch.IsIdle() {
			m.planning = true
			return m, m.planCmd()
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	m.status = m.orch.Snapshot()

	return m, nil
}

func (m *Model) copy() {
	err := m.orch.Copy()

	switch {
	case err == nil:
		m.err = nil
		m.replan = false
	case errors.Is(err, syncengine.ErrQueueExhausted):
		m.activity.Add(m.now(), "Nothing left to copy")
	case errors.Is(err, syncengine.ErrNoPlan):
		m.activity.Add(m.now(), "Still planning")
	default:
		m.err = err
	}
}

func (m *Model) handlePlanResult(msg shared.PlanResultMsg) (tea.Model, tea.Cmd) {
	m.planning = false
	m.err = msg.Err

	if msg.Err != nil {
		m.logger.Error("planning failed", slog.Any("error", msg.Err))
	} else {
		m.failures = nil
		m.meter.Reset()
	}

	m.status = m.orch.Snapshot()

	return m, nil
}

// handleTick is the scheduler step. Once a drained queue has been saved the
// plan is refreshed so the screen shows what is left.
func (m *Model) handleTick() (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, nil
	}

	if err := m.orch.Tick(m.ctx); err != nil {
		m.err = err
	}

	m.status = m.orch.Snapshot()
	m.meter.Add(m.now(), m.status.BytesCopied)

	next := shared.TickCmd(m.interval)

	drainedAndSaved := m.status.Phase == syncengine.PhaseReady &&
		m.status.Index >= m.status.Total && !m.status.Dirty

	if m.replan && drainedAndSaved && !m.planning {
		m.replan = false
		m.planning = true

		return m, tea.Batch(next, m.planCmd())
	}

	return m, next
}

func (m *Model) planCmd() tea.Cmd {
	orch, ctx := m.orch, m.ctx

	return func() tea.Msg {
		plan, err := orch.Plan(ctx)
		return shared.PlanResultMsg{Plan: plan, Err: err}
	}
}

// shutdownCmd aborts the active copy, waits for its cleanup and saves. The
// run context may already be cancelled, so cleanup uses its own.
func (m *Model) shutdownCmd() tea.Cmd {
	orch := m.orch

	return func() tea.Msg {
		cleanup := context.Background()

		if err := orch.AbortAndWait(cleanup); err != nil {
			return shared.ShutdownCompleteMsg{Err: err}
		}

		return shared.ShutdownCompleteMsg{Err: orch.Persist(cleanup)}
	}
}
