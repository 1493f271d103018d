package syncengine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/joe/media-sync/internal/log"
)

// DefaultReportInterval is how often the headless runner logs progress.
const DefaultReportInterval = 5 * time.Second

// Summary describes the outcome of a run.
type Summary struct {
	Planned   int
	Completed int
	Failed    int
	Bytes     int64
	Failures  []*CopyError
}

// Summary returns the outcome of the current run so far.
func (o *Orchestrator) Summary() Summary {
	o.mu.Lock()
	defer o.mu.Unlock()

	return Summary{
		Planned:   o.plan.Len(),
		Completed: o.completed,
		Failed:    len(o.failures),
		Bytes:     o.bytesCompletedLocked(),
		Failures:  append([]*CopyError(nil), o.failures...),
	}
}

func (o *Orchestrator) bytesCompletedLocked() int64 {
	var total int64

	for i, state := range o.states {
		if state == itemCompleted {
			total += o.plan.Items[i].Size
		}
	}

	return total
}

// Runner copies the whole queue without a user interface, ticking the
// Orchestrator on its own cadence.
type Runner struct {
	Orchestrator   *Orchestrator
	TimeProvider   TimeProvider
	Interval       time.Duration
	ReportInterval time.Duration
	Logger         *slog.Logger
	// OnTick, when set, receives the status after every tick.
	OnTick func(Status)
}

// NewRunner creates a runner with the default cadence.
func NewRunner(o *Orchestrator) *Runner {
	return &Runner{
		Orchestrator:   o,
		TimeProvider:   &RealTimeProvider{},
		Interval:       DefaultPollInterval,
		ReportInterval: DefaultReportInterval,
		Logger:         log.WithComponent("runner"),
	}
}

// Run plans, copies every item and saves the watermarks. Cancelling ctx
// aborts the active copy, waits for its cleanup and saves what was
// completed. A failed save is returned as a *PersistError.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	o := r.Orchestrator

	plan, err := o.Plan(ctx)
	if err != nil {
		return o.Summary(), err
	}

	r.Logger.Info(StatusLine(plan))

	if plan.Len() == 0 {
		return o.Summary(), nil
	}

	if err := o.Copy(); err != nil {
		return o.Summary(), err
	}

	ticker := r.TimeProvider.NewTicker(r.Interval)
	defer ticker.Stop()

	lastReport := r.TimeProvider.Now()
	meter := NewRateMeter(RateWindow)

	for {
		select {
		case <-ctx.Done():
			return r.shutdown(ctx.Err())
		case <-ticker.C():
		}

		err := o.Tick(ctx)
		status := o.Snapshot()

		if r.OnTick != nil {
			r.OnTick(status)
		}

		now := r.TimeProvider.Now()
		meter.Add(now, status.BytesCopied)

		if now.Sub(lastReport) >= r.ReportInterval {
			lastReport = now
			r.report(status, meter)
		}

		if err != nil {
			return o.Summary(), err
		}

		if status.Phase == PhaseReady && status.Index >= status.Total && !status.Dirty {
			summary := o.Summary()
			r.Logger.Info("run finished",
				slog.Int("completed", summary.Completed),
				slog.Int("failed", summary.Failed),
				slog.String("bytes", humanize.Bytes(uint64(summary.Bytes)))) //nolint:gosec // byte counts are non-negative

			return summary, nil
		}
	}
}

func (r *Runner) report(status Status, meter *RateMeter) {
	attrs := []any{
		slog.String("copied", humanize.Bytes(uint64(status.BytesCopied))), //nolint:gosec // byte counts are non-negative
		slog.String("total", humanize.Bytes(uint64(status.BytesTotal))),   //nolint:gosec // byte counts are non-negative
		slog.String("rate", humanize.Bytes(uint64(meter.Rate()))+"/s"),
		slog.String("current", status.Current),
	}

	if eta, ok := meter.ETA(status.BytesTotal - status.BytesCopied); ok {
		attrs = append(attrs, slog.Duration("eta", eta.Round(time.Second)))
	}

	r.Logger.Info("progress", attrs...)
}

// shutdown aborts the active copy and saves what completed. The save uses a
// fresh context because the run's context is already done.
func (r *Runner) shutdown(cause error) (Summary, error) {
	o := r.Orchestrator
	cleanup := context.Background()

	r.Logger.Warn("run interrupted, aborting active copy")

	if err := o.AbortAndWait(cleanup); err != nil {
		return o.Summary(), errors.Join(cause, err)
	}

	if err := o.Persist(cleanup); err != nil {
		return o.Summary(), errors.Join(cause, err)
	}

	return o.Summary(), cause
}
