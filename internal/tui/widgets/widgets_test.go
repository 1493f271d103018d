//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package widgets_test

import (
	"errors"
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/media-sync/internal/syncengine"
	"github.com/joe/media-sync/internal/tui/shared"
	"github.com/joe/media-sync/internal/tui/widgets"
)

func TestProgressWidgetUnplanned(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	render := widgets.NewProgressWidget(func() syncengine.Status {
		return syncengine.Status{Phase: syncengine.PhaseUnplanned}
	}, nil)

	g.Expect(render()).To(Equal("Files: 0 / 0 (0.0%)\nBytes: 0 B / 0 B"))
}

func TestProgressWidgetShowsRateWhileCopying(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	meter := syncengine.NewRateMeter(time.Minute)
	start := time.Unix(1000, 0)
	meter.Add(start, 0)
	meter.Add(start.Add(time.Second), 1000)

	status := syncengine.Status{
		Phase:       syncengine.PhaseCopying,
		Index:       1,
		Total:       4,
		BytesCopied: 1000,
		BytesTotal:  4000,
	}

	out := widgets.NewProgressWidget(func() syncengine.Status { return status }, meter)()

	g.Expect(out).To(ContainSubstring("Files: 1 / 4 (25.0%)"))
	g.Expect(out).To(ContainSubstring("Bytes: 1.0 kB / 4.0 kB"))
	g.Expect(out).To(ContainSubstring("Rate: 1.0 kB/s"))
	g.Expect(out).To(ContainSubstring("ETA: 3s"))

	status.Phase = syncengine.PhasePaused
	out = widgets.NewProgressWidget(func() syncengine.Status { return status }, meter)()
	g.Expect(out).NotTo(ContainSubstring("Rate"))
}

func TestSyncPlanWidget(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(widgets.NewSyncPlanWidget(func() *syncengine.Plan { return nil }, 2)()).To(Equal("Not planned yet"))

	plan := &syncengine.Plan{
		Items: []syncengine.WorkItem{
			{RelativePath: "a/1.mp4", Size: 10},
			{RelativePath: "a/2.mp4", Size: 20},
			{RelativePath: "b/1.mp4", Size: 30},
		},
		TotalBytes: 60,
	}

	out := widgets.NewSyncPlanWidget(func() *syncengine.Plan { return plan }, 2)()
	g.Expect(out).To(HavePrefix("60 bytes in 3 files to be copied."))
	g.Expect(out).To(ContainSubstring("a/2.mp4"))
	g.Expect(out).NotTo(ContainSubstring("b/1.mp4"))
	g.Expect(out).To(ContainSubstring("... and 1 more"))
}

func TestSummaryWidget(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(widgets.NewSummaryWidget(func() syncengine.Summary { return syncengine.Summary{} })()).
		To(Equal("Nothing was copied"))

	out := widgets.NewSummaryWidget(func() syncengine.Summary {
		return syncengine.Summary{Planned: 3, Completed: 1, Failed: 2, Bytes: 2048}
	})()

	g.Expect(out).To(ContainSubstring("Copied: 1 file (2.0 kB)"))
	g.Expect(out).To(ContainSubstring("Not copied: 2"))
}

func TestActivityLogWidget(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	log := shared.NewActivityLog(10)
	at := time.Date(2024, 1, 1, 8, 0, 0, 0, time.Local)
	log.Add(at, "first")
	log.Add(at, "second")

	g.Expect(widgets.NewActivityLogWidget(log, 1)()).To(Equal("  08:00:00 second"))
}

func TestErrorListRendersSuggestions(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	failures := []*syncengine.CopyError{
		{Item: syncengine.WorkItem{RelativePath: "a/1.mp4"}, Err: errors.New("open /src/a/1.mp4: permission denied")}, //nolint:err113 // test input
		{Item: syncengine.WorkItem{RelativePath: "a/2.mp4"}, Err: errors.New("Destination file exists.")},             //nolint:err113,staticcheck // test input
	}

	out := shared.RenderErrorList(shared.ErrorListConfig{
		Failures:        failures,
		Limit:           1,
		DestRoot:        "/dst",
		ShowSuggestions: true,
	})

	g.Expect(out).To(ContainSubstring("... and 1 earlier"))
	g.Expect(out).NotTo(ContainSubstring("a/1.mp4"))
	g.Expect(out).To(ContainSubstring("a/2.mp4"))
	g.Expect(out).To(ContainSubstring("/dst/a/2.mp4"))
	g.Expect(shared.RenderErrorList(shared.ErrorListConfig{})).To(BeEmpty())
}
