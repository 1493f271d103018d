package tui

import (
	"fmt"
	"strings"

	"github.com/joe/media-sync/internal/syncengine"
	"github.com/joe/media-sync/internal/tui/shared"
	"github.com/joe/media-sync/internal/tui/widgets"
)

const planPreviewItems = 5

// View implements tea.Model.
func (m *Model) View() string {
	var builder strings.Builder

	builder.WriteString(shared.RenderTitle("media-sync"))
	builder.WriteString("  ")
	builder.WriteString(shared.RenderDim(fmt.Sprintf("%s → %s", m.orch.SourceRoot, m.orch.DestRoot)))
	builder.WriteString("\n\n")

	builder.WriteString(m.renderStatusLine())
	builder.WriteString("\n\n")

	switch m.status.Phase {
	case syncengine.PhaseUnplanned:
		if m.planning {
			builder.WriteString(shared.RenderDim("Planning..."))
			builder.WriteString("\n")
		}
	case syncengine.PhaseCopying, syncengine.PhasePaused:
		builder.WriteString(shared.RenderQueueProgress(m.progress, m.status))
		builder.WriteString("\n")
		builder.WriteString(widgets.NewProgressWidget(m.snapshot, m.meter)())
		builder.WriteString("\n")
	case syncengine.PhaseReady:
		if m.status.Index >= m.status.Total && m.status.Total > 0 {
			builder.WriteString(widgets.NewSummaryWidget(m.orch.Summary)())
		} else {
			builder.WriteString(widgets.NewSyncPlanWidget(m.orch.CurrentPlan, planPreviewItems)())
		}

		builder.WriteString("\n")
	}

	if entries := m.activity.Entries(); len(entries) > 0 {
		builder.WriteString("\n")
		builder.WriteString(shared.RenderWidgetBox("Activity",
			widgets.NewActivityLogWidget(m.activity, shared.ActivityLogEntries)(), m.width))
		builder.WriteString("\n")
	}

	if len(m.failures) > 0 {
		builder.WriteString("\n")
		builder.WriteString(shared.RenderError("Not copied"))
		builder.WriteString("\n")
		builder.WriteString(shared.RenderErrorList(shared.ErrorListConfig{
			Failures:        m.failures,
			Limit:           shared.ErrorListEntries,
			DestRoot:        m.orch.DestRoot,
			MaxWidth:        m.width - shared.DefaultPadding*2, //nolint:mnd // indent on both sides
			ShowSuggestions: m.status.Phase == syncengine.PhaseReady,
		}))
	}

	builder.WriteString("\n")
	builder.WriteString(m.help.View(m.keys))

	return builder.String()
}

// renderStatusLine shows the error, if any, otherwise the engine's message.
func (m *Model) renderStatusLine() string {
	if m.quitting {
		return shared.RenderWarning("Stopping, saving progress...")
	}

	if m.err != nil {
		return shared.RenderError(m.err.Error())
	}

	switch m.status.Phase {
	case syncengine.PhasePaused:
		return shared.RenderWarning("Paused") + "  " + m.status.Message
	case syncengine.PhaseCopying:
		return shared.FileItemCopyingStyle().Render(m.status.Message)
	default:
		return m.status.Message
	}
}

func (m *Model) snapshot() syncengine.Status {
	return m.status
}
