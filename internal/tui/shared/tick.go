package shared

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is a message sent on each tick interval
type TickMsg time.Time

// TickCmd returns a command that sends one tick message after interval.
// A non-positive interval selects TickInterval.
func TickCmd(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		interval = TickInterval
	}

	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
