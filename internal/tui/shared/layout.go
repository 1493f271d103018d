package shared

import "github.com/charmbracelet/lipgloss"

// RenderWidgetBox frames content under a bold title. With a width of zero
// or less the box sizes itself to the content.
func RenderWidgetBox(title, content string, width int) string {
	const frame = 4 // border and padding on both sides

	box := BoxStyle()
	if width > frame {
		box = box.Width(width - frame)
	}

	if title == "" {
		return box.Render(content)
	}

	heading := lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor()).Render(title)

	return box.Render(lipgloss.JoinVertical(lipgloss.Left, heading, content))
}
