package shared

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatBytes formats bytes into human-readable format (e.g., "1.5 MB")
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}

	return humanize.Bytes(uint64(bytes))
}

// FormatDuration formats duration into human-readable format (e.g., "2m 30s")
func FormatDuration(duration time.Duration) string {
	duration = duration.Round(time.Second)
	hours := duration / time.Hour
	duration %= time.Hour
	minutes := duration / time.Minute
	duration %= time.Minute
	seconds := duration / time.Second

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}

// FormatRate formats transfer rate into human-readable format (e.g., "5.2 MB/s")
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec < 0 {
		bytesPerSec = 0
	}

	return humanize.Bytes(uint64(bytesPerSec)) + "/s"
}

// TruncatePath shortens path to width by eliding its middle.
func TruncatePath(path string, width int) string {
	runes := []rune(path)
	if width <= 0 || len(runes) <= width {
		return path
	}

	if width <= ProgressEllipsisLength {
		return string(runes[len(runes)-width:])
	}

	keep := width - ProgressEllipsisLength
	head := keep / 2 //nolint:mnd // split evenly around the ellipsis
	tail := keep - head

	return string(runes[:head]) + "..." + string(runes[len(runes)-tail:])
}
