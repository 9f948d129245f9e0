package calc

import (
	"fmt"
	"math"
	"time"
)

// Progress calculates the percentage for a given pair of numbers.
func Progress(downloaded, total int) int {
	if total > 0 {
		return int(math.Round(float64(downloaded) / float64(total) * 100))
	}
	return 0
}

// Percent calculates the raw percentage as a float for a given pair of numbers.
func Percent(downloaded, total int) float64 {
	if total > 0 {
		return float64(downloaded) / float64(total) * 100
	}
	return 0
}

// ETA calculates the estimated time of arrival.
func ETA(downloaded, total int, started time.Time) time.Duration {
	if total > 0 {
		downloaded := float64(downloaded)
		total := float64(total)
		elapsed := time.Since(started)
		eta := time.Duration(float64(elapsed) * (total/downloaded - 1))
		return eta
	}
	return 0
}

// FormatETA renders a duration as mm:ss, or hh:mm:ss past an hour,
// matching the shape of yt-dlp status lines.
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return "00:00"
	}

	total := int(d.Round(time.Second).Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
