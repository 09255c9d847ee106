package subtitle

import (
	"fmt"
)

// Sep is the placeholder millisecond separator in formatted offsets.
// Render swaps it for the grammar-specific separator: "," for SRT,
// "." for WebVTT.
const Sep = "#"

// FormatOffset renders milliseconds elapsed since test start as
// HH:MM:SS#mmm using pure integer math. The hour field is not wrapped
// at 24, so runs longer than a day keep correct timestamps. Negative
// input clamps to zero.
func FormatOffset(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3600000
	minutes := ms % 3600000 / 60000
	seconds := ms % 60000 / 1000
	millis := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hours, minutes, seconds, Sep, millis)
}

// ParseOffset reconstructs milliseconds from an HH:MM:SS#mmm string.
func ParseOffset(s string) (int64, error) {
	var hours, minutes, seconds, millis int64
	if _, err := fmt.Sscanf(s, "%d:%d:%d"+Sep+"%d", &hours, &minutes, &seconds, &millis); err != nil {
		return 0, fmt.Errorf("malformed offset %q: %w", s, err)
	}
	return hours*3600000 + minutes*60000 + seconds*1000 + millis, nil
}
