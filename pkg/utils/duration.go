package utils

import (
	"fmt"
)

// FormatDuration renders elapsed seconds the way the report tables show
// them: "45s", "3m 20s", "2h 5m".
func FormatDuration(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	}
	return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
}
