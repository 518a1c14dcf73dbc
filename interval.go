package vocab

import (
	"fmt"
	"math"
)

// FormatInterval renders a day count for display:
// 0 → "Now", 1 → "1 day", 2–29 → "N days", 30–364 → months, ≥365 → years.
func FormatInterval(days int) string {
	switch {
	case days <= 0:
		return "Now"
	case days == 1:
		return "1 day"
	case days < 30:
		return fmt.Sprintf("%d days", days)
	case days < 365:
		return plural(int(math.Round(float64(days)/30)), "month")
	default:
		return plural(int(math.Round(float64(days)/365)), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
