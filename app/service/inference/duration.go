package inference

import (
	"fmt"
	"strings"
	"time"
)

var startDateLayouts = []string{"January 2006", "2006"}

func parseStartDate(s string) (time.Time, bool) {
	for _, layout := range startDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// elapsedYearsMonths decomposes now-start into whole years and months, the
// month count normalized to 0-11 by borrowing from years. Future start dates
// report not ok and are skipped by the caller.
func elapsedYearsMonths(now, start time.Time) (years, months int, ok bool) {
	if now.Before(start) {
		return 0, 0, false
	}

	years = now.Year() - start.Year()
	months = int(now.Month()) - int(start.Month())
	if months < 0 {
		years--
		months += 12
	}

	return years, months, true
}

func formatDuration(years, months int) string {
	if years == 0 && months == 0 {
		return "less than a month"
	}

	var parts []string
	if years > 0 {
		parts = append(parts, pluralize(years, "year"))
	}
	if months > 0 {
		parts = append(parts, pluralize(months, "month"))
	}

	return strings.Join(parts, " and ")
}

func pluralize(n int, unit string) string {
	if n > 1 {
		return fmt.Sprintf("%d %ss", n, unit)
	}

	return fmt.Sprintf("%d %s", n, unit)
}
