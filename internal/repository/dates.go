package repository

import "time"

// Reporting dates are stored as TEXT columns so composite keys and range
// scans stay portable across drivers.
const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
