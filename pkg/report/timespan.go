package report

import (
	"fmt"
	"strconv"
	"strings"
)

// defaultTimespanSeconds is the lookback window used when no timespan is
// selected: 24 hours.
const defaultTimespanSeconds = 24 * 60 * 60

// ConvertToSeconds turns a timespan selection into seconds. Accepted shapes
// are the preset labels ("24 Hours", "1 Week"), a bare number of hours, and
// the empty string, which falls back to the 24 hour default.
func ConvertToSeconds(selection string) (int, error) {
	selection = strings.TrimSpace(selection)
	if selection == "" {
		return defaultTimespanSeconds, nil
	}

	fields := strings.Fields(selection)
	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid timespan %q", selection)
	}

	unit := "hours"
	if len(fields) > 1 {
		unit = strings.ToLower(fields[1])
	}
	switch unit {
	case "hour", "hours":
		return n * 60 * 60, nil
	case "day", "days":
		return n * 24 * 60 * 60, nil
	case "week", "weeks":
		return n * 7 * 24 * 60 * 60, nil
	default:
		return 0, fmt.Errorf("invalid timespan %q", selection)
	}
}
