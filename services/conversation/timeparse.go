package conversation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	relativePattern = regexp.MustCompile(`^in\s+(\d+)\s*(hours?|hrs?|h|minutes?|mins?|m)$`)
	clockPattern    = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)

	// Words that mark the input as a place, not a time.
	locationWords = []string{"street", "road", "avenue", "market", "mall", "airport", "station", "sector", "block", "near"}
)

// ParseTimeInput turns a free-text time ("3pm", "tomorrow 9am", "in 2 hours",
// "now", "2026-09-03 14:00") into a concrete future timestamp in loc. A bare
// clock time that already passed today rolls over to tomorrow; explicit past
// datetimes are rejected.
func ParseTimeInput(text string, now time.Time, loc *time.Location) (time.Time, error) {
	input := strings.ToLower(strings.TrimSpace(text))
	if input == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	for _, w := range locationWords {
		if strings.Contains(input, w) {
			return time.Time{}, fmt.Errorf("%q looks like a place, not a time", text)
		}
	}

	now = now.In(loc)

	if input == "now" || input == "asap" || input == "right now" {
		return now.Add(5 * time.Minute), nil
	}

	if m := relativePattern.FindStringSubmatch(input); m != nil {
		n, _ := strconv.Atoi(m[1])
		if strings.HasPrefix(m[2], "h") {
			return now.Add(time.Duration(n) * time.Hour), nil
		}
		return now.Add(time.Duration(n) * time.Minute), nil
	}

	if t, err := time.ParseInLocation("2006-01-02 15:04", input, loc); err == nil {
		if !t.After(now) {
			return time.Time{}, fmt.Errorf("that time is in the past")
		}
		return t, nil
	}

	dayOffset := 0
	rest := input
	switch {
	case strings.HasPrefix(input, "tomorrow"):
		dayOffset = 1
		rest = strings.TrimSpace(strings.TrimPrefix(input, "tomorrow"))
	case strings.HasPrefix(input, "today"):
		rest = strings.TrimSpace(strings.TrimPrefix(input, "today"))
	case strings.HasPrefix(input, "tonight"):
		rest = strings.TrimSpace(strings.TrimPrefix(input, "tonight"))
		if rest == "" {
			rest = "8pm"
		}
	}
	if rest == "" {
		// "tomorrow" with no clock defaults to 9am.
		rest = "9am"
	}

	hour, minute, err := parseClock(rest)
	if err != nil {
		return time.Time{}, err
	}

	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc).AddDate(0, 0, dayOffset)
	if !t.After(now) {
		if dayOffset == 0 && !strings.HasPrefix(input, "today") {
			// Bare "8am" after 8am means tomorrow morning.
			t = t.AddDate(0, 0, 1)
		} else {
			return time.Time{}, fmt.Errorf("that time is in the past")
		}
	}
	return t, nil
}

func parseClock(s string) (int, int, error) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, fmt.Errorf("could not understand time %q", s)
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	switch m[3] {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "":
		// 24h clock as written.
	}
	if hour > 23 || minute > 59 {
		return 0, 0, fmt.Errorf("could not understand time %q", s)
	}
	return hour, minute, nil
}
