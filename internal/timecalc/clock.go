package timecalc

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Placeholder marks a time-of-day field that has not been recorded yet.
const Placeholder = "--:--"

const (
	// DateKeyLayout is the dd/mm/yyyy layout used to key punch records.
	DateKeyLayout = "02/01/2006"
	// ClockLayout is the HH:MM layout of recorded punch times.
	ClockLayout = "15:04"
)

var clockPattern = regexp.MustCompile(`^(\d+):(\d{2})$`)

// Minutes is a minute count that may be unknown. The zero value is Unknown,
// so a missing value can never read as zero minutes.
type Minutes struct {
	n     int
	known bool
}

// Unknown is the "not recorded" value.
var Unknown = Minutes{}

// Known wraps a concrete minute count.
func Known(n int) Minutes {
	return Minutes{n: n, known: true}
}

// Value returns the minute count and whether it is known.
func (m Minutes) Value() (int, bool) {
	return m.n, m.known
}

// IsKnown reports whether m holds a concrete value.
func (m Minutes) IsKnown() bool {
	return m.known
}

// Or returns the minute count, or fallback when m is Unknown.
func (m Minutes) Or(fallback int) int {
	if !m.known {
		return fallback
	}
	return m.n
}

func (m Minutes) String() string {
	if !m.known {
		return "unknown"
	}
	return strconv.Itoa(m.n)
}

// ParseTimeToMinutes converts "HH:MM" into minutes since midnight.
// The placeholder, the empty string and anything else that is not exactly
// HH:MM (surrounding whitespace included) yield Unknown.
func ParseTimeToMinutes(text string) Minutes {
	if text == "" || text == Placeholder {
		return Unknown
	}
	parts := clockPattern.FindStringSubmatch(text)
	if parts == nil {
		return Unknown
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return Unknown
	}
	m, err := strconv.Atoi(parts[2])
	if err != nil || m >= 60 {
		return Unknown
	}
	return Known(h*60 + m)
}

// MinutesToHHMM formats minutes as zero-padded HH:MM. Negative values get a
// leading '-'; hours are not wrapped at 24.
func MinutesToHHMM(minutes int) string {
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%s%02d:%02d", sign, minutes/60, minutes%60)
}

// FormatBankMinutes formats a banked-hours balance as ±H:MM. The sign is
// always present; zero is "+0:00".
func FormatBankMinutes(minutes int) string {
	sign := "+"
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%s%d:%02d", sign, minutes/60, minutes%60)
}

// DiffMinutes returns end minus start. Either side being Unknown makes the
// result Unknown. An end before start gives a negative value; overnight
// shifts are not handled.
func DiffMinutes(start, end string) Minutes {
	s, ok := ParseTimeToMinutes(start).Value()
	if !ok {
		return Unknown
	}
	e, ok := ParseTimeToMinutes(end).Value()
	if !ok {
		return Unknown
	}
	return Known(e - s)
}

// DateKey returns the dd/mm/yyyy record key for t.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// ParseDateKey parses a dd/mm/yyyy record key in loc.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t, nil
}

// ClockTime returns the HH:MM time of day of t.
func ClockTime(t time.Time) string {
	return t.Format(ClockLayout)
}
