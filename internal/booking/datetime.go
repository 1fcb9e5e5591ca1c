package booking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateResolution is the outcome of resolving a natural-language date.
// Value is an ISO date (2006-01-02). Ambiguous is set for relative terms
// (weekday names, "tomorrow", ...) that the customer should confirm
// before resources are committed.
type DateResolution struct {
	Value     string
	Ambiguous bool
}

// TimeResolution is the outcome of resolving a natural-language time.
// Value is 24-hour HH:MM. Ambiguous is set when a numeric hour in the
// 1-12 range carries no AM/PM marker.
type TimeResolution struct {
	Value     string
	Ambiguous bool
}

const (
	isoDateLayout = "2006-01-02"
	clockLayout   = "15:04"
)

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

var commonTimes = map[string]string{
	"morning":   "09:00",
	"afternoon": "14:00",
	"evening":   "18:00",
	"noon":      "12:00",
	"midnight":  "00:00",
}

var (
	inDaysRe   = regexp.MustCompile(`^in (\d+) days?$`)
	isoDateRe  = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	hourMinRe  = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	bareHourRe = regexp.MustCompile(`^(\d{1,2})$`)
	meridiemRe = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)$`)
)

// ResolveDate converts a natural-language date to an ISO calendar date
// relative to ref. Supported forms: "today"/"tomorrow"/"yesterday",
// "next <weekday>", bare weekday names (next occurrence; same day when
// ref is before 6 PM), "in N days", and already-absolute ISO dates,
// which resolve to themselves.
func ResolveDate(text string, ref time.Time) (DateResolution, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return DateResolution{}, fmt.Errorf("%w: empty date", ErrParseFailure)
	}

	switch s {
	case "today":
		return DateResolution{Value: ref.Format(isoDateLayout), Ambiguous: true}, nil
	case "tomorrow":
		return DateResolution{Value: ref.AddDate(0, 0, 1).Format(isoDateLayout), Ambiguous: true}, nil
	case "yesterday":
		return DateResolution{Value: ref.AddDate(0, 0, -1).Format(isoDateLayout), Ambiguous: true}, nil
	}

	if name, ok := strings.CutPrefix(s, "next "); ok {
		if wd, known := weekdays[name]; known {
			ahead := (int(wd) - int(ref.Weekday()) + 7) % 7
			if ahead == 0 {
				ahead = 7
			}
			return DateResolution{Value: ref.AddDate(0, 0, ahead).Format(isoDateLayout), Ambiguous: true}, nil
		}
	}

	if wd, ok := weekdays[s]; ok {
		ahead := (int(wd) - int(ref.Weekday()) + 7) % 7
		if ahead == 0 {
			// Same weekday: still bookable today before 6 PM, otherwise
			// the customer almost certainly means next week.
			if ref.Hour() >= 18 {
				ahead = 7
			}
		}
		return DateResolution{Value: ref.AddDate(0, 0, ahead).Format(isoDateLayout), Ambiguous: true}, nil
	}

	if m := inDaysRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return DateResolution{}, fmt.Errorf("%w: %q", ErrParseFailure, text)
		}
		return DateResolution{Value: ref.AddDate(0, 0, n).Format(isoDateLayout), Ambiguous: true}, nil
	}

	if isoDateRe.MatchString(s) {
		if _, err := time.Parse(isoDateLayout, s); err != nil {
			return DateResolution{}, fmt.Errorf("%w: %q", ErrParseFailure, text)
		}
		return DateResolution{Value: s}, nil
	}

	return DateResolution{}, fmt.Errorf("%w: %q", ErrParseFailure, text)
}

// ResolveTime converts a natural-language time to 24-hour HH:MM.
// Supported forms: common phrases ("morning", "noon", ...), 12-hour
// literals with AM/PM, 24-hour HH:MM, and bare numeric hours. A bare
// hour or HH:MM in the 1-12 range is flagged ambiguous because the
// customer never said AM or PM.
func ResolveTime(text string) (TimeResolution, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return TimeResolution{}, fmt.Errorf("%w: empty time", ErrParseFailure)
	}

	if v, ok := commonTimes[s]; ok {
		return TimeResolution{Value: v}, nil
	}

	if m := meridiemRe.FindStringSubmatch(s); m != nil {
		hour, err := strconv.Atoi(m[1])
		if err != nil || hour < 1 || hour > 12 {
			return TimeResolution{}, fmt.Errorf("%w: %q", ErrParseFailure, text)
		}
		minute := 0
		if m[2] != "" {
			minute, err = strconv.Atoi(m[2])
			if err != nil || minute > 59 {
				return TimeResolution{}, fmt.Errorf("%w: %q", ErrParseFailure, text)
			}
		}
		if m[3] == "pm" && hour != 12 {
			hour += 12
		}
		if m[3] == "am" && hour == 12 {
			hour = 0
		}
		return TimeResolution{Value: fmt.Sprintf("%02d:%02d", hour, minute)}, nil
	}

	if m := hourMinRe.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return TimeResolution{}, fmt.Errorf("%w: %q", ErrParseFailure, text)
		}
		return TimeResolution{
			Value:     fmt.Sprintf("%02d:%02d", hour, minute),
			Ambiguous: hour >= 1 && hour <= 12,
		}, nil
	}

	if m := bareHourRe.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour > 23 {
			return TimeResolution{}, fmt.Errorf("%w: %q", ErrParseFailure, text)
		}
		return TimeResolution{
			Value:     fmt.Sprintf("%02d:00", hour),
			Ambiguous: hour >= 1 && hour <= 12,
		}, nil
	}

	return TimeResolution{}, fmt.Errorf("%w: %q", ErrParseFailure, text)
}

// FormatDateForCustomer renders an ISO date as "Friday, November 21" for
// confirmation prompts.
func FormatDateForCustomer(isoDate string) string {
	t, err := time.Parse(isoDateLayout, isoDate)
	if err != nil {
		return isoDate
	}
	return fmt.Sprintf("%s, %s %d", t.Weekday(), t.Month(), t.Day())
}

// FormatTimeForCustomer renders a 24-hour HH:MM as "3:00 PM".
func FormatTimeForCustomer(clock string) string {
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		return clock
	}
	return t.Format("3:04 PM")
}

// AddMinutes advances a 24-hour HH:MM clock value. Used to walk the
// service chain cursor and to derive end times.
func AddMinutes(clock string, minutes int) (string, error) {
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrParseFailure, clock)
	}
	return t.Add(time.Duration(minutes) * time.Minute).Format(clockLayout), nil
}

// clockMinutes converts HH:MM to minutes since midnight, for business-hour
// window arithmetic.
func clockMinutes(clock string) (int, error) {
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrParseFailure, clock)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// minutesClock is the inverse of clockMinutes.
func minutesClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
