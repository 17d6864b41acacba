package usage

import (
	"fmt"
	"time"
)

// ReportPeriodDays is the length of the trailing report period.
const ReportPeriodDays = 7

// Range is a half-open span of whole days, [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange returns the range of days from start up to but excluding end.
func NewRange(start, end time.Time) Range {
	return Range{Start: Day(start), End: Day(end)}
}

// ParseRange parses a range from two dates in DateLayout.
func ParseRange(startStr, endStr string) (Range, error) {
	start, err := ParseDate(startStr)
	if err != nil {
		return Range{}, fmt.Errorf("couldn't parse start of range '%s': %w", startStr, err)
	}

	end, err := ParseDate(endStr)
	if err != nil {
		return Range{}, fmt.Errorf("couldn't parse end of range '%s': %w", endStr, err)
	}

	return NewRange(start, end), nil
}

// Empty returns true if the range contains no days.
func (r Range) Empty() bool {
	return !r.Start.Before(r.End)
}

// Within returns true if the day t falls on is inside the range.
func (r Range) Within(t time.Time) bool {
	d := Day(t)
	if d.Before(r.Start) {
		return false
	}
	return d.Before(r.End)
}

// Days lists every day in the range in order.
func (r Range) Days() []time.Time {
	var days []time.Time
	for d := r.Start; d.Before(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Last returns the final day inside the range.
func (r Range) Last() time.Time {
	return r.End.AddDate(0, 0, -1)
}

func (r Range) Equal(other Range) bool {
	return r.Start.Equal(other.Start) && r.End.Equal(other.End)
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Format(DateLayout), r.End.Format(DateLayout))
}

// ReportPeriod is the trailing week ending at (and excluding) the run date.
func ReportPeriod(runDate time.Time) Range {
	end := Day(runDate)
	return Range{Start: end.AddDate(0, 0, -ReportPeriodDays), End: end}
}

// Window returns the days that still have to be fetched for a run on runDate.
// A zero lastDate means nothing has been aggregated yet and the window starts at
// startDate. Otherwise it starts on the day after lastDate, so runs that were
// skipped are covered. The window is empty when history is already up to date.
func Window(startDate, runDate, lastDate time.Time) Range {
	start := Day(startDate)
	if !lastDate.IsZero() {
		next := Day(lastDate).AddDate(0, 0, 1)
		if next.After(start) {
			start = next
		}
	}

	end := Day(runDate)
	if !start.Before(end) {
		return Range{Start: start, End: start}
	}
	return Range{Start: start, End: end}
}
