package usage

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the layout used for dates in persisted tables and billing queries.
	DateLayout = "2006-01-02"

	// UntaggedUser is the bucket for resources carrying no ownership tag.
	UntaggedUser = "untagged"
	// UnattributedUser is the bucket for ownership tag values that don't match a known user.
	UnattributedUser = "unattributed"

	// MoneyScale is the number of decimal places costs are kept at.
	MoneyScale = 2
	// UsageScale is the number of decimal places instance-hours are kept at.
	UsageScale = 2
)

// UsageRecord is the compute time attributed to a user on a single day.
type UsageRecord struct {
	Date   time.Time
	UserID string
	// Usage is measured in instance-hours.
	Usage decimal.Decimal
}

// CostRecord is the cost attributed to a user on a single day.
type CostRecord struct {
	Date   time.Time
	UserID string
	Amount decimal.Decimal
}

// DailyRecord is a row of the daily usage table.
type DailyRecord struct {
	Date   time.Time
	UserID string
	Usage  decimal.Decimal
	Cost   decimal.Decimal
}

// Instance is a running compute instance annotated with its owner.
type Instance struct {
	ID         string
	Type       string
	UserID     string
	LaunchTime time.Time
}

type recordKey struct {
	date string
	user string
}

func keyOf(date time.Time, user string) recordKey {
	return recordKey{date: Day(date).Format(DateLayout), user: user}
}

// Day truncates t to midnight UTC of the calendar day t falls on in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// RoundMoney rounds an amount to MoneyScale places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// RoundUsage rounds a usage quantity to UsageScale places.
func RoundUsage(d decimal.Decimal) decimal.Decimal {
	return d.Round(UsageScale)
}
