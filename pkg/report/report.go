package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/operator-framework/usage-reporter/pkg/usage"
)

// TotalRowID labels the row summing every user.
const TotalRowID = "TOTAL"

// Row is one user's line in the weekly report.
type Row struct {
	UserID string
	// TotalCost is the all-time cost since the start date.
	TotalCost decimal.Decimal
	WeekCost  decimal.Decimal
	// WeekUsage is the instance-hours used during the report period.
	WeekUsage decimal.Decimal
	// Instances is the number of instances running at report time.
	Instances int
}

// Report is the rendered-ready result of a run.
type Report struct {
	RunDate   time.Time
	StartDate time.Time
	Period    usage.Range
	Rows      []Row
	Totals    Row
}

// Build assembles the report for period. Every user present in the cumulative
// table, in the period, or owning a running instance gets a row, with zeros
// where there was no activity. Rows are ordered by all-time cost, highest
// first, then by user id.
func Build(costs *usage.CostTable, daily *usage.DailyTable, period usage.Range, instances []usage.Instance, startDate, runDate time.Time) *Report {
	week := usage.Summarize(daily, period)

	running := make(map[string]int)
	for _, inst := range instances {
		running[inst.UserID]++
	}

	users := make(map[string]struct{})
	for _, user := range costs.Users() {
		users[user] = struct{}{}
	}
	for user := range week {
		users[user] = struct{}{}
	}
	for user := range running {
		users[user] = struct{}{}
	}

	r := &Report{
		RunDate:   usage.Day(runDate),
		StartDate: usage.Day(startDate),
		Period:    period,
		Totals: Row{
			UserID:    TotalRowID,
			TotalCost: decimal.Zero,
			WeekCost:  decimal.Zero,
			WeekUsage: decimal.Zero,
		},
	}
	for user := range users {
		row := Row{
			UserID:    user,
			TotalCost: costs.Total(user),
			WeekCost:  decimal.Zero,
			WeekUsage: decimal.Zero,
			Instances: running[user],
		}
		if s, ok := week[user]; ok {
			row.WeekCost = s.Cost
			row.WeekUsage = s.Usage
		}
		r.Rows = append(r.Rows, row)

		r.Totals.TotalCost = r.Totals.TotalCost.Add(row.TotalCost)
		r.Totals.WeekCost = r.Totals.WeekCost.Add(row.WeekCost)
		r.Totals.WeekUsage = r.Totals.WeekUsage.Add(row.WeekUsage)
		r.Totals.Instances += row.Instances
	}

	sort.Slice(r.Rows, func(i, j int) bool {
		if c := r.Rows[i].TotalCost.Cmp(r.Rows[j].TotalCost); c != 0 {
			return c > 0
		}
		return r.Rows[i].UserID < r.Rows[j].UserID
	})
	return r
}

// Row returns the row for user.
func (r *Report) Row(user string) (Row, bool) {
	for _, row := range r.Rows {
		if row.UserID == user {
			return row, true
		}
	}
	return Row{}, false
}
