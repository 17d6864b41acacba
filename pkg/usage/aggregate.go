package usage

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Aggregation is the outcome of folding a fetch window into history.
type Aggregation struct {
	Costs *CostTable
	Daily *DailyTable
	// Added is the number of daily rows appended.
	Added int
	// Skipped counts input records dated on or before the last aggregated day.
	Skipped int
}

// Aggregate merges newly fetched cost and usage records into copies of the
// given tables. Records for days already present in history are skipped, and
// within the batch records are keyed by (date, user) so a repeated record
// overwrites rather than adds. Each new daily row increases the user's
// cumulative total by that day's cost. A user with cost but no usage on a day
// gets a row with zero usage, and the other way around.
func Aggregate(costs *CostTable, daily *DailyTable, newCosts []CostRecord, newUsage []UsageRecord) (*Aggregation, error) {
	out := &Aggregation{
		Costs: costs.Clone(),
		Daily: daily.Clone(),
	}
	var lastDate string
	if last := daily.LastDate(); !last.IsZero() {
		lastDate = last.Format(DateLayout)
	}
	aggregated := func(k recordKey) bool {
		return lastDate != "" && k.date <= lastDate
	}

	batch := make(map[recordKey]*DailyRecord)
	entry := func(k recordKey, rec DailyRecord) *DailyRecord {
		e, ok := batch[k]
		if !ok {
			e = &DailyRecord{Date: Day(rec.Date), UserID: rec.UserID, Usage: decimal.Zero, Cost: decimal.Zero}
			batch[k] = e
		}
		return e
	}

	for _, r := range newUsage {
		if r.UserID == "" {
			return nil, fmt.Errorf("usage record for %s has no user id", r.Date.Format(DateLayout))
		}
		if r.Usage.IsNegative() {
			return nil, fmt.Errorf("negative usage %s for %s on %s", r.Usage, r.UserID, r.Date.Format(DateLayout))
		}
		k := keyOf(r.Date, r.UserID)
		if aggregated(k) {
			out.Skipped++
			continue
		}
		entry(k, DailyRecord{Date: r.Date, UserID: r.UserID}).Usage = r.Usage
	}

	for _, r := range newCosts {
		if r.UserID == "" {
			return nil, fmt.Errorf("cost record for %s has no user id", r.Date.Format(DateLayout))
		}
		if r.Amount.IsNegative() {
			return nil, fmt.Errorf("negative cost %s for %s on %s", r.Amount, r.UserID, r.Date.Format(DateLayout))
		}
		k := keyOf(r.Date, r.UserID)
		if aggregated(k) {
			out.Skipped++
			continue
		}
		entry(k, DailyRecord{Date: r.Date, UserID: r.UserID}).Cost = r.Amount
	}

	keys := make([]recordKey, 0, len(batch))
	for k := range batch {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].date != keys[j].date {
			return keys[i].date < keys[j].date
		}
		return keys[i].user < keys[j].user
	})

	for _, k := range keys {
		rec := *batch[k]
		out.Daily.Put(rec)
		out.Costs.Add(rec.UserID, rec.Cost)
		out.Added++
	}
	return out, nil
}

// Summary is a user's cost and usage over a range of days.
type Summary struct {
	UserID string
	Cost   decimal.Decimal
	Usage  decimal.Decimal
}

// Summarize sums cost and usage per user for the rows of daily inside rng.
func Summarize(daily *DailyTable, rng Range) map[string]Summary {
	sums := make(map[string]Summary)
	for _, r := range daily.Between(rng) {
		s, ok := sums[r.UserID]
		if !ok {
			s = Summary{UserID: r.UserID, Cost: decimal.Zero, Usage: decimal.Zero}
		}
		s.Cost = s.Cost.Add(r.Cost)
		s.Usage = s.Usage.Add(r.Usage)
		sums[r.UserID] = s
	}
	return sums
}
