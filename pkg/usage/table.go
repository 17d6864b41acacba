package usage

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CostTable is the cumulative cost per user since the start date.
type CostTable struct {
	totals map[string]decimal.Decimal
}

func NewCostTable() *CostTable {
	return &CostTable{totals: make(map[string]decimal.Decimal)}
}

// Add increases the total for user by amount.
func (t *CostTable) Add(user string, amount decimal.Decimal) {
	t.totals[user] = t.Total(user).Add(amount)
}

// Set replaces the total for user.
func (t *CostTable) Set(user string, total decimal.Decimal) {
	t.totals[user] = total
}

// Total returns the cumulative cost for user, zero if the user is unknown.
func (t *CostTable) Total(user string) decimal.Decimal {
	if total, ok := t.totals[user]; ok {
		return total
	}
	return decimal.Zero
}

func (t *CostTable) Has(user string) bool {
	_, ok := t.totals[user]
	return ok
}

// Users returns the users in the table in lexical order.
func (t *CostTable) Users() []string {
	users := make([]string, 0, len(t.totals))
	for user := range t.totals {
		users = append(users, user)
	}
	sort.Strings(users)
	return users
}

// Sum is the cost of all users combined.
func (t *CostTable) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, total := range t.totals {
		sum = sum.Add(total)
	}
	return sum
}

func (t *CostTable) Len() int {
	return len(t.totals)
}

func (t *CostTable) Clone() *CostTable {
	clone := NewCostTable()
	for user, total := range t.totals {
		clone.totals[user] = total
	}
	return clone
}

// DailyTable is the append-only history of per-day, per-user usage and cost.
// Rows are unique by (date, user).
type DailyTable struct {
	rows  []DailyRecord
	index map[recordKey]int
}

func NewDailyTable() *DailyTable {
	return &DailyTable{index: make(map[recordKey]int)}
}

// Put inserts r, replacing any row with the same date and user. The replaced row
// is returned when there was one.
func (t *DailyTable) Put(r DailyRecord) (DailyRecord, bool) {
	r.Date = Day(r.Date)
	k := keyOf(r.Date, r.UserID)
	if i, ok := t.index[k]; ok {
		prev := t.rows[i]
		t.rows[i] = r
		return prev, true
	}
	t.index[k] = len(t.rows)
	t.rows = append(t.rows, r)
	return DailyRecord{}, false
}

func (t *DailyTable) Get(date time.Time, user string) (DailyRecord, bool) {
	i, ok := t.index[keyOf(date, user)]
	if !ok {
		return DailyRecord{}, false
	}
	return t.rows[i], true
}

// Rows returns a copy of every row ordered by date and then user.
func (t *DailyTable) Rows() []DailyRecord {
	rows := make([]DailyRecord, len(t.rows))
	copy(rows, t.rows)
	sortDaily(rows)
	return rows
}

// Between returns the rows whose date is inside rng, ordered by date and user.
func (t *DailyTable) Between(rng Range) []DailyRecord {
	var rows []DailyRecord
	for _, r := range t.rows {
		if rng.Within(r.Date) {
			rows = append(rows, r)
		}
	}
	sortDaily(rows)
	return rows
}

// FirstDate is the earliest date in the table, zero when empty.
func (t *DailyTable) FirstDate() time.Time {
	var first time.Time
	for _, r := range t.rows {
		if first.IsZero() || r.Date.Before(first) {
			first = r.Date
		}
	}
	return first
}

// LastDate is the latest date in the table, zero when empty.
func (t *DailyTable) LastDate() time.Time {
	var last time.Time
	for _, r := range t.rows {
		if r.Date.After(last) {
			last = r.Date
		}
	}
	return last
}

// Users returns every user with at least one row, in lexical order.
func (t *DailyTable) Users() []string {
	seen := make(map[string]struct{})
	var users []string
	for _, r := range t.rows {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		users = append(users, r.UserID)
	}
	sort.Strings(users)
	return users
}

// CostByUser sums the cost column per user over the whole table.
func (t *DailyTable) CostByUser() map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal)
	for _, r := range t.rows {
		sums[r.UserID] = sums[r.UserID].Add(r.Cost)
	}
	return sums
}

func (t *DailyTable) Len() int {
	return len(t.rows)
}

func (t *DailyTable) Clone() *DailyTable {
	clone := NewDailyTable()
	for _, r := range t.rows {
		clone.Put(r)
	}
	return clone
}

func sortDaily(rows []DailyRecord) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].UserID < rows[j].UserID
	})
}
