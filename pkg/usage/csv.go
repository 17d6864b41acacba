package usage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// CostColumns is the header of the cumulative cost table.
	CostColumns = []string{"user_id", "total_cost"}
	// DailyColumns is the header of the daily usage table.
	DailyColumns = []string{"date", "user_id", "usage_metric", "cost"}
)

// WriteCosts writes the cumulative cost table as CSV, one row per user.
func WriteCosts(w io.Writer, t *CostTable) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(CostColumns); err != nil {
		return err
	}
	for _, user := range t.Users() {
		if err := csvWriter.Write([]string{user, t.Total(user).StringFixed(MoneyScale)}); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// ReadCosts parses a cumulative cost table. The header row is optional.
func ReadCosts(r io.Reader) (*CostTable, error) {
	records, err := readAll(r, CostColumns)
	if err != nil {
		return nil, err
	}

	t := NewCostTable()
	for i, rec := range records {
		if len(rec) != len(CostColumns) {
			return nil, fmt.Errorf("cost table row %d: expected %d columns, got %d", i+1, len(CostColumns), len(rec))
		}
		user := strings.TrimSpace(rec[0])
		if user == "" {
			return nil, fmt.Errorf("cost table row %d: empty user_id", i+1)
		}
		if t.Has(user) {
			return nil, fmt.Errorf("cost table row %d: duplicate user_id %q", i+1, user)
		}
		total, err := decimal.NewFromString(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, fmt.Errorf("cost table row %d: invalid total_cost %q: %w", i+1, rec[1], err)
		}
		t.Set(user, total)
	}
	return t, nil
}

// WriteDaily writes the daily usage table as CSV ordered by date and user.
func WriteDaily(w io.Writer, t *DailyTable) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(DailyColumns); err != nil {
		return err
	}
	for _, r := range t.Rows() {
		row := []string{
			r.Date.Format(DateLayout),
			r.UserID,
			r.Usage.StringFixed(UsageScale),
			r.Cost.StringFixed(MoneyScale),
		}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// ReadDaily parses a daily usage table. The header row is optional and rows
// without the trailing cost column load with a cost of zero.
func ReadDaily(r io.Reader) (*DailyTable, error) {
	records, err := readAll(r, DailyColumns)
	if err != nil {
		return nil, err
	}

	t := NewDailyTable()
	for i, rec := range records {
		if len(rec) != len(DailyColumns) && len(rec) != len(DailyColumns)-1 {
			return nil, fmt.Errorf("daily table row %d: expected %d columns, got %d", i+1, len(DailyColumns), len(rec))
		}
		date, err := ParseDate(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("daily table row %d: invalid date %q: %w", i+1, rec[0], err)
		}
		user := strings.TrimSpace(rec[1])
		if user == "" {
			return nil, fmt.Errorf("daily table row %d: empty user_id", i+1)
		}
		usage, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
		if err != nil {
			return nil, fmt.Errorf("daily table row %d: invalid usage_metric %q: %w", i+1, rec[2], err)
		}
		cost := decimal.Zero
		if len(rec) == len(DailyColumns) {
			cost, err = decimal.NewFromString(strings.TrimSpace(rec[3]))
			if err != nil {
				return nil, fmt.Errorf("daily table row %d: invalid cost %q: %w", i+1, rec[3], err)
			}
		}
		if _, dup := t.Put(DailyRecord{Date: date, UserID: user, Usage: usage, Cost: cost}); dup {
			return nil, fmt.Errorf("daily table row %d: duplicate row for %s/%s", i+1, rec[0], user)
		}
	}
	return t, nil
}

func readAll(r io.Reader, header []string) ([][]string, error) {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("malformed csv: %w", err)
	}
	if len(records) > 0 && isHeader(records[0], header) {
		records = records[1:]
	}
	return records, nil
}

func isHeader(rec, header []string) bool {
	if len(rec) == 0 || len(rec) > len(header) {
		return false
	}
	for i := range rec {
		if !strings.EqualFold(strings.TrimSpace(rec[i]), header[i]) {
			return false
		}
	}
	return true
}
