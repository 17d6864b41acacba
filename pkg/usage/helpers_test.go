package usage

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func costTable(totals map[string]string) *CostTable {
	t := NewCostTable()
	for user, total := range totals {
		t.Set(user, dec(total))
	}
	return t
}

func fixed(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}
