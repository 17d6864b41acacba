package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCostTable(t *testing.T) {
	table := costTable(map[string]string{"bob": "5", "alice": "10"})
	table.Add("alice", dec("2.5"))
	table.Add("carol", dec("1"))

	assert.Equal(t, []string{"alice", "bob", "carol"}, table.Users())
	assert.Equal(t, "12.50", fixed(table.Total("alice")))
	assert.Equal(t, "0.00", fixed(table.Total("dave")))
	assert.False(t, table.Has("dave"))
	assert.Equal(t, "18.50", fixed(table.Sum()))

	clone := table.Clone()
	clone.Add("alice", dec("1"))
	assert.Equal(t, "12.50", fixed(table.Total("alice")))
	assert.Equal(t, "13.50", fixed(clone.Total("alice")))
}

func TestDailyTable(t *testing.T) {
	table := NewDailyTable()
	assert.True(t, table.LastDate().IsZero())
	assert.True(t, table.FirstDate().IsZero())

	table.Put(DailyRecord{Date: date(t, "2024-01-02"), UserID: "bob", Usage: dec("1"), Cost: dec("1")})
	table.Put(DailyRecord{Date: date(t, "2024-01-01"), UserID: "bob", Usage: dec("2"), Cost: dec("2")})
	table.Put(DailyRecord{Date: date(t, "2024-01-01"), UserID: "alice", Usage: dec("3"), Cost: dec("4")})

	prev, replaced := table.Put(DailyRecord{Date: date(t, "2024-01-02"), UserID: "bob", Usage: dec("6"), Cost: dec("7")})
	require.True(t, replaced)
	assert.Equal(t, "1.00", fixed(prev.Usage))
	assert.Equal(t, 3, table.Len())

	rows := table.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "alice", rows[0].UserID)
	assert.Equal(t, "bob", rows[1].UserID)
	assert.Equal(t, date(t, "2024-01-02"), rows[2].Date)

	assert.Equal(t, date(t, "2024-01-01"), table.FirstDate())
	assert.Equal(t, date(t, "2024-01-02"), table.LastDate())
	assert.Equal(t, []string{"alice", "bob"}, table.Users())

	between := table.Between(NewRange(date(t, "2024-01-02"), date(t, "2024-01-03")))
	require.Len(t, between, 1)
	assert.Equal(t, "6.00", fixed(between[0].Usage))

	sums := table.CostByUser()
	assert.Equal(t, "9.00", fixed(sums["bob"]))
	assert.Equal(t, "4.00", fixed(sums["alice"]))

	got, ok := table.Get(date(t, "2024-01-01"), "alice")
	require.True(t, ok)
	assert.Equal(t, "4.00", fixed(got.Cost))
	_, ok = table.Get(date(t, "2024-01-03"), "alice")
	assert.False(t, ok)
}
