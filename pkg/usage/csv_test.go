package usage

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCosts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCosts(&buf, costTable(map[string]string{"bob": "5", "alice": "12.5"})))
	assert.Equal(t, "user_id,total_cost\nalice,12.50\nbob,5.00\n", buf.String())
}

func TestReadCosts(t *testing.T) {
	tests := map[string]struct {
		input       string
		expected    map[string]string
		expectedErr string
	}{
		"with header": {
			input:    "user_id,total_cost\nalice,12.50\nbob,5\n",
			expected: map[string]string{"alice": "12.50", "bob": "5.00"},
		},
		"without header": {
			input:    "alice,1.25\n",
			expected: map[string]string{"alice": "1.25"},
		},
		"empty": {
			input:    "",
			expected: map[string]string{},
		},
		"duplicate user": {
			input:       "alice,1\nalice,2\n",
			expectedErr: `cost table row 2: duplicate user_id "alice"`,
		},
		"missing user": {
			input:       "user_id,total_cost\n,2\n",
			expectedErr: "cost table row 1: empty user_id",
		},
		"wrong column count": {
			input:       "alice,1,2\n",
			expectedErr: "cost table row 1: expected 2 columns, got 3",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			table, err := ReadCosts(strings.NewReader(test.input))
			if test.expectedErr != "" {
				assert.EqualError(t, err, test.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(test.expected), table.Len())
			for user, total := range test.expected {
				assert.Equal(t, total, fixed(table.Total(user)), user)
			}
		})
	}
}

func TestDailyRoundTrip(t *testing.T) {
	table := NewDailyTable()
	table.Put(DailyRecord{Date: date(t, "2024-01-02"), UserID: "alice", Usage: dec("1.5"), Cost: dec("0.75")})
	table.Put(DailyRecord{Date: date(t, "2024-01-01"), UserID: "untagged", Usage: dec("0"), Cost: dec("3")})

	var buf bytes.Buffer
	require.NoError(t, WriteDaily(&buf, table))
	expected := "date,user_id,usage_metric,cost\n" +
		"2024-01-01,untagged,0.00,3.00\n" +
		"2024-01-02,alice,1.50,0.75\n"
	assert.Equal(t, expected, buf.String())

	read, err := ReadDaily(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, read.Len())
	row, ok := read.Get(date(t, "2024-01-02"), "alice")
	require.True(t, ok)
	assert.Equal(t, "0.75", fixed(row.Cost))
}

func TestReadDaily(t *testing.T) {
	tests := map[string]struct {
		input       string
		rows        int
		expectedErr string
	}{
		"three column rows load with zero cost": {
			input: "date,user_id,usage_metric\n2024-01-01,alice,2\n",
			rows:  1,
		},
		"mixed widths": {
			input: "2024-01-01,alice,2\n2024-01-02,alice,2,1.10\n",
			rows:  2,
		},
		"bad date": {
			input:       "01/02/2024,alice,2\n",
			expectedErr: "daily table row 1: invalid date",
		},
		"bad usage": {
			input:       "2024-01-01,alice,two\n",
			expectedErr: "daily table row 1: invalid usage_metric",
		},
		"duplicate row": {
			input:       "2024-01-01,alice,2\n2024-01-01,alice,3\n",
			expectedErr: "daily table row 2: duplicate row for 2024-01-01/alice",
		},
		"too few columns": {
			input:       "2024-01-01,alice\n",
			expectedErr: "daily table row 1: expected 4 columns, got 2",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			table, err := ReadDaily(strings.NewReader(test.input))
			if test.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), test.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.rows, table.Len())
			for _, row := range table.Rows() {
				assert.False(t, row.Cost.IsNegative())
			}
		})
	}
}
