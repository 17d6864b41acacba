package report

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operator-framework/usage-reporter/pkg/usage"
)

func date(t *testing.T, s string) time.Time {
	d, err := usage.ParseDate(s)
	require.NoError(t, err)
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// testReport is the report after the weekly run where alice spent 2.50 and
// carol 1.00 on top of prior totals of alice 10.00 and bob 5.00.
func testReport(t *testing.T) *Report {
	costs := usage.NewCostTable()
	costs.Set("alice", dec("12.50"))
	costs.Set("bob", dec("5.00"))
	costs.Set("carol", dec("1.00"))

	daily := usage.NewDailyTable()
	daily.Put(usage.DailyRecord{Date: date(t, "2023-12-20"), UserID: "alice", Usage: dec("40"), Cost: dec("10")})
	daily.Put(usage.DailyRecord{Date: date(t, "2023-12-20"), UserID: "bob", Usage: dec("20"), Cost: dec("5")})
	daily.Put(usage.DailyRecord{Date: date(t, "2024-01-07"), UserID: "alice", Usage: dec("10.5"), Cost: dec("2.50")})
	daily.Put(usage.DailyRecord{Date: date(t, "2024-01-07"), UserID: "carol", Usage: dec("0"), Cost: dec("1.00")})

	instances := []usage.Instance{
		{ID: "i-1", UserID: "alice"},
		{ID: "i-2", UserID: "alice"},
		{ID: "i-3", UserID: usage.UnattributedUser},
	}

	run := date(t, "2024-01-08")
	return Build(costs, daily, usage.ReportPeriod(run), instances, date(t, "2023-12-01"), run)
}

func TestBuild(t *testing.T) {
	r := testReport(t)

	var users []string
	for _, row := range r.Rows {
		users = append(users, row.UserID)
	}
	assert.Equal(t, []string{"alice", "bob", "carol", usage.UnattributedUser}, users)

	alice, ok := r.Row("alice")
	require.True(t, ok)
	assert.Equal(t, "12.50", alice.TotalCost.StringFixed(2))
	assert.Equal(t, "2.50", alice.WeekCost.StringFixed(2))
	assert.Equal(t, "10.50", alice.WeekUsage.StringFixed(2))
	assert.Equal(t, 2, alice.Instances)

	bob, ok := r.Row("bob")
	require.True(t, ok)
	assert.True(t, bob.WeekCost.IsZero())
	assert.True(t, bob.WeekUsage.IsZero())

	carol, ok := r.Row("carol")
	require.True(t, ok)
	assert.Equal(t, "1.00", carol.WeekCost.StringFixed(2))
	assert.True(t, carol.WeekUsage.IsZero())

	unattributed, ok := r.Row(usage.UnattributedUser)
	require.True(t, ok)
	assert.True(t, unattributed.TotalCost.IsZero())
	assert.Equal(t, 1, unattributed.Instances)

	assert.Equal(t, TotalRowID, r.Totals.UserID)
	assert.Equal(t, "18.50", r.Totals.TotalCost.StringFixed(2))
	assert.Equal(t, "3.50", r.Totals.WeekCost.StringFixed(2))
	assert.Equal(t, 3, r.Totals.Instances)
}

func TestBuildTiesSortByUser(t *testing.T) {
	costs := usage.NewCostTable()
	costs.Set("zed", dec("1"))
	costs.Set("amy", dec("1"))
	costs.Set("max", dec("2"))

	r := Build(costs, usage.NewDailyTable(), usage.ReportPeriod(date(t, "2024-01-08")), nil, date(t, "2024-01-01"), date(t, "2024-01-08"))
	require.Len(t, r.Rows, 3)
	assert.Equal(t, "max", r.Rows[0].UserID)
	assert.Equal(t, "amy", r.Rows[1].UserID)
	assert.Equal(t, "zed", r.Rows[2].UserID)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, testReport(t)))
	expected := "user_id,total_cost,week_cost,week_usage_hours,running_instances\n" +
		"alice,12.50,2.50,10.50,2\n" +
		"bob,5.00,0.00,0.00,0\n" +
		"carol,1.00,1.00,0.00,0\n" +
		"unattributed,0.00,0.00,0.00,1\n" +
		"TOTAL,18.50,3.50,10.50,3\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteTabular(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "tabular", testReport(t)))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "user_id"))
	assert.True(t, strings.HasPrefix(lines[5], "TOTAL"))
	assert.Equal(t, strings.Index(lines[0], "total_cost"), strings.Index(lines[1], "12.50"))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, testReport(t)))

	var out struct {
		RunDate string `json:"runDate"`
		Rows    []struct {
			UserID    string `json:"userID"`
			TotalCost string `json:"totalCost"`
		} `json:"rows"`
		Totals struct {
			TotalCost string `json:"totalCost"`
		} `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "2024-01-08", out.RunDate)
	require.Len(t, out.Rows, 4)
	assert.Equal(t, "alice", out.Rows[0].UserID)
	assert.Equal(t, "12.50", out.Rows[0].TotalCost)
	assert.Equal(t, "18.50", out.Totals.TotalCost)
}

func TestWriteUnknownFormat(t *testing.T) {
	assert.False(t, ValidFormat("xml"))
	assert.True(t, ValidFormat("TAB"))
	assert.EqualError(t, Write(ioutil.Discard, "xml", testReport(t)), "format must be one of: csv, json or tab")
}

func TestRenderDefaultEmail(t *testing.T) {
	tmpl, err := NewEmailTemplate("")
	require.NoError(t, err)

	body, err := tmpl.Render(EmailContext{
		Report:      testReport(t),
		SenderName:  "Research Computing",
		HelpAddress: "help@example.com",
		DailyFile:   "daily.csv",
		CostFile:    "costs.csv",
		SummaryFile: "weekly-summary.csv",
	})
	require.NoError(t, err)

	assert.Contains(t, body, "The daily.csv spreadsheet")
	assert.Contains(t, body, "The costs.csv spreadsheet shows the total cost incurred by every user from Dec 1, 2023 to date.")
	assert.Contains(t, body, "The weekly-summary.csv spreadsheet")
	assert.Contains(t, body, "Summary for Jan 1, 2024 to Jan 7, 2024:")
	assert.Contains(t, body, "Please contact help@example.com")
	assert.True(t, strings.HasSuffix(body, "Research Computing\n"))

	var totalLine string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, TotalRowID) {
			totalLine = line
		}
	}
	assert.Equal(t, "TOTAL                      $18.50        $3.50        10.50         3", totalLine)
	assert.Contains(t, body, "unattributed")
}

func TestRenderEmailWithoutSummary(t *testing.T) {
	tmpl, err := NewEmailTemplate("")
	require.NoError(t, err)

	body, err := tmpl.Render(EmailContext{Report: testReport(t), DailyFile: "d.csv", CostFile: "c.csv"})
	require.NoError(t, err)
	assert.NotContains(t, body, "contains the summary below")
}

func TestLoadEmailTemplate(t *testing.T) {
	f, err := ioutil.TempFile("", "email-template")
	require.NoError(t, err)
	defer os.Remove(f.Name())
	_, err = f.WriteString(`{{ .SenderName | upper }} owes {{ money .Report.Totals.TotalCost }}`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	tmpl, err := LoadEmailTemplate(f.Name())
	require.NoError(t, err)
	body, err := tmpl.Render(EmailContext{Report: testReport(t), SenderName: "ops"})
	require.NoError(t, err)
	assert.Equal(t, "OPS owes $18.50", body)

	_, err = LoadEmailTemplate("/does/not/exist")
	assert.Error(t, err)

	_, err = NewEmailTemplate("{{ .Nope ")
	assert.Error(t, err)

	_, err = tmpl.Render(EmailContext{})
	assert.EqualError(t, err, "cannot render email without a report")
}
