package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/operator-framework/usage-reporter/pkg/usage"
)

// Output formats accepted by Write.
const (
	FormatTabular = "tab"
	FormatCSV     = "csv"
	FormatJSON    = "json"
)

// Columns is the header of the tabular and CSV renderings.
var Columns = []string{"user_id", "total_cost", "week_cost", "week_usage_hours", "running_instances"}

// ContentType returns the media type of a rendering in format.
func ContentType(format string) string {
	switch format {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	default:
		return "text/tab-separated-values"
	}
}

// ValidFormat reports whether format is understood by Write. "tabular" is
// accepted as an alias of "tab".
func ValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case FormatTabular, "tabular", FormatCSV, FormatJSON:
		return true
	}
	return false
}

// Write renders r to w in format.
func Write(w io.Writer, format string, r *Report) error {
	switch strings.ToLower(format) {
	case FormatTabular, "tabular":
		return WriteTabular(w, r, 2)
	case FormatCSV:
		return WriteCSV(w, r, ',')
	case FormatJSON:
		return WriteJSON(w, r)
	}
	return fmt.Errorf("format must be one of: %s, %s or %s", FormatCSV, FormatJSON, FormatTabular)
}

func (row Row) values() []string {
	return []string{
		row.UserID,
		row.TotalCost.StringFixed(usage.MoneyScale),
		row.WeekCost.StringFixed(usage.MoneyScale),
		row.WeekUsage.StringFixed(usage.UsageScale),
		strconv.Itoa(row.Instances),
	}
}

// WriteCSV writes the header, one line per user and the totals line.
func WriteCSV(w io.Writer, r *Report, delimiter rune) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter

	if err := csvWriter.Write(Columns); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := csvWriter.Write(row.values()); err != nil {
			return err
		}
	}
	if err := csvWriter.Write(r.Totals.values()); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteTabular writes the report as aligned columns.
func WriteTabular(w io.Writer, r *Report, padding int) error {
	tabWriter := tabwriter.NewWriter(w, 0, 8, padding, ' ', 0)
	if err := WriteCSV(tabWriter, r, '\t'); err != nil {
		return err
	}
	return tabWriter.Flush()
}

type jsonRow struct {
	UserID           string `json:"userID"`
	TotalCost        string `json:"totalCost"`
	WeekCost         string `json:"weekCost"`
	WeekUsageHours   string `json:"weekUsageHours"`
	RunningInstances int    `json:"runningInstances"`
}

type jsonReport struct {
	RunDate     string    `json:"runDate"`
	StartDate   string    `json:"startDate"`
	PeriodStart string    `json:"periodStart"`
	PeriodEnd   string    `json:"periodEnd"`
	Rows        []jsonRow `json:"rows"`
	Totals      jsonRow   `json:"totals"`
}

func toJSONRow(row Row) jsonRow {
	return jsonRow{
		UserID:           row.UserID,
		TotalCost:        row.TotalCost.StringFixed(usage.MoneyScale),
		WeekCost:         row.WeekCost.StringFixed(usage.MoneyScale),
		WeekUsageHours:   row.WeekUsage.StringFixed(usage.UsageScale),
		RunningInstances: row.Instances,
	}
}

// WriteJSON writes the report as an indented JSON document. Amounts are
// encoded as fixed point strings.
func WriteJSON(w io.Writer, r *Report) error {
	out := jsonReport{
		RunDate:     r.RunDate.Format(usage.DateLayout),
		StartDate:   r.StartDate.Format(usage.DateLayout),
		PeriodStart: r.Period.Start.Format(usage.DateLayout),
		PeriodEnd:   r.Period.End.Format(usage.DateLayout),
		Rows:        make([]jsonRow, 0, len(r.Rows)),
		Totals:      toJSONRow(r.Totals),
	}
	for _, row := range r.Rows {
		out.Rows = append(out.Rows, toJSONRow(row))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
