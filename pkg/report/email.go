package report

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig"
	"github.com/shopspring/decimal"

	"github.com/operator-framework/usage-reporter/pkg/usage"
)

const (
	// Subject is the subject line of the weekly email.
	Subject = "Weekly Cluster Usage and Cost Report"

	// PrettyDateLayout is how dates are written in the email body.
	PrettyDateLayout = "Jan 2, 2006"

	// DefaultBodyTemplate is the email body used unless a template file is configured.
	DefaultBodyTemplate = `Hello,

Please find attached usage and cost reports for your cluster.

The {{ .DailyFile }} spreadsheet shows the compute time and cost for every user on any given day from {{ prettyDate .Report.StartDate }} to date.

The {{ .CostFile }} spreadsheet shows the total cost incurred by every user from {{ prettyDate .Report.StartDate }} to date.
{{- if .SummaryFile }}

The {{ .SummaryFile }} spreadsheet contains the summary below.
{{- end }}

Summary for {{ prettyDate .Report.Period.Start }} to {{ prettyDate (lastDay .Report.Period) }}:

{{ printf "%-20s %12s %12s %12s %9s" "User" "All-time" "This week" "Hours" "Running" }}
{{ repeat 69 "-" }}
{{- range .Report.Rows }}
{{ printf "%-20s %12s %12s %12s %9d" (trunc 20 .UserID) (money .TotalCost) (money .WeekCost) (hours .WeekUsage) .Instances }}
{{- end }}
{{ repeat 69 "-" }}
{{ printf "%-20s %12s %12s %12s %9d" .Report.Totals.UserID (money .Report.Totals.TotalCost) (money .Report.Totals.WeekCost) (hours .Report.Totals.WeekUsage) .Report.Totals.Instances }}

Please contact {{ .HelpAddress }} with any questions you may have.

Best,

{{ .SenderName }}
`
)

// EmailContext is the data the email body template is executed with.
type EmailContext struct {
	Report      *Report
	SenderName  string
	HelpAddress string
	// DailyFile, CostFile and SummaryFile are the names of the attachments.
	DailyFile   string
	CostFile    string
	SummaryFile string
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(usage.MoneyScale)
}

func hours(d decimal.Decimal) string {
	return d.StringFixed(usage.UsageScale)
}

func prettyDate(t time.Time) string {
	return t.Format(PrettyDateLayout)
}

func lastDay(r usage.Range) time.Time {
	return r.Last()
}

// EmailTemplate renders the email body.
type EmailTemplate struct {
	tmpl *template.Template
}

// NewEmailTemplate parses body, which may use the sprig functions plus money,
// hours, prettyDate and lastDay. An empty body selects DefaultBodyTemplate.
func NewEmailTemplate(body string) (*EmailTemplate, error) {
	if strings.TrimSpace(body) == "" {
		body = DefaultBodyTemplate
	}
	var templateFuncMap = template.FuncMap{
		"money":      money,
		"hours":      hours,
		"prettyDate": prettyDate,
		"lastDay":    lastDay,
	}

	tmpl, err := template.New("email-body").Funcs(sprig.TxtFuncMap()).Funcs(templateFuncMap).Option("missingkey=error").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("error parsing email template: %w", err)
	}
	return &EmailTemplate{tmpl: tmpl}, nil
}

// LoadEmailTemplate reads a template from path, or returns the default
// template when path is empty.
func LoadEmailTemplate(path string) (*EmailTemplate, error) {
	if path == "" {
		return NewEmailTemplate("")
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read email template %s: %w", path, err)
	}
	return NewEmailTemplate(string(data))
}

// Render executes the template.
func (t *EmailTemplate) Render(ctx EmailContext) (string, error) {
	if ctx.Report == nil {
		return "", fmt.Errorf("cannot render email without a report")
	}
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("error executing email template: %w", err)
	}
	return buf.String(), nil
}
