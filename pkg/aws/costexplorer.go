package aws

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/costexplorer"
	"github.com/aws/aws-sdk-go/service/costexplorer/costexploreriface"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/operator-framework/usage-reporter/pkg/usage"
)

const (
	// CostMetric and UsageMetric are the names GetCostAndUsage takes and keys
	// its results by. They differ from the SDK's Metric* enum values.
	CostMetric  = "UnblendedCost"
	UsageMetric = "UsageQuantity"

	// DefaultUsageTypeGroup restricts usage queries to instance running hours.
	DefaultUsageTypeGroup = "EC2: Running Hours"

	recordTypeDimension = "RECORD_TYPE"
	tagKeySeparator     = "$"
)

// excludedRecordTypes are line items that aren't usage and must not be
// attributed to anyone.
var excludedRecordTypes = []string{"Credit", "Refund"}

// CostExplorer retrieves daily per-user cost and usage from AWS Cost Explorer.
type CostExplorer struct {
	ce             costexploreriface.CostExplorerAPI
	selector       Selector
	attributor     *usage.Attributor
	usageTypeGroup string
	logger         log.FieldLogger
}

func NewCostExplorer(logger log.FieldLogger, p client.ConfigProvider, selector Selector, attributor *usage.Attributor, usageTypeGroup string) *CostExplorer {
	if usageTypeGroup == "" {
		usageTypeGroup = DefaultUsageTypeGroup
	}
	return &CostExplorer{
		ce:             costexplorer.New(p),
		selector:       selector,
		attributor:     attributor,
		usageTypeGroup: usageTypeGroup,
		logger:         logger.WithField("component", "costExplorer"),
	}
}

// FetchCosts returns one record per day of rng and per user seen or listed in
// users. Days a user had no cost are filled with zero.
func (c *CostExplorer) FetchCosts(ctx context.Context, rng usage.Range, users []string) ([]usage.CostRecord, error) {
	if rng.Empty() {
		return nil, nil
	}

	filter := &costexplorer.Expression{
		And: []*costexplorer.Expression{
			c.clusterFilter(),
			{
				Not: &costexplorer.Expression{
					Dimensions: &costexplorer.DimensionValues{
						Key:    aws.String(recordTypeDimension),
						Values: aws.StringSlice(excludedRecordTypes),
					},
				},
			},
		},
	}

	amounts, err := c.query(ctx, rng, CostMetric, filter)
	if err != nil {
		return nil, err
	}

	all := fillUsers(amounts, users)
	var records []usage.CostRecord
	for _, day := range rng.Days() {
		for _, user := range all {
			records = append(records, usage.CostRecord{
				Date:   day,
				UserID: user,
				Amount: usage.RoundMoney(amounts.get(day, user)),
			})
		}
	}
	return records, nil
}

// FetchUsage returns instance-hours per day and user, zero filled the same way
// as FetchCosts.
func (c *CostExplorer) FetchUsage(ctx context.Context, rng usage.Range, users []string) ([]usage.UsageRecord, error) {
	if rng.Empty() {
		return nil, nil
	}

	filter := &costexplorer.Expression{
		And: []*costexplorer.Expression{
			c.clusterFilter(),
			{
				Dimensions: &costexplorer.DimensionValues{
					Key:    aws.String(costexplorer.DimensionUsageTypeGroup),
					Values: []*string{aws.String(c.usageTypeGroup)},
				},
			},
		},
	}

	amounts, err := c.query(ctx, rng, UsageMetric, filter)
	if err != nil {
		return nil, err
	}

	all := fillUsers(amounts, users)
	var records []usage.UsageRecord
	for _, day := range rng.Days() {
		for _, user := range all {
			records = append(records, usage.UsageRecord{
				Date:   day,
				UserID: user,
				Usage:  usage.RoundUsage(amounts.get(day, user)),
			})
		}
	}
	return records, nil
}

func (c *CostExplorer) clusterFilter() *costexplorer.Expression {
	return &costexplorer.Expression{
		Tags: &costexplorer.TagValues{
			Key:    aws.String(c.selector.ClusterTagKey),
			Values: []*string{aws.String(c.selector.ClusterTagValue)},
		},
	}
}

// dailyAmounts sums a metric by day and user.
type dailyAmounts struct {
	values map[string]map[string]decimal.Decimal
	users  map[string]struct{}
}

func (d *dailyAmounts) add(day, user string, amount decimal.Decimal) {
	byUser, ok := d.values[day]
	if !ok {
		byUser = make(map[string]decimal.Decimal)
		d.values[day] = byUser
	}
	byUser[user] = byUser[user].Add(amount)
	d.users[user] = struct{}{}
}

func (d *dailyAmounts) get(day time.Time, user string) decimal.Decimal {
	return d.values[day.Format(usage.DateLayout)][user]
}

func fillUsers(amounts *dailyAmounts, users []string) []string {
	seen := make(map[string]struct{}, len(users)+len(amounts.users))
	for _, u := range users {
		seen[u] = struct{}{}
	}
	for u := range amounts.users {
		seen[u] = struct{}{}
	}
	all := make([]string, 0, len(seen))
	for u := range seen {
		all = append(all, u)
	}
	sort.Strings(all)
	return all
}

func (c *CostExplorer) query(ctx context.Context, rng usage.Range, metric string, filter *costexplorer.Expression) (*dailyAmounts, error) {
	amounts := &dailyAmounts{
		values: make(map[string]map[string]decimal.Decimal),
		users:  make(map[string]struct{}),
	}

	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &costexplorer.DateInterval{
			Start: aws.String(rng.Start.Format(usage.DateLayout)),
			End:   aws.String(rng.End.Format(usage.DateLayout)),
		},
		Granularity: aws.String(costexplorer.GranularityDaily),
		Metrics:     []*string{aws.String(metric)},
		Filter:      filter,
		GroupBy: []*costexplorer.GroupDefinition{
			{
				Type: aws.String(costexplorer.GroupDefinitionTypeTag),
				Key:  aws.String(c.selector.UserTagKey),
			},
		},
	}

	pages := 0
	for {
		out, err := c.ce.GetCostAndUsageWithContext(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("could not get %s for %s: %w", metric, rng, err)
		}
		pages++

		for _, result := range out.ResultsByTime {
			if err := c.addResult(amounts, rng, metric, result); err != nil {
				return nil, err
			}
		}

		token := aws.StringValue(out.NextPageToken)
		if token == "" {
			break
		}
		input.NextPageToken = aws.String(token)
	}

	c.logger.WithFields(log.Fields{
		"metric": metric,
		"range":  rng.String(),
		"pages":  pages,
		"users":  len(amounts.users),
	}).Debugf("fetched billing data")
	return amounts, nil
}

func (c *CostExplorer) addResult(amounts *dailyAmounts, rng usage.Range, metric string, result *costexplorer.ResultByTime) error {
	if result == nil || result.TimePeriod == nil {
		return fmt.Errorf("malformed %s result: missing time period", metric)
	}
	dayStr := aws.StringValue(result.TimePeriod.Start)
	day, err := usage.ParseDate(dayStr)
	if err != nil {
		return fmt.Errorf("malformed %s result: bad date %q: %w", metric, dayStr, err)
	}
	if !rng.Within(day) {
		return fmt.Errorf("malformed %s result: date %s outside of %s", metric, dayStr, rng)
	}

	for _, group := range result.Groups {
		if group == nil || len(group.Keys) != 1 {
			return fmt.Errorf("malformed %s result for %s: expected one group key", metric, dayStr)
		}
		user := c.attributor.Attribute(tagValue(aws.StringValue(group.Keys[0])))

		value, ok := group.Metrics[metric]
		if !ok || value == nil {
			return fmt.Errorf("malformed %s result for %s: group %s has no %s metric", metric, dayStr, user, metric)
		}
		amount, err := decimal.NewFromString(aws.StringValue(value.Amount))
		if err != nil {
			return fmt.Errorf("malformed %s result for %s: bad amount %q for %s: %w", metric, dayStr, aws.StringValue(value.Amount), user, err)
		}
		if amount.IsNegative() {
			return fmt.Errorf("malformed %s result for %s: negative amount %s for %s", metric, dayStr, amount, user)
		}
		amounts.add(dayStr, user, amount)
	}
	return nil
}

// tagValue extracts the value from a Cost Explorer tag group key, which has the
// form "key$value". Resources without the tag come back as "key$".
func tagValue(groupKey string) string {
	idx := strings.Index(groupKey, tagKeySeparator)
	if idx < 0 {
		return groupKey
	}
	return groupKey[idx+len(tagKeySeparator):]
}
