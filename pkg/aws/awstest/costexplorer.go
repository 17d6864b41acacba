package awstest

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/costexplorer"
	"github.com/aws/aws-sdk-go/service/costexplorer/costexploreriface"
)

// MockCostExplorer answers GetCostAndUsage with Handler.
type MockCostExplorer struct {
	costexploreriface.CostExplorerAPI

	Handler func(*costexplorer.GetCostAndUsageInput) (*costexplorer.GetCostAndUsageOutput, error)
	// Inputs records every request made.
	Inputs []*costexplorer.GetCostAndUsageInput
}

func (m *MockCostExplorer) GetCostAndUsageWithContext(_ aws.Context, in *costexplorer.GetCostAndUsageInput, _ ...request.Option) (*costexplorer.GetCostAndUsageOutput, error) {
	m.Inputs = append(m.Inputs, in)
	if m.Handler == nil {
		return &costexplorer.GetCostAndUsageOutput{}, nil
	}
	return m.Handler(in)
}

// DayResult builds a daily result whose groups map tag keys (e.g. "owner$alice")
// to amounts of metric.
func DayResult(start, end, metric string, groups map[string]string) *costexplorer.ResultByTime {
	res := &costexplorer.ResultByTime{
		TimePeriod: &costexplorer.DateInterval{Start: aws.String(start), End: aws.String(end)},
		Estimated:  aws.Bool(false),
	}
	for key, amount := range groups {
		res.Groups = append(res.Groups, &costexplorer.Group{
			Keys: []*string{aws.String(key)},
			Metrics: map[string]*costexplorer.MetricValue{
				metric: {Amount: aws.String(amount), Unit: aws.String("USD")},
			},
		})
	}
	return res
}
