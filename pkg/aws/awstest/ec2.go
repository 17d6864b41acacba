package awstest

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
)

// MockEC2 serves DescribeInstances from a fixed list of pages.
type MockEC2 struct {
	ec2iface.EC2API

	Pages [][]*ec2.Reservation
	Err   error
	// Inputs records every request made.
	Inputs []*ec2.DescribeInstancesInput
}

func (m *MockEC2) DescribeInstancesPagesWithContext(_ aws.Context, in *ec2.DescribeInstancesInput, fn func(*ec2.DescribeInstancesOutput, bool) bool, _ ...request.Option) error {
	m.Inputs = append(m.Inputs, in)
	if m.Err != nil {
		return m.Err
	}
	for i, page := range m.Pages {
		if !fn(&ec2.DescribeInstancesOutput{Reservations: page}, i == len(m.Pages)-1) {
			break
		}
	}
	return nil
}

// NewInstance builds a running instance with the given tags.
func NewInstance(id, instanceType string, tags map[string]string) *ec2.Instance {
	inst := &ec2.Instance{
		InstanceId:   aws.String(id),
		InstanceType: aws.String(instanceType),
		State:        &ec2.InstanceState{Name: aws.String(ec2.InstanceStateNameRunning)},
	}
	for k, v := range tags {
		inst.Tags = append(inst.Tags, &ec2.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	return inst
}
