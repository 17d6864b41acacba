package aws

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
	log "github.com/sirupsen/logrus"

	"github.com/operator-framework/usage-reporter/pkg/usage"
)

// InstanceInventory lists the running instances of a cluster.
type InstanceInventory struct {
	ec2        ec2iface.EC2API
	selector   Selector
	attributor *usage.Attributor
	logger     log.FieldLogger
}

func NewInstanceInventory(logger log.FieldLogger, p client.ConfigProvider, selector Selector, attributor *usage.Attributor) *InstanceInventory {
	return &InstanceInventory{
		ec2:        ec2.New(p),
		selector:   selector,
		attributor: attributor,
		logger:     logger.WithField("component", "inventory"),
	}
}

// ListInstances returns every running instance carrying the cluster tag, with
// its owner attributed from the user tag. Any API error or malformed instance
// fails the whole listing: a partial inventory would misattribute costs.
func (i *InstanceInventory) ListInstances(ctx context.Context) ([]usage.Instance, error) {
	input := &ec2.DescribeInstancesInput{
		Filters: []*ec2.Filter{
			{
				Name:   aws.String("tag:" + i.selector.ClusterTagKey),
				Values: []*string{aws.String(i.selector.ClusterTagValue)},
			},
			{
				Name:   aws.String("instance-state-name"),
				Values: []*string{aws.String(ec2.InstanceStateNameRunning)},
			},
		},
	}

	var instances []usage.Instance
	var pageErr error
	pageFn := func(out *ec2.DescribeInstancesOutput, lastPage bool) bool {
		for _, res := range out.Reservations {
			if res == nil {
				continue
			}
			for _, inst := range res.Instances {
				instance, err := i.convert(inst)
				if err != nil {
					pageErr = err
					return false
				}
				instances = append(instances, instance)
			}
		}
		return true
	}

	if err := i.ec2.DescribeInstancesPagesWithContext(ctx, input, pageFn); err != nil {
		return nil, fmt.Errorf("could not describe instances for %s: %w", i.selector, err)
	}
	if pageErr != nil {
		return nil, pageErr
	}

	sort.Slice(instances, func(a, b int) bool {
		return instances[a].ID < instances[b].ID
	})
	i.logger.Debugf("found %d running instances for %s", len(instances), i.selector)
	return instances, nil
}

func (i *InstanceInventory) convert(inst *ec2.Instance) (usage.Instance, error) {
	if inst == nil || aws.StringValue(inst.InstanceId) == "" {
		return usage.Instance{}, fmt.Errorf("malformed inventory for %s: instance without an id", i.selector)
	}

	var owner string
	for _, tag := range inst.Tags {
		if tag != nil && aws.StringValue(tag.Key) == i.selector.UserTagKey {
			owner = aws.StringValue(tag.Value)
			break
		}
	}

	userID := i.attributor.Attribute(owner)
	if userID == usage.UnattributedUser {
		i.logger.WithField("instance", aws.StringValue(inst.InstanceId)).Warnf("owner tag %q is not a known user", owner)
	}

	return usage.Instance{
		ID:         aws.StringValue(inst.InstanceId),
		Type:       aws.StringValue(inst.InstanceType),
		UserID:     userID,
		LaunchTime: aws.TimeValue(inst.LaunchTime),
	}, nil
}
