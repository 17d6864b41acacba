package aws

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
)

const (
	// DefaultRegion is used when no region is configured. Cost Explorer is only
	// served from us-east-1.
	DefaultRegion = "us-east-1"
)

// Selector identifies the instances of a cluster and the tag naming their owner.
type Selector struct {
	ClusterTagKey   string
	ClusterTagValue string
	UserTagKey      string
}

func (s Selector) String() string {
	return fmt.Sprintf("%s=%s (owner tag %s)", s.ClusterTagKey, s.ClusterTagValue, s.UserTagKey)
}

// NewSession creates an AWS session for region using the default credential chain.
func NewSession(region string) (*session.Session, error) {
	if region == "" {
		region = DefaultRegion
	}
	sess, err := session.NewSession(aws.NewConfig().WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("could not create AWS session for region %s: %w", region, err)
	}
	return sess, nil
}
