package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operator-framework/usage-reporter/pkg/aws/awstest"
	"github.com/operator-framework/usage-reporter/pkg/usage"
)

var testSelector = Selector{
	ClusterTagKey:   "cluster",
	ClusterTagValue: "research",
	UserTagKey:      "owner",
}

func newTestInventory(t *testing.T, mock *awstest.MockEC2, known ...string) *InstanceInventory {
	attributor, err := usage.NewAttributor(known, "")
	require.NoError(t, err)
	return &InstanceInventory{
		ec2:        mock,
		selector:   testSelector,
		attributor: attributor,
		logger:     logrus.New(),
	}
}

func TestListInstances(t *testing.T) {
	tests := map[string]struct {
		pages       [][]*ec2.Reservation
		apiErr      error
		known       []string
		expected    []usage.Instance
		expectedErr string
	}{
		"attributes owners across pages": {
			pages: [][]*ec2.Reservation{
				{{Instances: []*ec2.Instance{
					awstest.NewInstance("i-2", "m5.large", map[string]string{"owner": "bob", "cluster": "research"}),
				}}},
				{{Instances: []*ec2.Instance{
					awstest.NewInstance("i-1", "t3.micro", map[string]string{"owner": "alice"}),
					awstest.NewInstance("i-3", "t3.micro", nil),
				}}},
			},
			expected: []usage.Instance{
				{ID: "i-1", Type: "t3.micro", UserID: "alice"},
				{ID: "i-2", Type: "m5.large", UserID: "bob"},
				{ID: "i-3", Type: "t3.micro", UserID: usage.UntaggedUser},
			},
		},
		"unknown owners are unattributed": {
			known: []string{"alice"},
			pages: [][]*ec2.Reservation{
				{{Instances: []*ec2.Instance{
					awstest.NewInstance("i-1", "t3.micro", map[string]string{"owner": "mallory"}),
				}}},
			},
			expected: []usage.Instance{
				{ID: "i-1", Type: "t3.micro", UserID: usage.UnattributedUser},
			},
		},
		"no instances": {},
		"api error": {
			apiErr:      errors.New("throttled"),
			expectedErr: "could not describe instances for cluster=research (owner tag owner): throttled",
		},
		"instance without id": {
			pages: [][]*ec2.Reservation{
				{{Instances: []*ec2.Instance{{InstanceType: aws.String("t3.micro")}}}},
			},
			expectedErr: "malformed inventory for cluster=research (owner tag owner): instance without an id",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			mock := &awstest.MockEC2{Pages: test.pages, Err: test.apiErr}
			inventory := newTestInventory(t, mock, test.known...)

			instances, err := inventory.ListInstances(context.Background())
			if test.expectedErr != "" {
				assert.EqualError(t, err, test.expectedErr)
				assert.Nil(t, instances)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, instances)

			require.Len(t, mock.Inputs, 1)
			filters := mock.Inputs[0].Filters
			require.Len(t, filters, 2)
			assert.Equal(t, "tag:cluster", aws.StringValue(filters[0].Name))
			assert.Equal(t, []string{"research"}, aws.StringValueSlice(filters[0].Values))
			assert.Equal(t, []string{ec2.InstanceStateNameRunning}, aws.StringValueSlice(filters[1].Values))
		})
	}
}
