package awstest

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
)

// MockSES records raw emails instead of sending them.
type MockSES struct {
	sesiface.SESAPI

	Err    error
	Sent   []*ses.SendRawEmailInput
	NextID string
}

func (m *MockSES) SendRawEmailWithContext(_ aws.Context, in *ses.SendRawEmailInput, _ ...request.Option) (*ses.SendRawEmailOutput, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.Sent = append(m.Sent, in)
	id := m.NextID
	if id == "" {
		id = "test-message-id"
	}
	return &ses.SendRawEmailOutput{MessageId: aws.String(id)}, nil
}
