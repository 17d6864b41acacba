package notify

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	log "github.com/sirupsen/logrus"
)

// Notifier delivers a message and returns an identifier for it.
type Notifier interface {
	Send(ctx context.Context, msg *Message) (string, error)
}

// SESNotifier sends raw email through Amazon SES.
type SESNotifier struct {
	ses    sesiface.SESAPI
	logger log.FieldLogger
}

var _ Notifier = &SESNotifier{}

func NewSESNotifier(logger log.FieldLogger, p client.ConfigProvider) *SESNotifier {
	return &SESNotifier{
		ses:    ses.New(p),
		logger: logger.WithField("component", "sesNotifier"),
	}
}

func (n *SESNotifier) Send(ctx context.Context, msg *Message) (string, error) {
	raw, err := msg.Raw()
	if err != nil {
		return "", fmt.Errorf("could not encode email: %w", err)
	}

	out, err := n.ses.SendRawEmailWithContext(ctx, &ses.SendRawEmailInput{
		Source:       aws.String(msg.From.Address),
		Destinations: aws.StringSlice(msg.Recipients()),
		RawMessage:   &ses.RawMessage{Data: raw},
	})
	if err != nil {
		return "", fmt.Errorf("could not send email to %v: %w", msg.Recipients(), err)
	}

	id := aws.StringValue(out.MessageId)
	n.logger.WithFields(log.Fields{
		"messageID":   id,
		"recipients":  len(msg.To),
		"attachments": len(msg.Attachments),
	}).Infof("sent email %q", msg.Subject)
	return id, nil
}

// DirNotifier writes each message as an .eml file into a directory instead of
// sending it. It backs dry runs.
type DirNotifier struct {
	dir    string
	logger log.FieldLogger
}

var _ Notifier = &DirNotifier{}

func NewDirNotifier(logger log.FieldLogger, dir string) (*DirNotifier, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create dry run directory %s: %w", dir, err)
	}
	return &DirNotifier{
		dir:    dir,
		logger: logger.WithField("component", "dirNotifier"),
	}, nil
}

// Send returns the path of the written file as the message id.
func (n *DirNotifier) Send(_ context.Context, msg *Message) (string, error) {
	raw, err := msg.Raw()
	if err != nil {
		return "", fmt.Errorf("could not encode email: %w", err)
	}

	date := msg.Date.UTC().Format("20060102T150405Z")
	path := filepath.Join(n.dir, fmt.Sprintf("report-%s.eml", date))
	if err := ioutil.WriteFile(path, raw, 0644); err != nil {
		return "", fmt.Errorf("could not write email to %s: %w", path, err)
	}

	n.logger.Infof("dry run: wrote email for %v to %s", msg.Recipients(), path)
	return path, nil
}
