package mail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
)

const charset = "UTF-8"

// SESMailer sends email through AWS SES.
type SESMailer struct {
	from string
	svc  sesiface.SESAPI
}

// NewSESMailer creates an SES client for region using the default
// credential chain.
func NewSESMailer(from, region string) (*SESMailer, error) {
	sess, err := session.NewSession(aws.NewConfig().WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("error creating AWS session: %w", err)
	}
	return NewSESMailerWithClient(from, ses.New(sess)), nil
}

// NewSESMailerWithClient wires an explicit SES client, used by tests.
func NewSESMailerWithClient(from string, svc sesiface.SESAPI) *SESMailer {
	return &SESMailer{from: from, svc: svc}
}

func (m *SESMailer) Send(ctx context.Context, msg Message) error {
	input := &ses.SendEmailInput{
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(msg.To)},
		},
		Message: &ses.Message{
			Body: &ses.Body{
				Html: &ses.Content{Charset: aws.String(charset), Data: aws.String(msg.HTMLBody)},
				Text: &ses.Content{Charset: aws.String(charset), Data: aws.String(msg.TextBody)},
			},
			Subject: &ses.Content{Charset: aws.String(charset), Data: aws.String(msg.Subject)},
		},
		Source: aws.String(m.from),
	}

	if _, err := m.svc.SendEmailWithContext(ctx, input); err != nil {
		return fmt.Errorf("ses send to %s: %w", msg.To, err)
	}
	return nil
}
