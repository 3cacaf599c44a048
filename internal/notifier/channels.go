package notifier

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/Constantin2105/inspiratec-engine/internal/models"
)

// EmailSender is the SES surface the email channel needs.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// SMSSender is the SNS surface the sms channel needs.
type SMSSender interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// Inbox persists the user-visible notification row.
type Inbox interface {
	InsertNotification(ctx context.Context, n *models.Notification) error
}

// SESChannel sends the rendered notification as an email.
type SESChannel struct {
	sender EmailSender
	from   string
}

// NewSESChannel creates the email channel. from is the verified sender
// address.
func NewSESChannel(sender EmailSender, from string) *SESChannel {
	return &SESChannel{sender: sender, from: from}
}

func (c *SESChannel) Name() string { return "ses" }

func (c *SESChannel) Deliver(ctx context.Context, user *models.User, n *models.Notification) error {
	if user.Email == "" {
		return fmt.Errorf("user %s has no email address", user.ID)
	}
	msg := render(n)
	_, err := c.sender.SendEmail(ctx, &ses.SendEmailInput{
		Source: awssdk.String(c.from),
		Destination: &sestypes.Destination{
			ToAddresses: []string{user.Email},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: awssdk.String(msg.Subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: awssdk.String(msg.Body)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}

// SNSChannel sends an SMS for high-priority kinds only; everything else is a
// silent success so the dispatcher does not count it as a failure.
type SNSChannel struct {
	sender SMSSender
}

// NewSNSChannel creates the sms channel.
func NewSNSChannel(sender SMSSender) *SNSChannel {
	return &SNSChannel{sender: sender}
}

func (c *SNSChannel) Name() string { return "sns" }

func (c *SNSChannel) Deliver(ctx context.Context, user *models.User, n *models.Notification) error {
	msg := render(n)
	if !msg.HighPriority {
		return nil
	}
	if user.Phone == "" {
		// No phone on file is a user-data gap, not a delivery failure.
		return nil
	}
	_, err := c.sender.Publish(ctx, &sns.PublishInput{
		PhoneNumber: awssdk.String(user.Phone),
		Message:     awssdk.String(msg.Subject + " - " + msg.Body),
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

// InboxChannel writes the notification to the dashboard inbox table.
type InboxChannel struct {
	inbox Inbox
}

// NewInboxChannel creates the inbox channel.
func NewInboxChannel(inbox Inbox) *InboxChannel {
	return &InboxChannel{inbox: inbox}
}

func (c *InboxChannel) Name() string { return "inbox" }

func (c *InboxChannel) Deliver(ctx context.Context, _ *models.User, n *models.Notification) error {
	return c.inbox.InsertNotification(ctx, n)
}
