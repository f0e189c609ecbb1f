package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSAPI is the slice of the SQS client used by the sink.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSSink implements Sink by publishing notifications to an SQS queue,
// where the delivery worker picks them up.
type SQSSink struct {
	Client   SQSAPI
	QueueURL string
}

// NewSQSSink creates a new SQSSink.
func NewSQSSink(client SQSAPI, queueURL string) *SQSSink {
	return &SQSSink{
		Client:   client,
		QueueURL: queueURL,
	}
}

// Make sure we conform to the interface
var _ Sink = (*SQSSink)(nil)

// Notify sends the notification to the delivery queue.
func (s *SQSSink) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification for SQS: %w", err)
	}

	_, err = s.Client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.QueueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to send notification to SQS: %w", err)
	}

	return nil
}
