// Package notify announces forwarded backups on an SQS queue.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sqs"
)

// Messenger is an abstraction for a SQS client
type Messenger interface {
	SendMessageWithContext(aws.Context, *sqs.SendMessageInput, ...request.Option) (*sqs.SendMessageOutput, error)
}

// Event describes one backup accepted by the remote endpoint
type Event struct {
	BackupID    string `json:"backupId"`
	TargetURL   string `json:"targetUrl"`
	Students    int    `json:"students"`
	Attendance  int    `json:"attendance"`
	ForwardedAt string `json:"forwardedAt"`
}

// Publisher writes events to one queue
type Publisher struct {
	sqs      Messenger
	queueURL string
}

// NewPublisher returns a new Publisher
func NewPublisher(m Messenger, queueURL string) *Publisher {
	return &Publisher{sqs: m, queueURL: queueURL}
}

// Publish writes an event to SQS
func (p *Publisher) Publish(ctx context.Context, ev Event) error {

	sm, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("could not marshal SQS payload: %w", err)
	}

	in := sqs.SendMessageInput{
		MessageBody: aws.String(string(sm)),
		QueueUrl:    aws.String(p.queueURL),
		MessageAttributes: map[string]*sqs.MessageAttributeValue{
			"backupId": {
				DataType:    aws.String("String"),
				StringValue: aws.String(ev.BackupID),
			},
		},
	}

	_, err = p.sqs.SendMessageWithContext(ctx, &in)
	if err != nil {
		return fmt.Errorf("could not publish backup event: %w", err)
	}

	return nil
}
