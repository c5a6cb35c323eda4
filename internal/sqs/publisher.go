package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Product change actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ActionAttribute is the message attribute carrying the action, for queue-side filtering.
const ActionAttribute = "action"

var ErrInvalidMessage = errors.New("invalid product message")

// ProductMessage announces that one product changed. Receivers refetch
// instead of applying it, so it only names the product.
type ProductMessage struct {
	Action    string `json:"action"`
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
}

func (m ProductMessage) Validate() error {
	switch m.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidMessage, m.Action)
	}
	if m.ProductID == "" {
		return fmt.Errorf("%w: product_id is empty", ErrInvalidMessage)
	}
	return nil
}

// PublisherAPI defines the interface for SQS operations used by Publisher.
type PublisherAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher sends product messages to one queue.
type Publisher struct {
	client   PublisherAPI
	queueURL string
}

func NewPublisher(client PublisherAPI, queueURL string) *Publisher {
	return &Publisher{
		client:   client,
		queueURL: queueURL,
	}
}

// PublishProductMessage validates msg and sends it as a JSON body.
func (p *Publisher) PublishProductMessage(ctx context.Context, msg ProductMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			ActionAttribute: {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.Action),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}
	return nil
}
