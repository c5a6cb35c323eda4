package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/iyhunko/shopping-list/internal/metrics"
)

const (
	defaultRetryDelay = 5 * time.Second
	maxMessages       = 10
	waitTimeSeconds   = 20
)

// ConsumerAPI defines the interface for SQS operations used by Consumer.
type ConsumerAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Consumer long-polls a queue of product messages and reports each one as a change.
type Consumer struct {
	client     ConsumerAPI
	queueURL   string
	retryDelay time.Duration
}

func NewConsumer(client ConsumerAPI, queueURL string) *Consumer {
	return &Consumer{
		client:     client,
		queueURL:   queueURL,
		retryDelay: defaultRetryDelay,
	}
}

// Subscribe consumes messages until ctx is cancelled, calling onChange once per
// valid message. It blocks and returns the context error.
func (c *Consumer) Subscribe(ctx context.Context, onChange func()) error {
	slog.Info("Starting SQS consumer", slog.String("queueURL", c.queueURL))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping SQS consumer")
			return ctx.Err()
		default:
		}

		if err := c.receiveMessages(ctx, onChange); err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			slog.Error("Error receiving messages", slog.Any("err", err))
			select {
			case <-ctx.Done():
			case <-time.After(c.retryDelay):
			}
		}
	}
}

// receiveMessages handles one long poll. Every received message is deleted:
// a malformed one would fail the same way on redelivery.
func (c *Consumer) receiveMessages(ctx context.Context, onChange func()) error {
	result, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:              aws.String(c.queueURL),
		MaxNumberOfMessages:   maxMessages,
		WaitTimeSeconds:       waitTimeSeconds,
		MessageAttributeNames: []string{ActionAttribute},
	})
	if err != nil {
		return fmt.Errorf("failed to receive messages: %w", err)
	}

	for _, message := range result.Messages {
		msg, decodeErr := decodeMessage(message)

		if err := c.deleteMessage(ctx, message); err != nil {
			slog.Error("Error deleting message", slog.Any("err", err))
		}

		if decodeErr != nil {
			slog.Warn("Dropping product message", slog.Any("err", decodeErr))
			continue
		}

		slog.Debug("Received product notification",
			slog.String("action", msg.Action),
			slog.String("product_id", msg.ProductID),
		)
		metrics.ChangeNotifications.WithLabelValues("sqs").Inc()
		onChange()
	}

	return nil
}

func decodeMessage(message types.Message) (ProductMessage, error) {
	if message.Body == nil {
		return ProductMessage{}, fmt.Errorf("%w: message body is nil", ErrInvalidMessage)
	}

	var msg ProductMessage
	if err := json.Unmarshal([]byte(*message.Body), &msg); err != nil {
		return ProductMessage{}, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return ProductMessage{}, err
	}
	return msg, nil
}

func (c *Consumer) deleteMessage(ctx context.Context, message types.Message) error {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: message.ReceiptHandle,
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}
