// Package sqs hands complaint emails to a queue for an external mail worker.
package sqs

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalithlochan/returns-notifier/internal/circuitbreaker"
	"github.com/lalithlochan/returns-notifier/internal/complaint"
)

// API is the subset of the SQS client the producer uses.
type API interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Config holds SQS configuration.
type Config struct {
	Region   string
	QueueURL string
}

// Message is the payload sent to SQS: one batch of emails plus its envelope.
type Message struct {
	ID         string                   `json:"id"`
	ResellerID int64                    `json:"resellerId"`
	Event      string                   `json:"event"`
	ClientID   int64                    `json:"clientId,omitempty"`
	StatusID   int64                    `json:"statusId,omitempty"`
	Emails     []complaint.EmailMessage `json:"emails"`
	EnqueuedAt int64                    `json:"enqueuedAt"`
}

// Producer implements complaint.EmailTransport by enqueueing each batch as
// a single SQS message.
type Producer struct {
	client   API
	queueURL string
	breaker  *circuitbreaker.CircuitBreaker
	logger   *zap.Logger
}

// NewProducer creates a new SQS producer.
func NewProducer(ctx context.Context, cfg Config, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) (*Producer, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("sqs producer initialized",
		zap.String("queue_url", cfg.QueueURL),
	)

	return NewProducerWithClient(sqs.NewFromConfig(awsCfg), cfg.QueueURL, breaker, logger), nil
}

func NewProducerWithClient(client API, queueURL string, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *Producer {
	return &Producer{
		client:   client,
		queueURL: queueURL,
		breaker:  breaker,
		logger:   logger,
	}
}

// Send enqueues the batch. An empty batch is a no-op.
func (p *Producer) Send(ctx context.Context, messages []complaint.EmailMessage, env complaint.Envelope) error {
	if len(messages) == 0 {
		return nil
	}

	msg := Message{
		ID:         uuid.New().String(),
		ResellerID: env.ResellerID,
		Event:      env.Event,
		ClientID:   env.ClientID,
		StatusID:   env.StatusID,
		Emails:     messages,
		EnqueuedAt: time.Now().UnixNano(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event": {
				DataType:    aws.String("String"),
				StringValue: aws.String(env.Event),
			},
			"reseller_id": {
				DataType:    aws.String("Number"),
				StringValue: aws.String(strconv.FormatInt(env.ResellerID, 10)),
			},
		},
	}

	var messageID string
	err = p.breaker.Execute(ctx, func(ctx context.Context) error {
		out, err := p.client.SendMessage(ctx, input)
		if err != nil {
			return err
		}
		messageID = aws.ToString(out.MessageId)
		return nil
	})
	if err != nil {
		p.logger.Error("failed to send message to sqs",
			zap.Error(err),
			zap.String("id", msg.ID),
			zap.Int64("reseller_id", env.ResellerID),
		)
		return fmt.Errorf("sqs send failed: %w", err)
	}

	p.logger.Info("emails enqueued",
		zap.String("id", msg.ID),
		zap.String("message_id", messageID),
		zap.Int64("reseller_id", env.ResellerID),
		zap.Int("emails", len(messages)),
	)
	return nil
}
