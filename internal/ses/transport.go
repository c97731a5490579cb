// Package ses delivers complaint emails directly through AWS SES.
package ses

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalithlochan/returns-notifier/internal/circuitbreaker"
	"github.com/lalithlochan/returns-notifier/internal/complaint"
)

// API is the subset of the SES client the transport uses.
type API interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type Config struct {
	Region string
}

// Transport implements complaint.EmailTransport on top of SES.
type Transport struct {
	client  API
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

func New(ctx context.Context, cfg Config, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) (*Transport, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load default AWS config: %w", err)
	}
	return NewWithClient(ses.NewFromConfig(awsCfg), breaker, logger), nil
}

func NewWithClient(client API, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *Transport {
	return &Transport{
		client:  client,
		breaker: breaker,
		logger:  logger,
	}
}

// Send delivers each message of the batch in order and stops at the first
// failure. Messages already accepted by SES stay sent.
func (t *Transport) Send(ctx context.Context, messages []complaint.EmailMessage, env complaint.Envelope) error {
	batchID := uuid.New().String()

	for i, msg := range messages {
		if err := validate(msg); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}

		var messageID string
		err := t.breaker.Execute(ctx, func(ctx context.Context) error {
			out, err := t.client.SendEmail(ctx, buildInput(msg, env, batchID))
			if err != nil {
				return err
			}
			messageID = aws.ToString(out.MessageId)
			return nil
		})
		if err != nil {
			t.logger.Error("ses send failed",
				zap.String("batch_id", batchID),
				zap.Int64("reseller_id", env.ResellerID),
				zap.String("to", msg.To),
				zap.Error(err),
			)
			return fmt.Errorf("ses send failed: %w", err)
		}

		t.logger.Info("email sent via SES",
			zap.String("batch_id", batchID),
			zap.Int64("reseller_id", env.ResellerID),
			zap.String("event", env.Event),
			zap.Int64("client_id", env.ClientID),
			zap.Int64("status_id", env.StatusID),
			zap.String("to", msg.To),
			zap.String("message_id", messageID),
		)
	}

	return nil
}

func validate(msg complaint.EmailMessage) error {
	switch {
	case msg.From == "":
		return fmt.Errorf("email missing 'from' address")
	case msg.To == "":
		return fmt.Errorf("email missing 'to' address")
	case msg.Subject == "":
		return fmt.Errorf("email missing subject")
	case msg.Body == "":
		return fmt.Errorf("email missing body")
	}
	return nil
}

func buildInput(msg complaint.EmailMessage, env complaint.Envelope, batchID string) *ses.SendEmailInput {
	tags := []types.MessageTag{
		{Name: aws.String("event"), Value: aws.String(env.Event)},
		{Name: aws.String("reseller_id"), Value: aws.String(fmt.Sprint(env.ResellerID))},
		{Name: aws.String("batch_id"), Value: aws.String(batchID)},
	}
	if env.ClientID != 0 {
		tags = append(tags,
			types.MessageTag{Name: aws.String("client_id"), Value: aws.String(fmt.Sprint(env.ClientID))},
			types.MessageTag{Name: aws.String("status_id"), Value: aws.String(fmt.Sprint(env.StatusID))},
		)
	}

	return &ses.SendEmailInput{
		Source: aws.String(msg.From),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(msg.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(msg.Body),
					Charset: aws.String("UTF-8"),
				},
			},
		},
		Tags: tags,
	}
}
