// Package sns delivers client SMS notifications through AWS SNS.
package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"go.uber.org/zap"

	"github.com/lalithlochan/returns-notifier/internal/circuitbreaker"
	"github.com/lalithlochan/returns-notifier/internal/complaint"
)

const (
	keyClientSMSBody = "complaintClientSmsBody"

	msgNoMobile = "client has no mobile number"
)

// API is the subset of the SNS client the notifier uses.
type API interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// ContractorLookup finds the client an SMS is addressed to.
type ContractorLookup interface {
	Contractor(ctx context.Context, id int64) (*complaint.Contractor, error)
}

type Config struct {
	Region string
}

// Notifier implements complaint.SMSNotifier.
//
// Delivery problems are reported through the (sent, message) pair and never
// as an error; only directory and localization failures are errors.
type Notifier struct {
	client   API
	contacts ContractorLookup
	renderer complaint.Renderer
	breaker  *circuitbreaker.CircuitBreaker
	logger   *zap.Logger
}

func New(ctx context.Context, cfg Config, contacts ContractorLookup, renderer complaint.Renderer, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) (*Notifier, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load default AWS config for SNS: %w", err)
	}
	return NewWithClient(sns.NewFromConfig(awsCfg), contacts, renderer, breaker, logger), nil
}

func NewWithClient(client API, contacts ContractorLookup, renderer complaint.Renderer, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *Notifier {
	return &Notifier{
		client:   client,
		contacts: contacts,
		renderer: renderer,
		breaker:  breaker,
		logger:   logger,
	}
}

func (n *Notifier) Send(ctx context.Context, req complaint.SMSRequest) (bool, string, error) {
	client, err := n.contacts.Contractor(ctx, req.ClientID)
	if err != nil {
		return false, "", fmt.Errorf("lookup client %d: %w", req.ClientID, err)
	}
	if client == nil || client.Mobile == "" {
		return false, msgNoMobile, nil
	}

	body, err := n.renderer.Render(ctx, keyClientSMSBody, req.Data, req.ResellerID)
	if err != nil {
		return false, "", fmt.Errorf("render sms body: %w", err)
	}

	input := &sns.PublishInput{
		PhoneNumber: aws.String(client.Mobile),
		Message:     aws.String(body),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	}

	var messageID string
	err = n.breaker.Execute(ctx, func(ctx context.Context) error {
		out, err := n.client.Publish(ctx, input)
		if err != nil {
			return err
		}
		messageID = aws.ToString(out.MessageId)
		return nil
	})
	if err != nil {
		n.logger.Warn("sms not sent",
			zap.Int64("reseller_id", req.ResellerID),
			zap.Int64("client_id", req.ClientID),
			zap.Int64("status_id", req.StatusID),
			zap.Error(err),
		)
		return false, err.Error(), nil
	}

	n.logger.Info("SMS sent via SNS",
		zap.Int64("reseller_id", req.ResellerID),
		zap.Int64("client_id", req.ClientID),
		zap.String("event", req.Event),
		zap.Int64("status_id", req.StatusID),
		zap.String("message_id", messageID),
	)
	return true, "", nil
}
