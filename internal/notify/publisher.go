// Package notify publishes domain events to SNS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	awsclient "quickbite/internal/common/aws"
	apperrors "quickbite/internal/common/errors"
	"quickbite/internal/common/logger"
)

const (
	EventPriceChanged = "price.changed"
	EventOrderPlaced  = "order.placed"
)

// Event is one published notification. Payload is marshalled as JSON.
type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

type PriceChanged struct {
	ItemName string  `json:"itemName"`
	NewPrice float64 `json:"newPrice"`
}

type OrderPlaced struct {
	OrderID        int64   `json:"orderId"`
	UserIdentifier string  `json:"userIdentifier"`
	Total          float64 `json:"total"`
	PaymentRef     string  `json:"paymentRef"`
	ItemCount      int     `json:"itemCount"`
}

// Publisher sends events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NewEvent stamps payload with the current time.
func NewEvent(eventType string, payload interface{}) Event {
	return Event{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload}
}

// SNSPublisher publishes events to one topic with an eventType message
// attribute for subscription filtering.
type SNSPublisher struct {
	client   *awsclient.SNSClient
	topicARN string
	logger   logger.Logger
}

func NewSNSPublisher(client *awsclient.SNSClient, topicARN string, log logger.Logger) *SNSPublisher {
	return &SNSPublisher{
		client:   client,
		topicARN: topicARN,
		logger:   log.With(map[string]interface{}{"component": "sns-publisher"}),
	}
}

func (p *SNSPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return apperrors.NewNotificationFailedError(event.Type, fmt.Errorf("marshal event: %w", err))
	}

	out, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		Subject:  aws.String("quickbite " + event.Type),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.Type),
			},
		},
	})
	if err != nil {
		return apperrors.NewNotificationFailedError(event.Type, err)
	}

	p.logger.Debug("event published", map[string]interface{}{
		"eventType": event.Type,
		"messageId": aws.ToString(out.MessageId),
	})
	return nil
}

// NoopPublisher drops events. It is used when SNS is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
