package eventbridge

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"sage-backend/application/ports"
	apperrors "sage-backend/pkg/errors"
)

const eventSource = "sage.intelligence"

// Publisher fans alerts out on an EventBridge bus so downstream consumers
// (notification workers, moderation tooling) react without coupling to the
// intelligence pipeline.
type Publisher struct {
	client  *eventbridge.Client
	busName string
	logger  *zap.Logger
}

// NewPublisher creates an EventBridge-backed alert publisher
func NewPublisher(client *eventbridge.Client, busName string, logger *zap.Logger) ports.AlertPublisher {
	return &Publisher{
		client:  client,
		busName: busName,
		logger:  logger,
	}
}

// PublishAlert emits one alert payload as an EventBridge event
func (p *Publisher) PublishAlert(ctx context.Context, detailType string, payload interface{}) error {
	detail, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, "marshal alert payload")
	}

	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{
			{
				EventBusName: aws.String(p.busName),
				Source:       aws.String(eventSource),
				DetailType:   aws.String(detailType),
				Detail:       aws.String(string(detail)),
			},
		},
	})
	if err != nil {
		return apperrors.NewExternalError("eventbridge", err)
	}
	if out.FailedEntryCount > 0 {
		p.logger.Error("eventbridge rejected alert entry",
			zap.String("detailType", detailType),
			zap.Int32("failedEntries", out.FailedEntryCount),
		)
		return apperrors.NewExternalError("eventbridge", nil)
	}

	return nil
}

// NopPublisher discards alerts; used in development without an event bus
type NopPublisher struct {
	logger *zap.Logger
}

// NewNopPublisher creates a publisher that logs alerts instead of sending them
func NewNopPublisher(logger *zap.Logger) ports.AlertPublisher {
	return &NopPublisher{logger: logger}
}

// PublishAlert logs the alert and drops it
func (p *NopPublisher) PublishAlert(ctx context.Context, detailType string, payload interface{}) error {
	p.logger.Debug("alert suppressed, no event bus configured", zap.String("detailType", detailType))
	return nil
}
