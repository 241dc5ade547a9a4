package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	apperrors "sage-backend/pkg/errors"
)

const (
	outboxPendingPK = "OUTBOX#PENDING"
	outboxDeadPK    = "OUTBOX#DEAD"
)

// AlertOutbox stages wellness alerts in DynamoDB before they reach the event
// bus. Appending is cheap and local to the write path; a background relay owns
// actual delivery, so a bus outage never loses alerts.
type AlertOutbox struct {
	client    *dynamodb.Client
	tableName string
}

// OutboxEntry is one staged alert
type OutboxEntry struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntryID    string `dynamodbav:"EntryID"`
	DetailType string `dynamodbav:"DetailType"`
	Payload    []byte `dynamodbav:"Payload"`
	Attempts   int    `dynamodbav:"Attempts"`
	LastError  string `dynamodbav:"LastError,omitempty"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	TTL        int64  `dynamodbav:"TTL"`
}

// NewAlertOutbox creates an outbox on the given table
func NewAlertOutbox(client *dynamodb.Client, tableName string) *AlertOutbox {
	return &AlertOutbox{client: client, tableName: tableName}
}

// Append stages one alert for delivery
func (o *AlertOutbox) Append(ctx context.Context, detailType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to marshal outbox payload: %v", err))
	}

	now := time.Now()
	entry := OutboxEntry{
		PK:         outboxPendingPK,
		SK:         fmt.Sprintf("%d#%s", now.UnixNano(), uuid.NewString()),
		EntryID:    uuid.NewString(),
		DetailType: detailType,
		Payload:    body,
		CreatedAt:  now.UTC().Format(time.RFC3339),
		TTL:        now.Add(7 * 24 * time.Hour).Unix(),
	}

	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to marshal outbox entry: %v", err))
	}

	_, err = o.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(o.tableName),
		Item:      item,
	})
	if err != nil {
		return apperrors.NewPersistenceError("append outbox entry", err)
	}
	return nil
}

// GetPending returns up to limit staged alerts, oldest first
func (o *AlertOutbox) GetPending(ctx context.Context, limit int32) ([]OutboxEntry, error) {
	result, err := o.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(o.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: outboxPendingPK},
		},
		Limit:            aws.Int32(limit),
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, apperrors.NewPersistenceError("query pending outbox entries", err)
	}

	entries := make([]OutboxEntry, 0, len(result.Items))
	for _, item := range result.Items {
		var entry OutboxEntry
		if err := attributevalue.UnmarshalMap(item, &entry); err != nil {
			return nil, apperrors.NewInternalError(fmt.Sprintf("failed to unmarshal outbox entry: %v", err))
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// MarkPublished removes a delivered entry
func (o *AlertOutbox) MarkPublished(ctx context.Context, entry OutboxEntry) error {
	_, err := o.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(o.tableName),
		Key:       o.key(entry),
	})
	if err != nil {
		return apperrors.NewPersistenceError("delete published outbox entry", err)
	}
	return nil
}

// MarkFailed bumps the entry's attempt count and records the failure
func (o *AlertOutbox) MarkFailed(ctx context.Context, entry OutboxEntry, cause string) error {
	_, err := o.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(o.tableName),
		Key:              o.key(entry),
		UpdateExpression: aws.String("SET Attempts = :attempts, LastError = :cause"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":attempts": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", entry.Attempts+1)},
			":cause":    &types.AttributeValueMemberS{Value: cause},
		},
	})
	if err != nil {
		return apperrors.NewPersistenceError("mark outbox entry failed", err)
	}
	return nil
}

// MoveToDead parks an entry that exhausted its delivery attempts. Dead entries
// stay queryable until their TTL so operators can inspect what was lost.
func (o *AlertOutbox) MoveToDead(ctx context.Context, entry OutboxEntry) error {
	dead := entry
	dead.PK = outboxDeadPK

	item, err := attributevalue.MarshalMap(dead)
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to marshal dead outbox entry: %v", err))
	}
	if _, err := o.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(o.tableName),
		Item:      item,
	}); err != nil {
		return apperrors.NewPersistenceError("park dead outbox entry", err)
	}

	_, err = o.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(o.tableName),
		Key:       o.key(entry),
	})
	if err != nil {
		return apperrors.NewPersistenceError("remove dead outbox entry", err)
	}
	return nil
}

func (o *AlertOutbox) key(entry OutboxEntry) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: entry.PK},
		"SK": &types.AttributeValueMemberS{Value: entry.SK},
	}
}
