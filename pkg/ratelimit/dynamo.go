package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoLimiter is a fixed-window limiter backed by DynamoDB atomic counters,
// so the limit holds across instances. Storage failures fail open: a broken
// limiter must not take event ingestion down with it.
type DynamoLimiter struct {
	client    *dynamodb.Client
	tableName string
	scope     string
	limit     int
	window    time.Duration
}

type limitEntry struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Count     int    `dynamodbav:"Count"`
	WindowEnd string `dynamodbav:"WindowEnd"`
	TTL       int64  `dynamodbav:"TTL"`
}

// NewDynamoLimiter creates a distributed limiter. scope namespaces the keys so
// independent limits (per community, per IP) can share one table.
func NewDynamoLimiter(client *dynamodb.Client, tableName, scope string, limit int, window time.Duration) *DynamoLimiter {
	return &DynamoLimiter{
		client:    client,
		tableName: tableName,
		scope:     scope,
		limit:     limit,
		window:    window,
	}
}

// Allow atomically increments the counter for key's current window, rejecting
// once the limit is reached.
func (l *DynamoLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.client == nil {
		return true, nil
	}

	windowStart := time.Now().Truncate(l.window)
	windowEnd := windowStart.Add(l.window)

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(l.tableName),
		Key:       l.itemKey(key, windowStart),
		UpdateExpression:    aws.String("SET #count = if_not_exists(#count, :zero) + :one, WindowEnd = :end, #ttl = :ttl"),
		ConditionExpression: aws.String("attribute_not_exists(#count) OR #count < :limit"),
		ExpressionAttributeNames: map[string]string{
			"#count": "Count",
			"#ttl":   "TTL",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero":  &types.AttributeValueMemberN{Value: "0"},
			":one":   &types.AttributeValueMemberN{Value: "1"},
			":limit": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", l.limit)},
			":end":   &types.AttributeValueMemberS{Value: windowEnd.Format(time.RFC3339)},
			":ttl":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", windowEnd.Add(time.Hour).Unix())},
		},
		ReturnValues: types.ReturnValueAllNew,
	}

	result, err := l.client.UpdateItem(ctx, input)
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return false, nil
		}
		return true, fmt.Errorf("rate limiter failing open: %w", err)
	}

	var entry limitEntry
	if err := attributevalue.UnmarshalMap(result.Attributes, &entry); err != nil {
		return true, fmt.Errorf("rate limiter failing open: %w", err)
	}
	return entry.Count <= l.limit, nil
}

// Reset clears the current window for key
func (l *DynamoLimiter) Reset(ctx context.Context, key string) error {
	if l.client == nil {
		return nil
	}

	windowStart := time.Now().Truncate(l.window)
	_, err := l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(l.tableName),
		Key:       l.itemKey(key, windowStart),
	})
	return err
}

func (l *DynamoLimiter) itemKey(key string, windowStart time.Time) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("RATELIMIT#%s#%s", l.scope, key)},
		"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("WINDOW#%d", windowStart.Unix())},
	}
}
