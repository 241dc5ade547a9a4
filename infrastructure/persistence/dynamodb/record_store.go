package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"sage-backend/application/ports"
	apperrors "sage-backend/pkg/errors"
)

// RecordStore implements ports.RecordStore on a single DynamoDB table.
// Key layout: PK = COMMUNITY#<communityID>, SK = <table>#<key>, so one
// Query per (community, table) pair returns every record of that table.
type RecordStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewRecordStore creates a new DynamoDB-backed record store
func NewRecordStore(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.RecordStore {
	return &RecordStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// recordItem is the DynamoDB item structure for one stored record
type recordItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityTable string `dynamodbav:"EntityTable"`
	RecordKey   string `dynamodbav:"RecordKey"`
	CommunityID string `dynamodbav:"CommunityID"`
	Payload     []byte `dynamodbav:"Payload"`
	UpdatedAt   string `dynamodbav:"UpdatedAt"`
}

// Get retrieves a record, returning nil when it does not exist
func (s *RecordStore) Get(ctx context.Context, table, key string) (*ports.Record, error) {
	communityID, err := communityOf(key)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: partitionKey(communityID)},
			"SK": &types.AttributeValueMemberS{Value: sortKey(table, key)},
		},
	})
	if err != nil {
		return nil, apperrors.NewPersistenceError("get", err)
	}
	if out.Item == nil {
		return nil, nil
	}

	return unmarshalRecord(out.Item)
}

// Set stores or replaces a record
func (s *RecordStore) Set(ctx context.Context, record ports.Record) error {
	if record.CommunityID == "" {
		return apperrors.NewValidationError("record communityID cannot be empty")
	}
	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	item, err := attributevalue.MarshalMap(recordItem{
		PK:          partitionKey(record.CommunityID),
		SK:          sortKey(record.Table, record.Key),
		EntityTable: record.Table,
		RecordKey:   record.Key,
		CommunityID: record.CommunityID,
		Payload:     record.Payload,
		UpdatedAt:   updatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return apperrors.NewPersistenceError("marshal", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		s.logger.Error("failed to put record",
			zap.String("table", record.Table),
			zap.String("key", record.Key),
			zap.Error(err),
		)
		return apperrors.NewPersistenceError("put", err)
	}
	return nil
}

// Delete removes a record
func (s *RecordStore) Delete(ctx context.Context, table, key string) error {
	communityID, err := communityOf(key)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: partitionKey(communityID)},
			"SK": &types.AttributeValueMemberS{Value: sortKey(table, key)},
		},
	})
	if err != nil {
		return apperrors.NewPersistenceError("delete", err)
	}
	return nil
}

// QueryByCommunity returns all records of a table for one community
func (s *RecordStore) QueryByCommunity(ctx context.Context, table, communityID string) ([]ports.Record, error) {
	records := make([]ports.Record, 0)
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":     &types.AttributeValueMemberS{Value: partitionKey(communityID)},
				":prefix": &types.AttributeValueMemberS{Value: table + "#"},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, apperrors.NewPersistenceError("query", err)
		}

		for _, item := range out.Items {
			record, err := unmarshalRecord(item)
			if err != nil {
				s.logger.Warn("skipping undecodable record",
					zap.String("table", table),
					zap.String("communityID", communityID),
					zap.Error(err),
				)
				continue
			}
			records = append(records, *record)
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return records, nil
}

func unmarshalRecord(item map[string]types.AttributeValue) (*ports.Record, error) {
	var ri recordItem
	if err := attributevalue.UnmarshalMap(item, &ri); err != nil {
		return nil, apperrors.NewPersistenceError("unmarshal", err)
	}

	updatedAt, err := time.Parse(time.RFC3339, ri.UpdatedAt)
	if err != nil {
		updatedAt = time.Time{}
	}

	return &ports.Record{
		Table:       ri.EntityTable,
		Key:         ri.RecordKey,
		CommunityID: ri.CommunityID,
		Payload:     ri.Payload,
		UpdatedAt:   updatedAt,
	}, nil
}

func partitionKey(communityID string) string {
	return "COMMUNITY#" + communityID
}

func sortKey(table, key string) string {
	return table + "#" + key
}

// communityOf extracts the community from a record key. Keys are namespaced
// as <communityID>/<rest> by the application layer.
func communityOf(key string) (string, error) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			if i == 0 {
				break
			}
			return key[:i], nil
		}
	}
	return "", fmt.Errorf("record key %q is not namespaced by community", key)
}
