package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDB key layout: one partition per profile, one item per document.
//
//	PK = PROFILE#{profile}   SK = DOC#{key}
const (
	pkPrefix = "PROFILE#"
	skPrefix = "DOC#"
)

// DynamoAPI is the subset of *dynamodb.Client used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoStore keeps documents in a single DynamoDB table keyed by PK/SK.
type DynamoStore struct {
	client    DynamoAPI
	tableName string
	profile   string
}

var _ BlobStore = (*DynamoStore)(nil)

// document is the item body; PK and SK are added separately.
type document struct {
	Data      []byte `dynamodbav:"data"`
	UpdatedAt int64  `dynamodbav:"updatedAt"`
}

// NewDynamoStore stores documents for profile in tableName.
func NewDynamoStore(client DynamoAPI, tableName, profile string) *DynamoStore {
	if profile == "" {
		profile = "default"
	}
	return &DynamoStore{client: client, tableName: tableName, profile: profile}
}

func (s *DynamoStore) key(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pkPrefix + s.profile},
		"SK": &types.AttributeValueMemberS{Value: skPrefix + key},
	}
}

func (s *DynamoStore) Load(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key:       s.key(key),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem profile=%s doc=%s: %w", s.profile, key, err)
	}
	if result.Item == nil {
		return nil, nil
	}
	var doc document
	if err := attributevalue.UnmarshalMap(result.Item, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal profile=%s doc=%s: %w", s.profile, key, err)
	}
	return doc.Data, nil
}

func (s *DynamoStore) Save(ctx context.Context, key string, data []byte) error {
	item, err := attributevalue.MarshalMap(document{Data: data, UpdatedAt: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	for k, v := range s.key(key) {
		item[k] = v
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem profile=%s doc=%s: %w", s.profile, key, err)
	}
	return nil
}

func (s *DynamoStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.tableName,
		Key:       s.key(key),
	})
	if err != nil {
		return fmt.Errorf("DeleteItem profile=%s doc=%s: %w", s.profile, key, err)
	}
	return nil
}
