package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// DynamoAPI es la parte del cliente de DynamoDB que usa DynamoScope.
// *dynamodb.Client la satisface.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoScope guarda las claves de un namespace en una tabla PK/SK con TTL nativo.
type DynamoScope struct {
	api       DynamoAPI
	table     string
	namespace string
	ttl       time.Duration
	now       func() time.Time
}

func NewDynamoScope(api DynamoAPI, table, namespace string, ttl time.Duration) (*DynamoScope, error) {
	if api == nil {
		return nil, errors.New("repository: dynamo api must not be nil")
	}
	if strings.TrimSpace(table) == "" {
		return nil, errors.New("repository: dynamo table must not be empty")
	}
	return &DynamoScope{
		api:       api,
		table:     table,
		namespace: namespace,
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

func (s *DynamoScope) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "SCOPE#" + s.namespace},
		"SK": &types.AttributeValueMemberS{Value: "KEY#" + key},
	}
}

func (s *DynamoScope) Get(ctx context.Context, key string) (string, bool, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.itemKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", false, fmt.Errorf("dynamo get %s: %w", key, err)
	}
	if out == nil || len(out.Item) == 0 {
		return "", false, nil
	}
	// El borrado por TTL de DynamoDB es diferido; un item vencido cuenta como ausente.
	if exp, ok := out.Item["ttl"].(*types.AttributeValueMemberN); ok {
		if unix, err := strconv.ParseInt(exp.Value, 10, 64); err == nil && unix <= s.now().Unix() {
			return "", false, nil
		}
	}
	value, ok := out.Item["value"].(*types.AttributeValueMemberS)
	if !ok {
		return "", false, fmt.Errorf("dynamo get %s: attribute \"value\" is not a string", key)
	}
	return value.Value, true, nil
}

func (s *DynamoScope) Set(ctx context.Context, key, value string) error {
	item := s.itemKey(key)
	item["value"] = &types.AttributeValueMemberS{Value: value}
	item["updatedAt"] = &types.AttributeValueMemberS{Value: s.now().UTC().Format(time.RFC3339)}
	if s.ttl > 0 {
		item["ttl"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(s.now().Add(s.ttl).Unix(), 10)}
	}
	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		if isDynamoSizeError(err) {
			return fmt.Errorf("dynamo set %s: %w", key, ErrQuotaExceeded)
		}
		return fmt.Errorf("dynamo set %s: %w", key, err)
	}
	return nil
}

func (s *DynamoScope) Delete(ctx context.Context, key string) error {
	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.itemKey(key),
	})
	if err != nil {
		return fmt.Errorf("dynamo delete %s: %w", key, err)
	}
	return nil
}

func isDynamoSizeError(err error) bool {
	var collection *types.ItemCollectionSizeLimitExceededException
	if errors.As(err, &collection) {
		return true
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode() == "ValidationException" &&
		strings.Contains(strings.ToLower(apiErr.ErrorMessage()), "item size")
}
