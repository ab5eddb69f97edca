package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
	"x402_gateway/internal/domain/entities"
	"x402_gateway/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

const (
	defaultSettlementsTableName    = "settlements"
	defaultSettlementLogsTableName = "settlement_logs"
	settlementsIDIndex             = "id-index"
	settlementsStatusIndex         = "status-created_at-index"

	// Fixed-width UTC timestamps so that created_at sorts lexically.
	dynamoTimeLayout = "2006-01-02T15:04:05.000000000Z"

	claimPageSize    = 10
	claimMaxAttempts = 3
)

// DynamoAPI is the subset of *dynamodb.Client the settlement store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var _ DynamoAPI = (*dynamodb.Client)(nil)

type settlementItem struct {
	PaymentAttemptID    string `dynamodbav:"payment_attempt_id"`
	ID                  string `dynamodbav:"id"`
	FacilitatorRequest  string `dynamodbav:"facilitator_request"`
	FacilitatorResponse string `dynamodbav:"facilitator_response,omitempty"`
	Status              string `dynamodbav:"status"`
	CreatedAt           string `dynamodbav:"created_at"`
	UpdatedAt           string `dynamodbav:"updated_at"`
}

type settlementLogItem struct {
	ID           string                 `dynamodbav:"id"`
	SettlementID string                 `dynamodbav:"settlement_id"`
	Level        string                 `dynamodbav:"level"`
	Message      string                 `dynamodbav:"message"`
	Meta         map[string]interface{} `dynamodbav:"meta,omitempty"`
	Response     string                 `dynamodbav:"response,omitempty"`
	CreatedAt    string                 `dynamodbav:"created_at"`
}

// SettlementDynamoRepository persists settlements in DynamoDB.
//
// Table requirements (settlements):
//   - PK: payment_attempt_id (string); uniqueness comes from the key itself
//   - GSI: id-index (PK: id)
//   - GSI: status-created_at-index (PK: status, SK: created_at)
//
// Table requirements (settlement_logs):
//   - PK: id (string)
type SettlementDynamoRepository struct {
	ddb       DynamoAPI
	tableName string
	logsTable string
	now       func() time.Time
}

var _ interfaces.ISettlementRepository = (*SettlementDynamoRepository)(nil)

func NewSettlementDynamoRepository(ddb DynamoAPI, tableName, logsTable string) *SettlementDynamoRepository {
	tableName = resolveTableName(tableName, "SETTLEMENTS_TABLE", defaultSettlementsTableName)
	logsTable = resolveTableName(logsTable, "SETTLEMENT_LOGS_TABLE", defaultSettlementLogsTableName)
	return &SettlementDynamoRepository{
		ddb:       ddb,
		tableName: tableName,
		logsTable: logsTable,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// resolveTableName prefers the explicit name, then the environment, then def.
func resolveTableName(name, envKey, def string) string {
	if name != "" {
		return name
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return def
}

func (r *SettlementDynamoRepository) Enqueue(ctx context.Context, paymentAttemptID string, facilitatorRequest json.RawMessage) (entities.Settlement, error) {
	now := r.now()
	s := entities.Settlement{
		ID:                 uuid.NewString(),
		PaymentAttemptID:   paymentAttemptID,
		FacilitatorRequest: facilitatorRequest,
		Status:             entities.SettlementStatusQueued,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	av, err := attributevalue.MarshalMap(toSettlementItem(s))
	if err != nil {
		return entities.Settlement{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{
			"#pk": "payment_attempt_id",
		},
	})
	if err == nil {
		return s, nil
	}
	if !isConditionalCheckFailed(err) {
		return entities.Settlement{}, err
	}

	existing, err := r.GetByAttemptID(ctx, paymentAttemptID)
	if err != nil {
		return entities.Settlement{}, err
	}
	if existing.ID == "" {
		return entities.Settlement{}, fmt.Errorf("settlement %s vanished after conditional insert", paymentAttemptID)
	}
	return existing, nil
}

func (r *SettlementDynamoRepository) ClaimNextQueued(ctx context.Context) (entities.Settlement, bool, error) {
	for attempt := 0; attempt < claimMaxAttempts; attempt++ {
		out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String(settlementsStatusIndex),
			KeyConditionExpression: aws.String("#status = :queued"),
			ExpressionAttributeNames: map[string]string{
				"#status": "status",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":queued": &types.AttributeValueMemberS{Value: string(entities.SettlementStatusQueued)},
			},
			ScanIndexForward: aws.Bool(true),
			Limit:            aws.Int32(claimPageSize),
		})
		if err != nil {
			return entities.Settlement{}, false, err
		}
		if len(out.Items) == 0 {
			return entities.Settlement{}, false, nil
		}

		for _, raw := range out.Items {
			var it settlementItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return entities.Settlement{}, false, err
			}
			s, ok, err := r.transition(ctx, it.PaymentAttemptID,
				"SET #status = :to, updated_at = :now",
				"#status = :from",
				map[string]types.AttributeValue{
					":from": &types.AttributeValueMemberS{Value: string(entities.SettlementStatusQueued)},
					":to":   &types.AttributeValueMemberS{Value: string(entities.SettlementStatusProcessing)},
				})
			if err != nil {
				return entities.Settlement{}, false, err
			}
			if ok {
				return s, true, nil
			}
			// Another worker won this row; try the next one.
		}
	}
	return entities.Settlement{}, false, nil
}

// Finalize goes straight to the base table key; the id-index GSI may not
// have caught up with a row that was just enqueued.
func (r *SettlementDynamoRepository) Finalize(ctx context.Context, current entities.Settlement, status entities.SettlementStatus, facilitatorResponse json.RawMessage) (entities.Settlement, error) {
	if !status.IsTerminal() {
		return entities.Settlement{}, interfaces.ErrInvalidFinalStatus
	}

	s, ok, err := r.transition(ctx, current.PaymentAttemptID,
		"SET #status = :to, updated_at = :now, facilitator_response = :resp",
		"#status = :from AND updated_at = :seen",
		map[string]types.AttributeValue{
			":to":   &types.AttributeValueMemberS{Value: string(status)},
			":resp": &types.AttributeValueMemberS{Value: string(facilitatorResponse)},
			":from": &types.AttributeValueMemberS{Value: string(current.Status)},
			":seen": &types.AttributeValueMemberS{Value: current.UpdatedAt.UTC().Format(dynamoTimeLayout)},
		})
	if err != nil {
		return entities.Settlement{}, err
	}
	if ok {
		return s, nil
	}

	latest, err := r.GetByAttemptID(ctx, current.PaymentAttemptID)
	if err != nil {
		return entities.Settlement{}, err
	}
	switch {
	case latest.ID == "":
		return entities.Settlement{}, interfaces.ErrSettlementNotFound
	case latest.Status.IsTerminal():
		return entities.Settlement{}, interfaces.ErrSettlementAlreadyFinal
	default:
		return entities.Settlement{}, interfaces.ErrSettlementStale
	}
}

// transition applies a conditional update keyed by attempt id. ok is false
// when the condition did not hold.
func (r *SettlementDynamoRepository) transition(ctx context.Context, attemptID, update, condition string, values map[string]types.AttributeValue) (entities.Settlement, bool, error) {
	values[":now"] = &types.AttributeValueMemberS{Value: r.now().Format(dynamoTimeLayout)}
	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"payment_attempt_id": &types.AttributeValueMemberS{Value: attemptID},
		},
		UpdateExpression:          aws.String(update),
		ConditionExpression:       aws.String(condition),
		ExpressionAttributeNames:  map[string]string{"#status": "status"},
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return entities.Settlement{}, false, nil
		}
		return entities.Settlement{}, false, err
	}

	var it settlementItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Settlement{}, false, err
	}
	return fromSettlementItem(it), true, nil
}

func (r *SettlementDynamoRepository) AppendLog(ctx context.Context, entry entities.SettlementLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}
	av, err := attributevalue.MarshalMap(settlementLogItem{
		ID:           entry.ID,
		SettlementID: entry.SettlementID,
		Level:        string(entry.Level),
		Message:      entry.Message,
		Meta:         entry.Meta,
		Response:     string(entry.Response),
		CreatedAt:    entry.CreatedAt.UTC().Format(dynamoTimeLayout),
	})
	if err != nil {
		return err
	}
	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.logsTable),
		Item:      av,
	})
	return err
}

func (r *SettlementDynamoRepository) GetByID(ctx context.Context, id string) (entities.Settlement, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(settlementsIDIndex),
		KeyConditionExpression: aws.String("#id = :id"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: id},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return entities.Settlement{}, err
	}
	if len(out.Items) == 0 {
		return entities.Settlement{}, nil
	}
	var it settlementItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &it); err != nil {
		return entities.Settlement{}, err
	}
	return fromSettlementItem(it), nil
}

func (r *SettlementDynamoRepository) GetByAttemptID(ctx context.Context, paymentAttemptID string) (entities.Settlement, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"payment_attempt_id": &types.AttributeValueMemberS{Value: paymentAttemptID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Settlement{}, err
	}
	if len(out.Item) == 0 {
		return entities.Settlement{}, nil
	}
	var it settlementItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Settlement{}, err
	}
	return fromSettlementItem(it), nil
}

func (r *SettlementDynamoRepository) List(ctx context.Context, status entities.SettlementStatus, limit int) ([]entities.Settlement, error) {
	var (
		items []map[string]types.AttributeValue
		err   error
	)
	if status != "" {
		items, err = r.queryByStatus(ctx, status, "", limit)
	} else {
		items, err = r.scan(ctx, limit)
	}
	if err != nil {
		return nil, err
	}
	return unmarshalSettlements(items)
}

func (r *SettlementDynamoRepository) ResetStuckProcessing(ctx context.Context, olderThan time.Time) ([]entities.Settlement, error) {
	items, err := r.queryByStatus(ctx, entities.SettlementStatusProcessing, olderThan.UTC().Format(dynamoTimeLayout), 0)
	if err != nil {
		return nil, err
	}
	stuck, err := unmarshalSettlements(items)
	if err != nil {
		return nil, err
	}

	out := make([]entities.Settlement, 0, len(stuck))
	for _, s := range stuck {
		// updated_at guards against a worker that finalized or re-claimed the row meanwhile.
		reset, ok, err := r.transition(ctx, s.PaymentAttemptID,
			"SET #status = :to, updated_at = :now",
			"#status = :from AND updated_at = :seen",
			map[string]types.AttributeValue{
				":from": &types.AttributeValueMemberS{Value: string(entities.SettlementStatusProcessing)},
				":to":   &types.AttributeValueMemberS{Value: string(entities.SettlementStatusQueued)},
				":seen": &types.AttributeValueMemberS{Value: s.UpdatedAt.UTC().Format(dynamoTimeLayout)},
			})
		if err != nil {
			return out, err
		}
		if ok {
			out = append(out, reset)
		}
	}
	return out, nil
}

// queryByStatus pages through the status index. A non-empty updatedBefore
// filters on updated_at; limit <= 0 means no limit.
func (r *SettlementDynamoRepository) queryByStatus(ctx context.Context, status entities.SettlementStatus, updatedBefore string, limit int) ([]map[string]types.AttributeValue, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(settlementsStatusIndex),
		KeyConditionExpression: aws.String("#status = :status"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(status)},
		},
		ScanIndexForward: aws.Bool(true),
	}
	if updatedBefore != "" {
		in.FilterExpression = aws.String("updated_at < :cutoff")
		in.ExpressionAttributeValues[":cutoff"] = &types.AttributeValueMemberS{Value: updatedBefore}
	}

	var items []map[string]types.AttributeValue
	for {
		out, err := r.ddb.Query(ctx, in)
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if limit > 0 && len(items) >= limit {
			return items[:limit], nil
		}
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (r *SettlementDynamoRepository) scan(ctx context.Context, limit int) ([]map[string]types.AttributeValue, error) {
	in := &dynamodb.ScanInput{TableName: aws.String(r.tableName)}
	var items []map[string]types.AttributeValue
	for {
		out, err := r.ddb.Scan(ctx, in)
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if limit > 0 && len(items) >= limit {
			return items[:limit], nil
		}
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func unmarshalSettlements(raw []map[string]types.AttributeValue) ([]entities.Settlement, error) {
	out := make([]entities.Settlement, 0, len(raw))
	for _, r := range raw {
		var it settlementItem
		if err := attributevalue.UnmarshalMap(r, &it); err != nil {
			return nil, err
		}
		out = append(out, fromSettlementItem(it))
	}
	return out, nil
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func toSettlementItem(s entities.Settlement) settlementItem {
	return settlementItem{
		PaymentAttemptID:    s.PaymentAttemptID,
		ID:                  s.ID,
		FacilitatorRequest:  string(s.FacilitatorRequest),
		FacilitatorResponse: string(s.FacilitatorResponse),
		Status:              string(s.Status),
		CreatedAt:           s.CreatedAt.UTC().Format(dynamoTimeLayout),
		UpdatedAt:           s.UpdatedAt.UTC().Format(dynamoTimeLayout),
	}
}

func fromSettlementItem(it settlementItem) entities.Settlement {
	created, _ := time.Parse(dynamoTimeLayout, it.CreatedAt)
	updated, _ := time.Parse(dynamoTimeLayout, it.UpdatedAt)
	s := entities.Settlement{
		ID:                 it.ID,
		PaymentAttemptID:   it.PaymentAttemptID,
		FacilitatorRequest: json.RawMessage(it.FacilitatorRequest),
		Status:             entities.SettlementStatus(it.Status),
		CreatedAt:          created,
		UpdatedAt:          updated,
	}
	if it.FacilitatorResponse != "" {
		s.FacilitatorResponse = json.RawMessage(it.FacilitatorResponse)
	}
	return s
}
