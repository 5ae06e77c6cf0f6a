package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/careloop/medreminder/pkg/logging"
)

// PrescriptionRepository persists prescriptions in the shared document store.
type PrescriptionRepository struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewPrescriptionRepository builds a repository backed by the provided DynamoDB client.
func NewPrescriptionRepository(client dynamoAPI, tableName string, logger *logging.Logger) *PrescriptionRepository {
	if client == nil {
		panic("records: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("records: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PrescriptionRepository{client: client, tableName: tableName, logger: logger}
}

// Create inserts a new prescription. The id is generated when empty.
func (r *PrescriptionRepository) Create(ctx context.Context, rx *Prescription) error {
	if rx == nil {
		return errors.New("records: prescription cannot be nil")
	}
	if rx.ID == "" {
		rx.ID = uuid.NewString()
	}
	if rx.CreatedAt == "" {
		rx.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	item, err := attributevalue.MarshalMap(rx)
	if err != nil {
		return fmt.Errorf("records: marshal prescription: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("records: put prescription: %w", err)
	}
	return nil
}

// GetByID fetches one prescription.
func (r *PrescriptionRepository) GetByID(ctx context.Context, id string) (*Prescription, error) {
	if id == "" {
		return nil, errors.New("records: prescription id required")
	}
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("records: get prescription: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var rx Prescription
	if err := attributevalue.UnmarshalMap(out.Item, &rx); err != nil {
		return nil, fmt.Errorf("records: decode prescription: %w", err)
	}
	return &rx, nil
}

// ListByPatient returns every prescription for the patient, active or not.
// Callers filter expired courses themselves; history views need them all.
func (r *PrescriptionRepository) ListByPatient(ctx context.Context, patientID string) ([]Prescription, error) {
	if patientID == "" {
		return nil, errors.New("records: patient id required")
	}
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(patientIndex),
		KeyConditionExpression: aws.String("patientId = :pid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pid": &types.AttributeValueMemberS{Value: patientID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("records: query prescriptions: %w", err)
	}

	var rxs []Prescription
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &rxs); err != nil {
		return nil, fmt.Errorf("records: decode prescriptions: %w", err)
	}
	return rxs, nil
}
