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

// PatientRepository persists patient records.
type PatientRepository struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewPatientRepository builds a repository backed by the provided DynamoDB client.
func NewPatientRepository(client dynamoAPI, tableName string, logger *logging.Logger) *PatientRepository {
	if client == nil {
		panic("records: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("records: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PatientRepository{client: client, tableName: tableName, logger: logger}
}

// Create inserts a new patient. The id is generated when empty.
func (r *PatientRepository) Create(ctx context.Context, p *Patient) error {
	if p == nil {
		return errors.New("records: patient cannot be nil")
	}
	if p.Name == "" {
		return errors.New("records: patient name required")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt == "" {
		p.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("records: marshal patient: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("records: put patient: %w", err)
	}
	return nil
}

// GetByID fetches one patient. Returns ErrNotFound for unknown ids.
func (r *PatientRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	if id == "" {
		return nil, errors.New("records: patient id required")
	}
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("records: get patient: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var p Patient
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("records: decode patient: %w", err)
	}
	return &p, nil
}

// List returns every registered patient.
func (r *PatientRepository) List(ctx context.Context) ([]Patient, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, fmt.Errorf("records: scan patients: %w", err)
	}

	var patients []Patient
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &patients); err != nil {
		return nil, fmt.Errorf("records: decode patients: %w", err)
	}
	return patients, nil
}
