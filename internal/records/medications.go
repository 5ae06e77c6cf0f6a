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

// MedicationRepository persists the medication catalog.
type MedicationRepository struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewMedicationRepository builds a repository backed by the provided DynamoDB client.
func NewMedicationRepository(client dynamoAPI, tableName string, logger *logging.Logger) *MedicationRepository {
	if client == nil {
		panic("records: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("records: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MedicationRepository{client: client, tableName: tableName, logger: logger}
}

// Create inserts a new medication. The id is generated when empty.
func (r *MedicationRepository) Create(ctx context.Context, med *Medication) error {
	if med == nil {
		return errors.New("records: medication cannot be nil")
	}
	if med.Name == "" {
		return errors.New("records: medication name required")
	}
	if med.ID == "" {
		med.ID = uuid.NewString()
	}
	if med.CreatedAt == "" {
		med.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	item, err := attributevalue.MarshalMap(med)
	if err != nil {
		return fmt.Errorf("records: marshal medication: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("records: put medication: %w", err)
	}
	return nil
}

// GetByID fetches one medication. Returns ErrNotFound for unknown ids.
func (r *MedicationRepository) GetByID(ctx context.Context, id string) (*Medication, error) {
	if id == "" {
		return nil, errors.New("records: medication id required")
	}
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("records: get medication: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var med Medication
	if err := attributevalue.UnmarshalMap(out.Item, &med); err != nil {
		return nil, fmt.Errorf("records: decode medication: %w", err)
	}
	return &med, nil
}

// List returns the full medication catalog.
func (r *MedicationRepository) List(ctx context.Context) ([]Medication, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, fmt.Errorf("records: scan medications: %w", err)
	}

	var meds []Medication
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &meds); err != nil {
		return nil, fmt.Errorf("records: decode medications: %w", err)
	}
	return meds, nil
}
