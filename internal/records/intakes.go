package records

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/careloop/medreminder/pkg/logging"
)

// IntakeRepository persists intake confirmations. The collection is
// append-only: records are created exactly once and never touched again.
type IntakeRepository struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewIntakeRepository builds a repository backed by the provided DynamoDB client.
func NewIntakeRepository(client dynamoAPI, tableName string, logger *logging.Logger) *IntakeRepository {
	if client == nil {
		panic("records: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("records: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IntakeRepository{client: client, tableName: tableName, logger: logger}
}

// Add appends a confirmation. TakenAt defaults to the current instant.
func (r *IntakeRepository) Add(ctx context.Context, c *IntakeConfirmation) error {
	if c == nil {
		return errors.New("records: confirmation cannot be nil")
	}
	if c.PatientID == "" || c.PrescriptionID == "" {
		return errors.New("records: confirmation requires patient and prescription ids")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.TakenAt == "" {
		c.TakenAt = time.Now().UTC().Format(time.RFC3339)
	}

	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("records: marshal confirmation: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("records: put confirmation: %w", err)
	}

	r.logger.Info("records: intake confirmed",
		"patient_id", c.PatientID,
		"prescription_id", c.PrescriptionID,
		"medication", c.MedicationName,
	)
	return nil
}

// ListByPatient returns the patient's confirmations, newest first.
func (r *IntakeRepository) ListByPatient(ctx context.Context, patientID string) ([]IntakeConfirmation, error) {
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
		return nil, fmt.Errorf("records: query confirmations: %w", err)
	}

	var confirmations []IntakeConfirmation
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &confirmations); err != nil {
		return nil, fmt.Errorf("records: decode confirmations: %w", err)
	}

	sort.Slice(confirmations, func(i, j int) bool {
		return confirmations[i].TakenAt > confirmations[j].TakenAt
	})
	return confirmations, nil
}
