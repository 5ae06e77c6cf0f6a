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

// VitalSignRepository persists patient-logged vital sign readings.
type VitalSignRepository struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewVitalSignRepository builds a repository backed by the provided DynamoDB client.
func NewVitalSignRepository(client dynamoAPI, tableName string, logger *logging.Logger) *VitalSignRepository {
	if client == nil {
		panic("records: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("records: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &VitalSignRepository{client: client, tableName: tableName, logger: logger}
}

// Add appends a reading. RecordedAt defaults to the current instant.
func (r *VitalSignRepository) Add(ctx context.Context, v *VitalSign) error {
	if v == nil {
		return errors.New("records: vital sign cannot be nil")
	}
	if v.PatientID == "" || v.Type == "" || v.Value == "" {
		return errors.New("records: vital sign requires patient id, type and value")
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.RecordedAt == "" {
		v.RecordedAt = time.Now().UTC().Format(time.RFC3339)
	}

	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("records: marshal vital sign: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("records: put vital sign: %w", err)
	}

	r.logger.Info("records: vital sign logged",
		"patient_id", v.PatientID,
		"type", v.Type,
	)
	return nil
}

// ListByPatient returns the patient's readings, newest first.
func (r *VitalSignRepository) ListByPatient(ctx context.Context, patientID string) ([]VitalSign, error) {
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
		return nil, fmt.Errorf("records: query vital signs: %w", err)
	}

	var vitals []VitalSign
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &vitals); err != nil {
		return nil, fmt.Errorf("records: decode vital signs: %w", err)
	}

	sort.Slice(vitals, func(i, j int) bool {
		return vitals[i].RecordedAt > vitals[j].RecordedAt
	})
	return vitals, nil
}
