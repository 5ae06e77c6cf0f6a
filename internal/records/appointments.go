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

// AppointmentRepository persists appointments in the shared document store.
type AppointmentRepository struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewAppointmentRepository builds a repository backed by the provided DynamoDB client.
func NewAppointmentRepository(client dynamoAPI, tableName string, logger *logging.Logger) *AppointmentRepository {
	if client == nil {
		panic("records: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("records: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentRepository{client: client, tableName: tableName, logger: logger}
}

// Create inserts a new appointment. The id is generated when empty.
func (r *AppointmentRepository) Create(ctx context.Context, appt *Appointment) error {
	if appt == nil {
		return errors.New("records: appointment cannot be nil")
	}
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.CreatedAt == "" {
		appt.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	item, err := attributevalue.MarshalMap(appt)
	if err != nil {
		return fmt.Errorf("records: marshal appointment: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("records: put appointment: %w", err)
	}
	return nil
}

// ListByPatient returns every appointment for the patient.
func (r *AppointmentRepository) ListByPatient(ctx context.Context, patientID string) ([]Appointment, error) {
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
		return nil, fmt.Errorf("records: query appointments: %w", err)
	}

	var appts []Appointment
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &appts); err != nil {
		return nil, fmt.Errorf("records: decode appointments: %w", err)
	}
	return appts, nil
}
