// Package records provides typed repositories over the shared clinic
// document store. The same tables are written by the clinician dashboard,
// so several fields arrive as strings and are validated downstream.
package records

// Patient is a clinic patient able to receive reminders.
type Patient struct {
	ID        string `dynamodbav:"id" json:"id"`
	Name      string `dynamodbav:"name" json:"name"`
	Email     string `dynamodbav:"email,omitempty" json:"email,omitempty"`
	Phone     string `dynamodbav:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
}

// Medication is a catalog entry referenced by prescriptions.
type Medication struct {
	ID           string `dynamodbav:"id" json:"id"`
	Name         string `dynamodbav:"name" json:"name"`
	Instructions string `dynamodbav:"instructions,omitempty" json:"instructions,omitempty"`
	CreatedAt    string `dynamodbav:"createdAt" json:"createdAt"`
}

// Prescription is a daily medication course. StartDate is "2006-01-02",
// TimeOfDay is "15:04" clinic-local. DurationDays is stored as a string by
// the dashboard intake form; the schedule expander validates it.
type Prescription struct {
	ID           string `dynamodbav:"id" json:"id"`
	PatientID    string `dynamodbav:"patientId" json:"patientId"`
	MedicationID string `dynamodbav:"medicationId" json:"medicationId"`
	StartDate    string `dynamodbav:"startDate" json:"startDate"`
	DurationDays string `dynamodbav:"durationDays" json:"durationDays"`
	TimeOfDay    string `dynamodbav:"timeOfDay" json:"timeOfDay"`
	CreatedAt    string `dynamodbav:"createdAt" json:"createdAt"`
}

// Appointment is a single clinic visit. Date is "2006-01-02", Time is
// "15:04" clinic-local. Specialty is set on patient-requested visits.
type Appointment struct {
	ID        string `dynamodbav:"id" json:"id"`
	PatientID string `dynamodbav:"patientId" json:"patientId"`
	DoctorID  string `dynamodbav:"doctorId" json:"doctorId"`
	Specialty string `dynamodbav:"specialty,omitempty" json:"specialty,omitempty"`
	Date      string `dynamodbav:"date" json:"date"`
	Time      string `dynamodbav:"time" json:"time"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
}

// VitalSign is a reading the patient logs themselves, e.g. blood pressure
// or glucose. Value is free text ("120/80", "98.6"); RecordedAt is RFC3339.
type VitalSign struct {
	ID         string `dynamodbav:"id" json:"id"`
	PatientID  string `dynamodbav:"patientId" json:"patientId"`
	Type       string `dynamodbav:"type" json:"type"`
	Value      string `dynamodbav:"value" json:"value"`
	RecordedAt string `dynamodbav:"recordedAt" json:"recordedAt"`
}

// IntakeConfirmation records that a patient logged taking a dose.
// Append-only: confirmations are never mutated or deleted.
type IntakeConfirmation struct {
	ID             string `dynamodbav:"id" json:"id"`
	PatientID      string `dynamodbav:"patientId" json:"patientId"`
	PrescriptionID string `dynamodbav:"prescriptionId" json:"prescriptionId"`
	MedicationName string `dynamodbav:"medicationName" json:"medicationName"`
	TakenAt        string `dynamodbav:"takenAt" json:"takenAt"` // RFC3339
}
