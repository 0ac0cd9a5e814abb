package domain

import "time"

// NotificationType classifies a notification record.
type NotificationType string

const (
	NotificationInfo      NotificationType = "info"
	NotificationSuccess   NotificationType = "success"
	NotificationWarning   NotificationType = "warning"
	NotificationError     NotificationType = "error"
	NotificationEmergency NotificationType = "emergency"
)

// Priority orders notifications and tasks.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Notification is a structured record for the patient or staff.
// Message is a short fixed phrase; composing prose is left to the delivery side.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Priority  Priority         `json:"priority"`
	Title     string           `json:"title"`
	Message   string           `json:"message,omitempty"`
	Step      string           `json:"step,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Task IDs shared by handlers and the planner.
const (
	TaskVerifyInsurance    = "verify_insurance"
	TaskCompleteForms      = "complete_forms"
	TaskPayCopay           = "pay_copay"
	TaskVisitQuestions     = "visit_questions"
	TaskPostVisitSetup     = "post_visit_tasks"
	TaskPickUpPrescription = "pick_up_prescription"
	TaskLabWork            = "lab_work"
	TaskSettleBill         = "settle_bill"
	TaskScheduleFollowUp   = "schedule_follow_up"
)

// Task is something the patient still has to do.
type Task struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Priority Priority `json:"priority"`
}

// AuditEntry records an inbound event and the steps it produced.
type AuditEntry struct {
	Kind      EventKind `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	Steps     []string  `json:"steps"`
	Timestamp time.Time `json:"timestamp"`
}

// PatientInfo is supplied when a session is initialised.
type PatientInfo struct {
	PatientID         string    `json:"patient_id"`
	HospitalID        string    `json:"hospital_id"`
	Name              string    `json:"name,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	Email             string    `json:"email,omitempty"`
	AppointmentID     string    `json:"appointment_id,omitempty"`
	AppointmentTime   time.Time `json:"appointment_time,omitempty"`
	Department        string    `json:"department,omitempty"`
	DoctorID          string    `json:"doctor_id,omitempty"`
	InsuranceProvider string    `json:"insurance_provider,omitempty"`
	HasPrescriptions  bool      `json:"has_prescriptions,omitempty"`
	HasLabOrders      bool      `json:"has_lab_orders,omitempty"`
	InitialArea       Area      `json:"initial_area,omitempty"`
}

// SessionSummary is the listing view of a session.
type SessionSummary struct {
	SessionID       string    `json:"session_id"`
	PatientID       string    `json:"patient_id"`
	Stage           Stage     `json:"stage"`
	EmergencyActive bool      `json:"emergency_active"`
	LastUpdated     time.Time `json:"last_updated"`
}
