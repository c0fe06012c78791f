package chat

import (
	"time"

	"github.com/google/uuid"

	"lab-report-ai/internal/i18n"
)

// State of a chat session.
type State string

const (
	StateIdle         State = "idle"
	StateAwaiting     State = "awaiting_ai_response"
	StateFlowActive   State = "flow_active"
	StateFlowComplete State = "flow_complete"
)

type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

type CardKind string

const (
	CardBooking         CardKind = "booking"
	CardLabBooking      CardKind = "lab_booking"
	CardHospitals       CardKind = "hospitals"
	CardConfirmation    CardKind = "confirmation"
	CardLabConfirmation CardKind = "lab_confirmation"
)

type BookingDetails struct {
	Doctor    string `json:"doctor"`
	Specialty string `json:"specialty"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

type LabDetails struct {
	PatientName string `json:"patientName"`
	ScanType    string `json:"scanType"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

// Card is the structured attachment of an agent message.
type Card struct {
	Kind      CardKind        `json:"kind"`
	Booking   *BookingDetails `json:"booking,omitempty"`
	Lab       *LabDetails     `json:"lab,omitempty"`
	Hospitals []Hospital      `json:"hospitals,omitempty"`
}

// Pending reports whether the card still waits for a flow to finish.
func (c *Card) Pending() bool {
	return c != nil && (c.Kind == CardBooking || c.Kind == CardLabBooking)
}

// Confirm switches a pending card to its confirmed form in place.
func (c *Card) Confirm(f *Flow) error {
	switch {
	case c.Kind == CardBooking && f.Kind == FlowBooking:
		c.Kind = CardConfirmation
		c.Booking = &BookingDetails{Doctor: f.Doctor, Specialty: f.Specialty, Date: f.Date, Time: f.Time}
	case c.Kind == CardLabBooking && f.Kind == FlowLab:
		c.Kind = CardLabConfirmation
		c.Lab = &LabDetails{PatientName: f.PatientName, ScanType: f.ScanType, Date: f.Date, Time: f.Time}
	default:
		return errCardMismatch
	}
	return nil
}

type Message struct {
	ID        uuid.UUID `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Card      *Card     `json:"card,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Turn is one entry of the dialogue history sent to the model.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

const (
	RoleUser  = "user"
	RoleModel = "model"
)

type Session struct {
	ID       uuid.UUID     `json:"id"`
	Owner    string        `json:"-"`
	Language i18n.Language `json:"language"`
	State    State         `json:"state"`
	Messages []Message     `json:"messages"`
	History  []Turn        `json:"-"`
	Flow     *Flow         `json:"flow,omitempty"`
	// Epoch changes on every reset; timers armed before a reset are dropped.
	Epoch     int       `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Session) message(id uuid.UUID) *Message {
	for i := range s.Messages {
		if s.Messages[i].ID == id {
			return &s.Messages[i]
		}
	}
	return nil
}

// restingState is where a session settles once nothing is in flight.
func (s *Session) restingState() State {
	if s.Flow != nil {
		return StateFlowActive
	}
	return StateIdle
}

// Appointment is a confirmed booking, doctor visit or lab test.
type Appointment struct {
	ID          uuid.UUID `json:"id"`
	SessionID   uuid.UUID `json:"sessionId"`
	Owner       string    `json:"-"`
	Kind        FlowKind  `json:"kind"`
	Doctor      string    `json:"doctor,omitempty"`
	Specialty   string    `json:"specialty,omitempty"`
	PatientName string    `json:"patientName,omitempty"`
	ScanType    string    `json:"scanType,omitempty"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	CreatedAt   time.Time `json:"createdAt"`
}
