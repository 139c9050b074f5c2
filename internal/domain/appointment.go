package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AppointmentStatus enumerates scheduling states.
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "SCHEDULED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
)

// Appointment is a scheduled time window for working a ticket, optionally
// on-site. Completing an on-site appointment bills displacement at the rate
// of the client's contract when that contract marks displacement billable.
type Appointment struct {
	ID                 string
	TicketID           string
	StaffID            string
	ScheduledStart     time.Time
	ScheduledEnd       time.Time
	Status             AppointmentStatus
	WorkedMinutes      int
	OnSite             bool
	DisplacementCharge decimal.Decimal
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
