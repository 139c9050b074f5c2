package dto

import "time"

// ScheduleAppointmentRequest books a visit on a ticket.
type ScheduleAppointmentRequest struct {
	StaffID        string    `json:"staff_id"`
	ScheduledStart time.Time `json:"scheduled_start"`
	ScheduledEnd   time.Time `json:"scheduled_end"`
	OnSite         bool      `json:"on_site"`
	Notes          string    `json:"notes"`
}

// CompleteAppointmentRequest records the worked time.
type CompleteAppointmentRequest struct {
	WorkedMinutes int    `json:"worked_minutes"`
	Notes         string `json:"notes"`
}

// AppointmentResponse payload.
type AppointmentResponse struct {
	ID                 string    `json:"id"`
	TicketID           string    `json:"ticket_id"`
	StaffID            string    `json:"staff_id"`
	ScheduledStart     time.Time `json:"scheduled_start"`
	ScheduledEnd       time.Time `json:"scheduled_end"`
	Status             string    `json:"status"`
	WorkedMinutes      int       `json:"worked_minutes"`
	OnSite             bool      `json:"on_site"`
	DisplacementCharge string    `json:"displacement_charge"`
	Notes              string    `json:"notes,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}
