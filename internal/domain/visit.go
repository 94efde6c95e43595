package domain

import (
	"errors"
	"time"
)

// VisitStatus enumerates the visit sub-machine states.
type VisitStatus string

const (
	VisitStatusScheduled  VisitStatus = "SCHEDULED"
	VisitStatusInProgress VisitStatus = "IN_PROGRESS"
	VisitStatusCompleted  VisitStatus = "COMPLETED"
	VisitStatusCancelled  VisitStatus = "CANCELLED"
)

var (
	ErrVisitNotFound      = errors.New("visit not found")
	ErrVisitNotScheduled  = errors.New("visit is not scheduled")
	ErrVisitNotInProgress = errors.New("visit is not in progress")
	ErrVisitClosed        = errors.New("visit is already closed")
)

// Visit is one on-site engagement. The timer fields are written by Start and
// Stop only.
type Visit struct {
	ID              string      `json:"id"`
	Number          int         `json:"number"`
	TechnicianID    string      `json:"technician_id"`
	TechnicianName  string      `json:"technician_name,omitempty"`
	ScheduledStart  time.Time   `json:"scheduled_start"`
	ScheduledEnd    *time.Time  `json:"scheduled_end,omitempty"`
	Status          VisitStatus `json:"status"`
	StartTime       *time.Time  `json:"start_time,omitempty"`
	EndTime         *time.Time  `json:"end_time,omitempty"`
	DurationMinutes *int        `json:"duration_minutes,omitempty"`
	Diagnosis       *string     `json:"diagnosis,omitempty"`
	WorkPerformed   *string     `json:"work_performed,omitempty"`
	Notes           *string     `json:"notes,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// VisitDetails holds the editable, non-timer fields of a visit.
type VisitDetails struct {
	Diagnosis     *string
	WorkPerformed *string
	Notes         *string
}

// IsOpen reports whether the visit can still change status.
func (v *Visit) IsOpen() bool {
	return v.Status == VisitStatusScheduled || v.Status == VisitStatusInProgress
}

// Start begins the visit timer.
func (v *Visit) Start(at time.Time) error {
	if v.Status != VisitStatusScheduled {
		return ErrVisitNotScheduled
	}
	v.Status = VisitStatusInProgress
	v.StartTime = &at
	return nil
}

// Stop ends the visit timer and records the duration in whole minutes.
func (v *Visit) Stop(at time.Time) error {
	if v.Status != VisitStatusInProgress || v.StartTime == nil {
		return ErrVisitNotInProgress
	}
	if at.Before(*v.StartTime) {
		at = *v.StartTime
	}
	minutes := int(at.Sub(*v.StartTime) / time.Minute)
	v.Status = VisitStatusCompleted
	v.EndTime = &at
	v.DurationMinutes = &minutes
	return nil
}

// Cancel closes an open visit without touching its timer.
func (v *Visit) Cancel() error {
	if !v.IsOpen() {
		return ErrVisitClosed
	}
	v.Status = VisitStatusCancelled
	return nil
}

// ApplyDetails updates the descriptive fields of an open or completed visit.
func (v *Visit) ApplyDetails(details VisitDetails) error {
	if v.Status == VisitStatusCancelled {
		return ErrVisitClosed
	}
	if details.Diagnosis != nil {
		v.Diagnosis = clonePtr(details.Diagnosis)
	}
	if details.WorkPerformed != nil {
		v.WorkPerformed = clonePtr(details.WorkPerformed)
	}
	if details.Notes != nil {
		v.Notes = clonePtr(details.Notes)
	}
	return nil
}

func (v Visit) clone() Visit {
	v.ScheduledEnd = clonePtr(v.ScheduledEnd)
	v.StartTime = clonePtr(v.StartTime)
	v.EndTime = clonePtr(v.EndTime)
	v.DurationMinutes = clonePtr(v.DurationMinutes)
	v.Diagnosis = clonePtr(v.Diagnosis)
	v.WorkPerformed = clonePtr(v.WorkPerformed)
	v.Notes = clonePtr(v.Notes)
	return v
}
