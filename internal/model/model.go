package model

import (
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindContact             Kind = "contact"
	KindGeneralRegistration Kind = "normal-registration"
	KindEventRegistration   Kind = "event-registration"
)

const (
	ContactStatusNew        = "new"
	ContactStatusInProgress = "in-progress"
	ContactStatusResolved   = "resolved"
)

type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	College   string    `json:"college"`
	Course    string    `json:"course"`
	Message   string    `json:"message"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type GeneralRegistration struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	College    string    `json:"college"`
	RollNumber string    `json:"rollNumber"`
	Year       string    `json:"year"`
	Course     string    `json:"course"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type EventRegistration struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	College     string    `json:"college"`
	RollNumber  string    `json:"rollNumber"`
	Event       string    `json:"event"`
	TeamMembers string    `json:"teamMembers,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Stats mirrors the counters shown on the admin dashboard.
type Stats struct {
	TotalContacts           int64 `json:"totalContacts"`
	TotalRegistrations      int64 `json:"totalRegistrations"`
	TotalEventRegistrations int64 `json:"totalEventRegistrations"`
	NewContacts             int64 `json:"newContacts"`
}

// FieldError reports a required field that is missing or blank.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q is required", e.Field)
}

type field struct {
	name  string
	value string
}

func requireFields(fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &FieldError{Field: f.name}
		}
	}
	return nil
}

func (m *ContactMessage) Validate() error {
	return requireFields(
		field{"name", m.Name},
		field{"email", m.Email},
		field{"college", m.College},
		field{"course", m.Course},
		field{"message", m.Message},
	)
}

func (r *GeneralRegistration) Validate() error {
	return requireFields(
		field{"name", r.Name},
		field{"email", r.Email},
		field{"phone", r.Phone},
		field{"college", r.College},
		field{"rollNumber", r.RollNumber},
		field{"year", r.Year},
		field{"course", r.Course},
	)
}

// Validate leaves TeamMembers out: solo entries register without a team.
func (r *EventRegistration) Validate() error {
	return requireFields(
		field{"name", r.Name},
		field{"email", r.Email},
		field{"phone", r.Phone},
		field{"college", r.College},
		field{"rollNumber", r.RollNumber},
		field{"event", r.Event},
	)
}
