package model

import "time"

// Reminder is a user-defined nudge tied to a car. Either threshold may be set.
// CompletedAt is written exactly once: completing an already completed
// reminder leaves it untouched.
type Reminder struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	IsActive    bool       `json:"is_active"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	DueMileage  *float64   `json:"due_mileage,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ReminderPatch is the merge-patch shape for updating a reminder.
type ReminderPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	DueMileage  *float64   `json:"due_mileage,omitempty"`
}
