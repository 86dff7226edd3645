package model

import (
	"context"
	"time"
)

// FlowID names a multi-step conversation.
type FlowID string

const (
	FlowOnboarding        FlowID = "onboarding"
	FlowMorningCheckin    FlowID = "morningCheckin"
	FlowEveningReflection FlowID = "eveningReflection"
	FlowUpdatePlan        FlowID = "updatePlan"
)

// Answers collected so far by the active flow.
type Answers struct {
	Timezone         string  `json:"timezone,omitempty"`
	BodyBatteryStart *int    `json:"bodyBatteryStart,omitempty"`
	SleepNotes       *string `json:"sleepNotes,omitempty"`
	Mood             *string `json:"mood,omitempty"`
	Priority         *string `json:"priority,omitempty"`
	Appointments     *string `json:"appointments,omitempty"`
	Reflections      *string `json:"reflections,omitempty"`
	BodyBatteryEnd   *int    `json:"bodyBatteryEnd,omitempty"`
	NotesForTomorrow *string `json:"notesForTomorrow,omitempty"`
	PlanChange       string  `json:"planChange,omitempty"`
}

// Session is the per-user record of the active flow.
type Session struct {
	UserID    int64     `json:"userId"`
	Flow      FlowID    `json:"flow"`
	Step      int       `json:"step"`
	DateKey   string    `json:"dateKey"`
	Answers   Answers   `json:"answers"`
	StartedAt time.Time `json:"startedAt"`
}

// SessionRepository holds at most one session per user.
type SessionRepository interface {
	// Get returns nil, nil when the user has no active session.
	Get(ctx context.Context, userID int64) (*Session, error)

	// Save replaces any existing session for the user.
	Save(ctx context.Context, s *Session) error

	Delete(ctx context.Context, userID int64) error
}
