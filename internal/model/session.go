package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the identity role consumed by the core. Authorization policy
// itself lives at the edge; the core only branches on this value.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleGuest   Role = "guest"
)

// SessionStatus enumerates classroom session states.
type SessionStatus string

const (
	SessionStatusWaiting SessionStatus = "WAITING"
	SessionStatusActive  SessionStatus = "ACTIVE"
	SessionStatusPaused  SessionStatus = "PAUSED"
	SessionStatusEnded   SessionStatus = "ENDED"
)

// ClassroomSession is a classroom-synchronized shared playthrough: one
// teacher, many student participants. The teacher's coordinator instance is
// authoritative; students hold read-mostly mirrors.
type ClassroomSession struct {
	ID             uuid.UUID     `json:"id"`
	JoinCode       string        `json:"join_code"`
	Name           string        `json:"name"`
	TeacherID      int           `json:"teacher_id"`
	ScenarioID     *string       `json:"scenario_id,omitempty"`
	CurrentSceneID *string       `json:"current_scene_id,omitempty"`
	Status         SessionStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	EndedAt        *time.Time    `json:"ended_at,omitempty"`
}

// Participant is one member of a classroom session's roster.
type Participant struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
}

// CreateSessionRequest is the payload for a teacher creating a session.
type CreateSessionRequest struct {
	Name string `json:"name" binding:"required,min=3,max=120"`
}

// JoinSessionRequest is the payload for a student joining by code.
type JoinSessionRequest struct {
	JoinCode string `json:"join_code" binding:"required,len=6"`
}

// SelectScenarioRequest is the payload for the teacher picking a scenario.
type SelectScenarioRequest struct {
	ScenarioID string `json:"scenario_id" binding:"required,min=1,max=64"`
}
