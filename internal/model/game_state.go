package model

import "time"

// GameStatus enumerates the lifecycle of a single scenario run.
type GameStatus string

const (
	GameStatusIdle     GameStatus = "IDLE"
	GameStatusActive   GameStatus = "ACTIVE"
	GameStatusComplete GameStatus = "COMPLETE"
)

// HistoryEntry records one choice made during a run. MetricChanges holds the
// exact delta map applied, not the post-mutation totals, so a run can be
// replayed deterministically.
type HistoryEntry struct {
	SceneID       string      `json:"scene_id"`
	ChoiceID      string      `json:"choice_id"`
	MetricChanges MetricDelta `json:"metric_changes"`
}

// GameState is the per-player, per-run snapshot: current position in the
// scene graph, accumulated metrics, and the append-only history log.
type GameState struct {
	ScenarioID string         `json:"scenario_id"`
	SceneID    string         `json:"scene_id"`
	Metrics    Metrics        `json:"metrics"`
	History    []HistoryEntry `json:"history"`
	Status     GameStatus     `json:"status"`
	StartedAt  time.Time      `json:"started_at,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at,omitempty"`
}

// CompletedRun is the persisted record of a finished scenario run.
type CompletedRun struct {
	ID          int            `json:"id"`
	PlayerID    string         `json:"player_id"`
	ScenarioID  string         `json:"scenario_id"`
	FinalScene  string         `json:"final_scene"`
	Metrics     Metrics        `json:"metrics"`
	History     []HistoryEntry `json:"history"`
	CompletedAt time.Time      `json:"completed_at"`
}

// Reflection is a mirror-moment dismissal persisted verbatim.
type Reflection struct {
	ID        int       `json:"id"`
	PlayerID  string    `json:"player_id"`
	SceneID   string    `json:"scene_id"`
	Prompt    string    `json:"prompt"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
