package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	// Student actions.
	ActionVote      Action = "vote"
	ActionMirrorAck Action = "mirror_ack"
	ActionPing      Action = "ping"

	// Teacher actions.
	ActionSelectScenario Action = "select_scenario"
	ActionReveal         Action = "reveal"
	ActionAdvance        Action = "advance"
	ActionForceAdvance   Action = "force_advance"
	ActionPause          Action = "pause"
	ActionResume         Action = "resume"
	ActionEnd            Action = "end"
)

// RequestEnvelope carries every classroom action. Fields are sparse; the
// action discriminates which ones matter.
type RequestEnvelope struct {
	Action     Action `json:"action"`
	ScenarioID string `json:"scenario_id,omitempty"` // select_scenario
	ChoiceID   string `json:"choice_id,omitempty"`   // vote, force_advance
	Epoch      int    `json:"epoch,omitempty"`       // vote
	Reflection string `json:"reflection,omitempty"`  // mirror_ack
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSnapshot Event = "snapshot"
	EventVoteAck  Event = "vote_ack"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// SnapshotResponse pushes the converged session view after every accepted
// mutation. Payload is the role-filtered coordinator snapshot.
type SnapshotResponse struct {
	Event   Event       `json:"event"`
	Payload interface{} `json:"payload"`
}

// VoteAckResponse confirms a recorded vote along with its scene epoch.
type VoteAckResponse struct {
	Event Event `json:"event"`
	Epoch int   `json:"epoch"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
