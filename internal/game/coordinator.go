package game

import (
	"sort"
	"sync"
	"time"

	"github.com/lifepath/lifepath-backend/internal/model"
)

// Actor is the identity the coordinator authorizes operations against:
// an opaque id, a role, and a display name. The coordinator never mutates
// identity; it only branches on the role value.
type Actor struct {
	ID          string
	Role        model.Role
	DisplayName string
}

// Snapshot is the converged view of a classroom session broadcast to every
// participant. Tally is withheld from non-teacher views until the teacher
// reveals it.
type Snapshot struct {
	Session      model.ClassroomSession `json:"session"`
	Scene        *model.Scene           `json:"scene,omitempty"`
	Metrics      model.Metrics          `json:"metrics"`
	Epoch        int                    `json:"epoch"`
	Revealed     bool                   `json:"revealed"`
	Tally        map[string]int         `json:"tally,omitempty"`
	VoterCount   int                    `json:"voter_count"`
	Participants []model.Participant    `json:"participants"`
	Completed    bool                   `json:"completed"`
	Mirror       *MirrorPrompt          `json:"mirror,omitempty"`
}

// Coordinator owns one classroom session's lifecycle: the shared scene
// pointer (through its engine), the vote tally, the participant roster,
// and the reveal gate. One authoritative instance exists per live session,
// on the teacher's side; students consume read-only snapshots.
//
// A single mutex serializes every operation, so an advance (resolve
// majority + apply choice + clear tally) is atomic relative to concurrent
// vote submissions, and a session that ends or pauses first makes any
// in-flight advance fail before touching state.
type Coordinator struct {
	mu           sync.Mutex
	session      model.ClassroomSession
	engine       *Engine
	votes        *VoteAggregator
	mirror       *MirrorScheduler
	participants map[string]model.Participant
	revealed     bool
}

// NewCoordinator creates a coordinator in the WAITING state for the given
// session record. mirror may be nil to disable reflection prompts.
func NewCoordinator(session model.ClassroomSession, catalog Catalog, mirror *MirrorScheduler) *Coordinator {
	if mirror == nil {
		mirror = NewMirrorScheduler(false, nil)
	}
	session.Status = model.SessionStatusWaiting
	return &Coordinator{
		session:      session,
		engine:       NewEngine(catalog),
		votes:        NewVoteAggregator(),
		mirror:       mirror,
		participants: make(map[string]model.Participant),
	}
}

// SelectScenario moves WAITING → ACTIVE: the teacher picks a scenario, the
// shared scene becomes its first scene, and the tally starts empty. Also
// permitted while ACTIVE so the teacher can restart with a new scenario.
func (c *Coordinator) SelectScenario(actor Actor, scenarioID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireTeacher(actor); err != nil {
		return err
	}
	switch c.session.Status {
	case model.SessionStatusEnded:
		return ErrSessionEnded
	case model.SessionStatusPaused:
		return ErrSessionPaused
	}

	if err := c.engine.Start(scenarioID); err != nil {
		return err
	}

	// A restart abandons any prompt still armed for the previous
	// scenario; it must not gate the new run's first advance.
	c.mirror.Dismiss("")

	scene := c.engine.Scene()
	c.session.ScenarioID = &scenarioID
	c.session.CurrentSceneID = &scene.ID
	c.session.Status = model.SessionStatusActive
	c.votes.SetScene(scene)
	c.revealed = false
	return nil
}

// SubmitVote records the participant's vote for the current scene epoch.
// Last write wins per participant. Only students on the roster may vote,
// and only while the session is ACTIVE.
func (c *Coordinator) SubmitVote(actor Actor, choiceID string, epoch int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.session.Status {
	case model.SessionStatusEnded:
		return ErrSessionEnded
	case model.SessionStatusPaused:
		return ErrSessionPaused
	case model.SessionStatusWaiting:
		return ErrInvalidChoice
	}
	if actor.Role != model.RoleStudent {
		return ErrUnauthorized
	}
	if _, ok := c.participants[actor.ID]; !ok {
		return ErrUnauthorized
	}
	return c.votes.Submit(actor.ID, choiceID, epoch)
}

// Reveal opens the tally to participant-facing views and makes the session
// eligible for majority resolution.
func (c *Coordinator) Reveal(actor Actor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireTeacher(actor); err != nil {
		return err
	}
	switch c.session.Status {
	case model.SessionStatusEnded:
		return ErrSessionEnded
	case model.SessionStatusPaused:
		return ErrSessionPaused
	case model.SessionStatusWaiting:
		return ErrInvalidChoice
	}
	c.revealed = true
	return nil
}

// Advance resolves the majority vote, applies the winning choice through
// the shared engine, clears the tally for the new scene, and drops the
// reveal gate — as one atomic unit. An empty tally fails with
// ErrNoConsensus and leaves everything untouched.
func (c *Coordinator) Advance(actor Actor) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.advancePrecheck(actor); err != nil {
		return nil, err
	}
	choiceID, err := c.votes.ResolveMajority()
	if err != nil {
		return nil, ErrNoConsensus
	}
	return c.advanceLocked(choiceID)
}

// ForceAdvance lets the teacher advance with an explicit choice when the
// class cannot reach a consensus (for example, an empty tally).
func (c *Coordinator) ForceAdvance(actor Actor, choiceID string) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.advancePrecheck(actor); err != nil {
		return nil, err
	}
	return c.advanceLocked(choiceID)
}

func (c *Coordinator) advancePrecheck(actor Actor) error {
	if err := c.requireTeacher(actor); err != nil {
		return err
	}
	switch c.session.Status {
	case model.SessionStatusEnded:
		return ErrSessionEnded
	case model.SessionStatusPaused:
		return ErrSessionPaused
	case model.SessionStatusWaiting:
		return ErrInvalidChoice
	}
	if c.mirror.Blocked() {
		return ErrMirrorPending
	}
	if !c.revealed {
		return ErrNotRevealed
	}
	return nil
}

func (c *Coordinator) advanceLocked(choiceID string) (*Snapshot, error) {
	prev := c.engine.Scene()
	next, err := c.engine.ApplyChoice(choiceID)
	if err != nil {
		return nil, err
	}

	c.session.CurrentSceneID = &next.ID
	c.votes.SetScene(next)
	c.revealed = false
	c.mirror.AfterAdvance(prev.ID, prev.MirrorPrompt)

	snap := c.snapshotLocked(model.RoleTeacher)
	return &snap, nil
}

// DismissMirror clears the pending reflection prompt. Classroom mirror
// moments are shared, so dismissal is a teacher command; the optional
// reflection text is forwarded verbatim to the scheduler's sink.
func (c *Coordinator) DismissMirror(actor Actor, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireTeacher(actor); err != nil {
		return err
	}
	if c.session.Status == model.SessionStatusEnded {
		return ErrSessionEnded
	}
	c.mirror.Dismiss(content)
	return nil
}

// Pause puts an ACTIVE session on hold: votes are frozen and rejected,
// students may still observe.
func (c *Coordinator) Pause(actor Actor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireTeacher(actor); err != nil {
		return err
	}
	switch c.session.Status {
	case model.SessionStatusEnded:
		return ErrSessionEnded
	case model.SessionStatusActive:
		c.session.Status = model.SessionStatusPaused
		return nil
	default:
		return ErrSessionPaused
	}
}

// Resume returns a PAUSED session to ACTIVE. The scene epoch is unchanged,
// so votes cast before the pause remain valid.
func (c *Coordinator) Resume(actor Actor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireTeacher(actor); err != nil {
		return err
	}
	switch c.session.Status {
	case model.SessionStatusEnded:
		return ErrSessionEnded
	case model.SessionStatusPaused:
		c.session.Status = model.SessionStatusActive
		return nil
	default:
		return nil
	}
}

// End terminates the session from any state. Terminal: every further
// mutation fails with ErrSessionEnded.
func (c *Coordinator) End(actor Actor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireTeacher(actor); err != nil {
		return err
	}
	if c.session.Status == model.SessionStatusEnded {
		return ErrSessionEnded
	}
	now := time.Now()
	c.session.Status = model.SessionStatusEnded
	c.session.EndedAt = &now
	return nil
}

// Join adds a participant to the roster. Allowed in any non-ended state.
func (c *Coordinator) Join(p model.Participant) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Status == model.SessionStatusEnded {
		return ErrSessionEnded
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now()
	}
	c.participants[p.ID] = p
	return nil
}

// Leave removes a participant. Allowed in any state — a disconnect does
// not destroy history, and any vote already cast this scene stands.
func (c *Coordinator) Leave(participantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.participants, participantID)
}

// Session returns a copy of the session record.
func (c *Coordinator) Session() model.ClassroomSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// GameState snapshots the shared engine run, for persistence on session end.
func (c *Coordinator) GameState() model.GameState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.State()
}

// SnapshotFromRecord builds the participant view of a session that has no
// live coordinator, from its durable record. Ended sessions are served
// this way so subscribers that race the coordinator's eviction still
// receive the terminal state. Tally and roster are gone with the
// coordinator; the scene is re-resolved from the catalog when the record
// still points at one.
func SnapshotFromRecord(session model.ClassroomSession, catalog Catalog) Snapshot {
	snap := Snapshot{
		Session:      session,
		Participants: []model.Participant{},
	}
	if session.ScenarioID == nil || session.CurrentSceneID == nil {
		return snap
	}
	scenario, ok := catalog.Scenario(*session.ScenarioID)
	if !ok {
		return snap
	}
	if scene, ok := scenario.Scene(*session.CurrentSceneID); ok {
		snap.Scene = scene
		snap.Completed = scene.IsEnding
	}
	return snap
}

// Snapshot builds the converged session view for the given role.
func (c *Coordinator) Snapshot(role model.Role) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(role)
}

func (c *Coordinator) snapshotLocked(role model.Role) Snapshot {
	snap := Snapshot{
		Session:    c.session,
		Scene:      c.engine.Scene(),
		Metrics:    c.engine.Metrics(),
		Epoch:      c.votes.Epoch(),
		Revealed:   c.revealed,
		VoterCount: c.votes.VoterCount(),
		Completed:  c.engine.Completed(),
		Mirror:     c.mirror.Pending(),
	}
	if role == model.RoleTeacher || c.revealed {
		snap.Tally = c.votes.Tally()
	}
	snap.Participants = make([]model.Participant, 0, len(c.participants))
	for _, p := range c.participants {
		snap.Participants = append(snap.Participants, p)
	}
	sort.Slice(snap.Participants, func(i, j int) bool {
		return snap.Participants[i].JoinedAt.Before(snap.Participants[j].JoinedAt)
	})
	return snap
}

func (c *Coordinator) requireTeacher(actor Actor) error {
	if actor.Role != model.RoleTeacher {
		return ErrUnauthorized
	}
	return nil
}
