package game

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lifepath/lifepath-backend/internal/model"
)

var (
	teacherActor = Actor{ID: "t1", Role: model.RoleTeacher, DisplayName: "Ms. Reyes"}
	studentActor = Actor{ID: "p1", Role: model.RoleStudent, DisplayName: "Ana"}
)

func newTestCoordinator(t *testing.T, mirror *MirrorScheduler) *Coordinator {
	t.Helper()
	c := NewCoordinator(model.ClassroomSession{
		ID:        uuid.New(),
		JoinCode:  "ABC123",
		Name:      "Period 3",
		TeacherID: 1,
	}, newTestCatalog(), mirror)
	if err := c.Join(model.Participant{ID: "p1", DisplayName: "Ana"}); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := c.Join(model.Participant{ID: "p2", DisplayName: "Ben"}); err != nil {
		t.Fatalf("Join: %v", err)
	}
	return c
}

func activate(t *testing.T, c *Coordinator) {
	t.Helper()
	if err := c.SelectScenario(teacherActor, "s1"); err != nil {
		t.Fatalf("SelectScenario: %v", err)
	}
}

func TestCoordinatorSelectScenarioRequiresTeacher(t *testing.T) {
	c := newTestCoordinator(t, nil)
	if err := c.SelectScenario(studentActor, "s1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("student SelectScenario = %v, want ErrUnauthorized", err)
	}
	if c.Session().Status != model.SessionStatusWaiting {
		t.Error("session left WAITING after rejected command")
	}
}

func TestCoordinatorVoteLifecycle(t *testing.T) {
	c := newTestCoordinator(t, nil)
	activate(t, c)

	epoch := c.Snapshot(model.RoleTeacher).Epoch
	if err := c.SubmitVote(Actor{ID: "p1", Role: model.RoleStudent}, "a", epoch); err != nil {
		t.Fatalf("vote p1: %v", err)
	}
	if err := c.SubmitVote(Actor{ID: "p2", Role: model.RoleStudent}, "a", epoch); err != nil {
		t.Fatalf("vote p2: %v", err)
	}

	// Tally is withheld from students until the teacher reveals.
	if snap := c.Snapshot(model.RoleStudent); snap.Tally != nil {
		t.Errorf("student snapshot exposes tally before reveal: %v", snap.Tally)
	}
	if snap := c.Snapshot(model.RoleTeacher); snap.Tally["a"] != 2 {
		t.Errorf("teacher tally = %v, want a:2", snap.Tally)
	}

	if err := c.Reveal(teacherActor); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if snap := c.Snapshot(model.RoleStudent); snap.Tally["a"] != 2 {
		t.Errorf("revealed student tally = %v, want a:2", snap.Tally)
	}

	snap, err := c.Advance(teacherActor)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if snap.Scene.ID != "mid" {
		t.Errorf("advanced to %q, want mid", snap.Scene.ID)
	}
	if snap.Revealed {
		t.Error("reveal gate not dropped after advance")
	}
	if len(snap.Tally) != 0 {
		t.Errorf("tally not cleared after advance: %v", snap.Tally)
	}
	if !snap.Completed {
		t.Error("terminal scene did not complete the shared run")
	}

	// A vote for the prior scene epoch is rejected post-advance.
	if err := c.SubmitVote(Actor{ID: "p1", Role: model.RoleStudent}, "a", epoch); !errors.Is(err, ErrStaleVote) {
		t.Fatalf("stale vote = %v, want ErrStaleVote", err)
	}
}

func TestCoordinatorAdvanceGates(t *testing.T) {
	c := newTestCoordinator(t, nil)
	activate(t, c)
	epoch := c.Snapshot(model.RoleTeacher).Epoch

	if _, err := c.Advance(teacherActor); !errors.Is(err, ErrNotRevealed) {
		t.Fatalf("Advance before reveal = %v, want ErrNotRevealed", err)
	}

	if err := c.Reveal(teacherActor); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if _, err := c.Advance(teacherActor); !errors.Is(err, ErrNoConsensus) {
		t.Fatalf("Advance on empty tally = %v, want ErrNoConsensus", err)
	}
	if c.Session().CurrentSceneID == nil || *c.Session().CurrentSceneID != "start" {
		t.Error("failed advance moved the shared scene")
	}

	// The teacher may force a default instead of waiting.
	snap, err := c.ForceAdvance(teacherActor, "b")
	if err != nil {
		t.Fatalf("ForceAdvance: %v", err)
	}
	if snap.Scene.ID != "study" {
		t.Errorf("forced advance to %q, want study", snap.Scene.ID)
	}
	_ = epoch
}

func TestCoordinatorPauseFreezesVotes(t *testing.T) {
	c := newTestCoordinator(t, nil)
	activate(t, c)
	epoch := c.Snapshot(model.RoleTeacher).Epoch

	if err := c.Pause(teacherActor); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := c.SubmitVote(Actor{ID: "p1", Role: model.RoleStudent}, "a", epoch); !errors.Is(err, ErrSessionPaused) {
		t.Fatalf("vote while paused = %v, want ErrSessionPaused", err)
	}

	if err := c.Resume(teacherActor); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	// Same scene epoch: votes are re-admitted after resume.
	if err := c.SubmitVote(Actor{ID: "p1", Role: model.RoleStudent}, "a", epoch); err != nil {
		t.Fatalf("vote after resume: %v", err)
	}
}

func TestCoordinatorEndedIsTerminal(t *testing.T) {
	c := newTestCoordinator(t, nil)
	activate(t, c)
	epoch := c.Snapshot(model.RoleTeacher).Epoch

	if err := c.End(teacherActor); err != nil {
		t.Fatalf("End: %v", err)
	}

	before := c.Snapshot(model.RoleTeacher)

	if err := c.SubmitVote(Actor{ID: "p1", Role: model.RoleStudent}, "a", epoch); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("vote after end = %v, want ErrSessionEnded", err)
	}
	if _, err := c.Advance(teacherActor); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("advance after end = %v, want ErrSessionEnded", err)
	}
	if err := c.SelectScenario(teacherActor, "s1"); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("select after end = %v, want ErrSessionEnded", err)
	}
	if err := c.Join(model.Participant{ID: "p9"}); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("join after end = %v, want ErrSessionEnded", err)
	}

	after := c.Snapshot(model.RoleTeacher)
	if before.Epoch != after.Epoch || before.Metrics != after.Metrics || len(before.Participants) != len(after.Participants) {
		t.Error("rejected operations mutated ended session")
	}

	// Removal stays allowed in any state.
	c.Leave("p1")
	if got := len(c.Snapshot(model.RoleTeacher).Participants); got != 1 {
		t.Errorf("participants after leave = %d, want 1", got)
	}
}

func TestCoordinatorMirrorGatesAdvance(t *testing.T) {
	var mu sync.Mutex
	var sunk []string
	sink := func(sceneID, prompt, content string) {
		mu.Lock()
		defer mu.Unlock()
		sunk = append(sunk, content)
	}

	c := newTestCoordinator(t, NewMirrorScheduler(true, sink))
	activate(t, c)
	epoch := c.Snapshot(model.RoleTeacher).Epoch

	c.SubmitVote(Actor{ID: "p1", Role: model.RoleStudent}, "b", epoch)
	c.Reveal(teacherActor)
	snap, err := c.Advance(teacherActor)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if snap.Mirror == nil {
		t.Fatal("no mirror prompt after advance with scheduler enabled")
	}

	c.Reveal(teacherActor)
	if _, err := c.Advance(teacherActor); !errors.Is(err, ErrMirrorPending) {
		t.Fatalf("Advance with pending mirror = %v, want ErrMirrorPending", err)
	}

	if err := c.DismissMirror(teacherActor, "we talked it over"); err != nil {
		t.Fatalf("DismissMirror: %v", err)
	}
	mu.Lock()
	got := len(sunk)
	mu.Unlock()
	if got != 1 || sunk[0] != "we talked it over" {
		t.Errorf("sink received %v, want the dismissal text", sunk)
	}

	epoch = c.Snapshot(model.RoleTeacher).Epoch
	c.SubmitVote(Actor{ID: "p1", Role: model.RoleStudent}, "c", epoch)
	if _, err := c.Advance(teacherActor); err != nil {
		t.Fatalf("Advance after dismissal: %v", err)
	}
}

func TestCoordinatorConcurrentVotesAndAdvance(t *testing.T) {
	c := newTestCoordinator(t, nil)
	for i := 3; i <= 40; i++ {
		c.Join(model.Participant{ID: fmt.Sprintf("p%d", i)})
	}
	activate(t, c)
	epoch := c.Snapshot(model.RoleTeacher).Epoch

	c.SubmitVote(Actor{ID: "p1", Role: model.RoleStudent}, "a", epoch)
	c.Reveal(teacherActor)

	var wg sync.WaitGroup
	for i := 2; i <= 40; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			// Votes race the advance: each either lands in the old epoch
			// or is rejected as stale. Neither corrupts the next tally.
			_ = c.SubmitVote(Actor{ID: id, Role: model.RoleStudent}, "a", epoch)
		}(fmt.Sprintf("p%d", i))
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := c.Advance(teacherActor); err != nil {
			t.Errorf("Advance: %v", err)
		}
	}()
	wg.Wait()

	snap := c.Snapshot(model.RoleTeacher)
	if snap.Scene.ID != "mid" {
		t.Errorf("scene after race = %q, want mid", snap.Scene.ID)
	}
	if snap.VoterCount != 0 {
		t.Errorf("votes from the resolved epoch leaked: count = %d", snap.VoterCount)
	}
}

func TestCoordinatorSelectScenarioClearsPendingMirror(t *testing.T) {
	var mu sync.Mutex
	var sunk []string
	sink := func(sceneID, prompt, content string) {
		mu.Lock()
		defer mu.Unlock()
		sunk = append(sunk, content)
	}

	c := newTestCoordinator(t, NewMirrorScheduler(true, sink))
	activate(t, c)
	epoch := c.Snapshot(model.RoleTeacher).Epoch

	c.SubmitVote(Actor{ID: "p1", Role: model.RoleStudent}, "b", epoch)
	c.Reveal(teacherActor)
	snap, err := c.Advance(teacherActor)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if snap.Mirror == nil {
		t.Fatal("no mirror prompt after advance with scheduler enabled")
	}

	// Restarting the scenario discards the prompt silently.
	if err := c.SelectScenario(teacherActor, "s1"); err != nil {
		t.Fatalf("SelectScenario restart: %v", err)
	}
	if snap := c.Snapshot(model.RoleTeacher); snap.Mirror != nil {
		t.Fatalf("restart kept the stale mirror prompt: %v", snap.Mirror)
	}
	mu.Lock()
	got := len(sunk)
	mu.Unlock()
	if got != 0 {
		t.Errorf("discarded prompt reached the sink: %v", sunk)
	}

	// The new run's first advance must not be gated by the old prompt.
	epoch = c.Snapshot(model.RoleTeacher).Epoch
	c.SubmitVote(Actor{ID: "p1", Role: model.RoleStudent}, "a", epoch)
	c.Reveal(teacherActor)
	if _, err := c.Advance(teacherActor); err != nil {
		t.Fatalf("first advance after restart: %v", err)
	}
}

func TestSnapshotFromRecordServesEndedSession(t *testing.T) {
	scenarioID := "s1"
	sceneID := "mid"
	now := time.Now()
	record := model.ClassroomSession{
		ID:             uuid.New(),
		JoinCode:       "ABC123",
		Name:           "Period 3",
		TeacherID:      1,
		ScenarioID:     &scenarioID,
		CurrentSceneID: &sceneID,
		Status:         model.SessionStatusEnded,
		EndedAt:        &now,
	}

	snap := SnapshotFromRecord(record, newTestCatalog())
	if snap.Session.Status != model.SessionStatusEnded {
		t.Errorf("status = %q, want ENDED", snap.Session.Status)
	}
	if snap.Scene == nil || snap.Scene.ID != "mid" {
		t.Errorf("scene = %v, want mid resolved from the catalog", snap.Scene)
	}
	if !snap.Completed {
		t.Error("terminal scene not reported as completed")
	}
	if snap.Tally != nil {
		t.Errorf("record snapshot carries a tally: %v", snap.Tally)
	}
	if snap.Participants == nil {
		t.Error("participants should be an empty slice, not nil")
	}
}

func TestSnapshotFromRecordUnknownScenario(t *testing.T) {
	scenarioID := "gone"
	sceneID := "start"
	record := model.ClassroomSession{
		ID:             uuid.New(),
		ScenarioID:     &scenarioID,
		CurrentSceneID: &sceneID,
		Status:         model.SessionStatusEnded,
	}

	snap := SnapshotFromRecord(record, newTestCatalog())
	if snap.Scene != nil {
		t.Errorf("scene resolved for a scenario the catalog no longer has: %v", snap.Scene)
	}
	if snap.Session.Status != model.SessionStatusEnded {
		t.Errorf("status = %q, want ENDED", snap.Session.Status)
	}
}
