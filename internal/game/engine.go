package game

import (
	"time"

	"github.com/lifepath/lifepath-backend/internal/model"
)

// Catalog is the read-only scenario provider the engine resolves ids
// against. Loaded once at startup; never written through this interface.
type Catalog interface {
	Scenario(id string) (*model.Scenario, bool)
	Scenarios() []*model.Scenario
}

// Engine drives one player's traversal of one scenario's scene graph:
// metric accumulation, completion detection, and the append-only history
// log. It is single-owner state — the caller serializes access.
type Engine struct {
	catalog  Catalog
	scenario *model.Scenario
	scene    *model.Scene
	metrics  model.Metrics
	history  []model.HistoryEntry
	status   model.GameStatus
	started  time.Time
}

// NewEngine creates an idle engine bound to a scenario catalog.
func NewEngine(catalog Catalog) *Engine {
	return &Engine{
		catalog: catalog,
		status:  model.GameStatusIdle,
	}
}

// Start begins a fresh run of the given scenario: metrics reset to the
// scenario baseline, current scene set to the first scene, history cleared.
// Returns ErrNotFound if the catalog has no such scenario.
func (e *Engine) Start(scenarioID string) error {
	scenario, ok := e.catalog.Scenario(scenarioID)
	if !ok {
		return ErrNotFound
	}
	first, ok := scenario.FirstScene()
	if !ok {
		return ErrNotFound
	}

	e.scenario = scenario
	e.scene = first
	e.metrics = scenario.InitialMetrics
	e.history = nil
	e.status = model.GameStatusActive
	e.started = time.Now()
	return nil
}

// ApplyChoice applies the identified choice from the current scene: each
// metric delta is added (no clamping), a history entry is appended with the
// exact delta map, and the current scene advances to the choice's target.
// Reaching a terminal scene moves the run to COMPLETE but keeps the final
// scene in place for display.
//
// Validation happens before any mutation, so a rejected call leaves the
// run untouched.
func (e *Engine) ApplyChoice(choiceID string) (*model.Scene, error) {
	if e.status != model.GameStatusActive || e.scene == nil || e.scene.IsEnding {
		return nil, ErrInvalidChoice
	}

	choice, ok := e.scene.Choice(choiceID)
	if !ok {
		return nil, ErrInvalidChoice
	}
	next, ok := e.scenario.Scene(choice.NextSceneID)
	if !ok {
		// Catalog validation makes this unreachable for loaded scenarios.
		return nil, ErrNotFound
	}

	e.metrics.Apply(choice.Effects)
	e.history = append(e.history, model.HistoryEntry{
		SceneID:       e.scene.ID,
		ChoiceID:      choice.ID,
		MetricChanges: cloneDelta(choice.Effects),
	})
	e.scene = next

	if next.IsEnding {
		e.status = model.GameStatusComplete
	}
	return next, nil
}

// Reset clears the run back to an inactive, empty state. Idempotent.
func (e *Engine) Reset() {
	e.scenario = nil
	e.scene = nil
	e.metrics = model.Metrics{}
	e.history = nil
	e.status = model.GameStatusIdle
	e.started = time.Time{}
}

// Active reports whether a run is in progress.
func (e *Engine) Active() bool { return e.status == model.GameStatusActive }

// Completed reports whether the run reached a terminal scene.
func (e *Engine) Completed() bool { return e.status == model.GameStatusComplete }

// Scenario returns the scenario of the current run, or nil when idle.
func (e *Engine) Scenario() *model.Scenario { return e.scenario }

// Scene returns the current scene, or nil when idle.
func (e *Engine) Scene() *model.Scene { return e.scene }

// Metrics returns the current metric totals.
func (e *Engine) Metrics() model.Metrics { return e.metrics }

// State snapshots the run for serialization. The returned value shares no
// mutable state with the engine.
func (e *Engine) State() model.GameState {
	st := model.GameState{
		Metrics:   e.metrics,
		Status:    e.status,
		StartedAt: e.started,
		UpdatedAt: time.Now(),
	}
	if e.scenario != nil {
		st.ScenarioID = e.scenario.ID
	}
	if e.scene != nil {
		st.SceneID = e.scene.ID
	}
	st.History = make([]model.HistoryEntry, len(e.history))
	copy(st.History, e.history)
	return st
}

// Restore rebuilds the engine from a snapshot previously produced by State.
// Returns ErrNotFound if the snapshot references a scenario or scene the
// catalog no longer has.
func (e *Engine) Restore(st model.GameState) error {
	if st.Status == model.GameStatusIdle {
		e.Reset()
		return nil
	}

	scenario, ok := e.catalog.Scenario(st.ScenarioID)
	if !ok {
		return ErrNotFound
	}
	scene, ok := scenario.Scene(st.SceneID)
	if !ok {
		return ErrNotFound
	}

	e.scenario = scenario
	e.scene = scene
	e.metrics = st.Metrics
	e.history = make([]model.HistoryEntry, len(st.History))
	copy(e.history, st.History)
	e.status = st.Status
	e.started = st.StartedAt
	return nil
}

func cloneDelta(d model.MetricDelta) model.MetricDelta {
	if len(d) == 0 {
		return model.MetricDelta{}
	}
	out := make(model.MetricDelta, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
