package game

import (
	"errors"
	"reflect"
	"testing"

	"github.com/lifepath/lifepath-backend/internal/model"
)

type fakeCatalog map[string]*model.Scenario

func (c fakeCatalog) Scenario(id string) (*model.Scenario, bool) {
	s, ok := c[id]
	return s, ok
}

func (c fakeCatalog) Scenarios() []*model.Scenario {
	out := make([]*model.Scenario, 0, len(c))
	for _, s := range c {
		out = append(out, s)
	}
	return out
}

func testScenario() *model.Scenario {
	return &model.Scenario{
		ID:             "s1",
		Title:          "First Job",
		InitialMetrics: model.Metrics{Health: 50, Money: 20, Happiness: 50, Knowledge: 10, Relationships: 30},
		Scenes: []model.Scene{
			{
				ID:    "start",
				Title: "The Offer",
				Choices: []model.Choice{
					{ID: "a", Label: "Take the job", NextSceneID: "mid", Effects: model.MetricDelta{model.MetricMoney: 10}},
					{ID: "b", Label: "Keep studying", NextSceneID: "study", Effects: model.MetricDelta{model.MetricKnowledge: 5, model.MetricMoney: -3}},
				},
			},
			{
				ID:           "study",
				Title:        "Night Classes",
				MirrorPrompt: "Was the sacrifice worth it?",
				Choices: []model.Choice{
					{ID: "c", Label: "Push through", NextSceneID: "mid", Effects: model.MetricDelta{model.MetricHealth: -5, model.MetricKnowledge: 8}},
				},
			},
			{ID: "mid", Title: "Five Years Later", IsEnding: true},
		},
	}
}

func newTestCatalog() fakeCatalog {
	return fakeCatalog{"s1": testScenario()}
}

func TestEngineStartUnknownScenario(t *testing.T) {
	e := NewEngine(newTestCatalog())
	if err := e.Start("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Start(nope) = %v, want ErrNotFound", err)
	}
	if e.Active() {
		t.Fatal("engine active after failed start")
	}
}

func TestEngineStartResetsToBaseline(t *testing.T) {
	e := NewEngine(newTestCatalog())
	if err := e.Start("s1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.ApplyChoice("a"); err != nil {
		t.Fatalf("ApplyChoice: %v", err)
	}

	// Restarting clears metrics and history back to the scenario baseline.
	if err := e.Start("s1"); err != nil {
		t.Fatalf("restart: %v", err)
	}
	want := testScenario().InitialMetrics
	if e.Metrics() != want {
		t.Errorf("metrics after restart = %+v, want %+v", e.Metrics(), want)
	}
	if got := e.State().History; len(got) != 0 {
		t.Errorf("history after restart has %d entries, want 0", len(got))
	}
	if e.Scene().ID != "start" {
		t.Errorf("scene after restart = %q, want start", e.Scene().ID)
	}
}

func TestEngineApplyChoice(t *testing.T) {
	e := NewEngine(newTestCatalog())
	if err := e.Start("s1"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	next, err := e.ApplyChoice("a")
	if err != nil {
		t.Fatalf("ApplyChoice(a): %v", err)
	}
	if next.ID != "mid" {
		t.Errorf("next scene = %q, want mid", next.ID)
	}
	if got, want := e.Metrics().Money, 30; got != want {
		t.Errorf("money = %d, want %d", got, want)
	}

	hist := e.State().History
	if len(hist) != 1 {
		t.Fatalf("history has %d entries, want 1", len(hist))
	}
	wantEntry := model.HistoryEntry{
		SceneID:       "start",
		ChoiceID:      "a",
		MetricChanges: model.MetricDelta{model.MetricMoney: 10},
	}
	if !reflect.DeepEqual(hist[0], wantEntry) {
		t.Errorf("history[0] = %+v, want %+v", hist[0], wantEntry)
	}

	if !e.Completed() {
		t.Error("run not complete after reaching ending scene")
	}
	if e.Scene().ID != "mid" {
		t.Errorf("final scene = %q, want mid (retained for display)", e.Scene().ID)
	}
}

func TestEngineApplyChoiceLeavesAbsentMetricsUntouched(t *testing.T) {
	e := NewEngine(newTestCatalog())
	if err := e.Start("s1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	before := e.Metrics()

	if _, err := e.ApplyChoice("b"); err != nil {
		t.Fatalf("ApplyChoice(b): %v", err)
	}
	after := e.Metrics()

	// Choice b touches knowledge and money only.
	if after.Health != before.Health || after.Happiness != before.Happiness || after.Relationships != before.Relationships {
		t.Errorf("untouched metrics changed: before %+v, after %+v", before, after)
	}
	if after.Knowledge != before.Knowledge+5 || after.Money != before.Money-3 {
		t.Errorf("deltas misapplied: before %+v, after %+v", before, after)
	}
}

func TestEngineInvalidChoice(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *Engine)
		id    string
	}{
		{"not started", func(e *Engine) {}, "a"},
		{"unknown id", func(e *Engine) { e.Start("s1") }, "zzz"},
		{"terminal scene", func(e *Engine) {
			e.Start("s1")
			e.ApplyChoice("a")
		}, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(newTestCatalog())
			tt.setup(e)
			before := e.State()
			if _, err := e.ApplyChoice(tt.id); !errors.Is(err, ErrInvalidChoice) {
				t.Fatalf("ApplyChoice(%q) = %v, want ErrInvalidChoice", tt.id, err)
			}
			after := e.State()
			if before.Metrics != after.Metrics || len(before.History) != len(after.History) || before.SceneID != after.SceneID {
				t.Error("rejected choice mutated state")
			}
		})
	}
}

func TestEngineDeterministicReplay(t *testing.T) {
	seq := []string{"b", "c"}

	run := func() model.GameState {
		e := NewEngine(newTestCatalog())
		if err := e.Start("s1"); err != nil {
			t.Fatalf("Start: %v", err)
		}
		for _, id := range seq {
			if _, err := e.ApplyChoice(id); err != nil {
				t.Fatalf("ApplyChoice(%q): %v", id, err)
			}
		}
		return e.State()
	}

	first, second := run(), run()
	if first.Metrics != second.Metrics {
		t.Errorf("replay metrics differ: %+v vs %+v", first.Metrics, second.Metrics)
	}
	if !reflect.DeepEqual(first.History, second.History) {
		t.Errorf("replay history differs: %+v vs %+v", first.History, second.History)
	}
}

func TestEngineResetIdempotent(t *testing.T) {
	e := NewEngine(newTestCatalog())
	e.Start("s1")
	e.ApplyChoice("a")

	e.Reset()
	e.Reset()

	st := e.State()
	if st.Status != model.GameStatusIdle || st.ScenarioID != "" || len(st.History) != 0 {
		t.Errorf("state after reset = %+v, want idle/empty", st)
	}
}

func TestEngineRestoreRoundTrip(t *testing.T) {
	e := NewEngine(newTestCatalog())
	e.Start("s1")
	e.ApplyChoice("b")
	saved := e.State()

	restored := NewEngine(newTestCatalog())
	if err := restored.Restore(saved); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if _, err := restored.ApplyChoice("c"); err != nil {
		t.Fatalf("ApplyChoice after restore: %v", err)
	}
	if !restored.Completed() {
		t.Error("restored run did not complete")
	}
	if got := len(restored.State().History); got != 2 {
		t.Errorf("history length = %d, want 2", got)
	}
}

func TestEngineRestoreUnknownScenario(t *testing.T) {
	e := NewEngine(newTestCatalog())
	err := e.Restore(model.GameState{
		ScenarioID: "gone",
		SceneID:    "start",
		Status:     model.GameStatusActive,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Restore = %v, want ErrNotFound", err)
	}
}
