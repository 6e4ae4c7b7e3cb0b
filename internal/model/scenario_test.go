package model

import (
	"strings"
	"testing"
)

func validScenario() Scenario {
	return Scenario{
		ID:    "career",
		Title: "Career Crossroads",
		InitialMetrics: Metrics{
			Health: 70, Money: 30, Happiness: 60, Knowledge: 50, Relationships: 60,
		},
		Scenes: []Scene{
			{
				ID:    "offer",
				Title: "The Offer",
				Choices: []Choice{
					{ID: "accept", Label: "Accept", NextSceneID: "year-one", Effects: MetricDelta{MetricMoney: 15}},
					{ID: "decline", Label: "Decline", NextSceneID: "year-one", Effects: MetricDelta{MetricHappiness: 5}},
				},
			},
			{ID: "year-one", Title: "One Year Later", IsEnding: true},
		},
	}
}

func TestMetricsApply(t *testing.T) {
	m := Metrics{Health: 50, Money: 50, Happiness: 50, Knowledge: 50, Relationships: 50}

	m.Apply(MetricDelta{MetricMoney: 10, MetricHealth: -5})

	if m.Money != 60 {
		t.Errorf("Money = %d, want 60", m.Money)
	}
	if m.Health != 45 {
		t.Errorf("Health = %d, want 45", m.Health)
	}
	// Untouched metrics stay put.
	if m.Happiness != 50 || m.Knowledge != 50 || m.Relationships != 50 {
		t.Errorf("untouched metrics changed: %+v", m)
	}
}

func TestMetricsApplyUnknownKey(t *testing.T) {
	m := Metrics{Health: 50}
	m.Apply(MetricDelta{"charisma": 99})
	if m.Health != 50 {
		t.Errorf("unknown key mutated metrics: %+v", m)
	}
}

func TestMetricsApplyNegativeAllowed(t *testing.T) {
	m := Metrics{Money: 3}
	m.Apply(MetricDelta{MetricMoney: -10})
	if m.Money != -7 {
		t.Errorf("Money = %d, want -7 (values are unbounded)", m.Money)
	}
}

func TestScenarioValidateOK(t *testing.T) {
	s := validScenario()
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestScenarioValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Scenario)
		wantSub string
	}{
		{
			name:    "no scenes",
			mutate:  func(s *Scenario) { s.Scenes = nil },
			wantSub: "no scenes",
		},
		{
			name: "duplicate scene id",
			mutate: func(s *Scenario) {
				s.Scenes = append(s.Scenes, Scene{ID: "offer", IsEnding: true})
			},
			wantSub: "duplicate scene id",
		},
		{
			name: "dangling choice target",
			mutate: func(s *Scenario) {
				s.Scenes[0].Choices[0].NextSceneID = "nowhere"
			},
			wantSub: "unknown scene",
		},
		{
			name: "ending with choices",
			mutate: func(s *Scenario) {
				s.Scenes[1].Choices = []Choice{{ID: "x", NextSceneID: "offer"}}
			},
			wantSub: "offers choices",
		},
		{
			name: "non-ending without choices",
			mutate: func(s *Scenario) {
				s.Scenes[0].Choices = nil
			},
			wantSub: "has no choices",
		},
		{
			name: "duplicate choice id",
			mutate: func(s *Scenario) {
				s.Scenes[0].Choices[1].ID = "accept"
			},
			wantSub: "duplicate choice id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validScenario()
			tt.mutate(&s)
			err := s.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("Validate() = %q, want substring %q", err, tt.wantSub)
			}
		})
	}
}

func TestSceneChoiceLookup(t *testing.T) {
	s := validScenario()
	scene, ok := s.Scene("offer")
	if !ok {
		t.Fatal("scene offer not found")
	}

	if c, ok := scene.Choice("accept"); !ok || c.NextSceneID != "year-one" {
		t.Errorf("Choice(accept) = %+v, %v", c, ok)
	}
	if _, ok := scene.Choice("ghost"); ok {
		t.Error("Choice(ghost) found, want miss")
	}
}

func TestFirstScene(t *testing.T) {
	s := validScenario()
	first, ok := s.FirstScene()
	if !ok || first.ID != "offer" {
		t.Fatalf("FirstScene() = %v, %v; want offer", first, ok)
	}

	empty := Scenario{ID: "empty"}
	if _, ok := empty.FirstScene(); ok {
		t.Error("FirstScene() on empty scenario reported ok")
	}
}
