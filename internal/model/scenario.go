package model

import "fmt"

// MetricKey identifies one of the five life metrics tracked per run.
type MetricKey string

const (
	MetricHealth        MetricKey = "health"
	MetricMoney         MetricKey = "money"
	MetricHappiness     MetricKey = "happiness"
	MetricKnowledge     MetricKey = "knowledge"
	MetricRelationships MetricKey = "relationships"
)

// MetricKeys lists every metric in display order.
var MetricKeys = []MetricKey{
	MetricHealth,
	MetricMoney,
	MetricHappiness,
	MetricKnowledge,
	MetricRelationships,
}

// Metrics holds the five counters. Values are unbounded and may go negative;
// the scoring/badge layer downstream gives meaning to the extremes.
type Metrics struct {
	Health        int `json:"health"`
	Money         int `json:"money"`
	Happiness     int `json:"happiness"`
	Knowledge     int `json:"knowledge"`
	Relationships int `json:"relationships"`
}

// MetricDelta is a sparse signed adjustment. Keys absent from the map leave
// the corresponding metric untouched.
type MetricDelta map[MetricKey]int

// Apply adds each delta to the matching counter. Mutation is always by
// signed delta, never direct set.
func (m *Metrics) Apply(delta MetricDelta) {
	for key, d := range delta {
		switch key {
		case MetricHealth:
			m.Health += d
		case MetricMoney:
			m.Money += d
		case MetricHappiness:
			m.Happiness += d
		case MetricKnowledge:
			m.Knowledge += d
		case MetricRelationships:
			m.Relationships += d
		}
	}
}

// Choice is an edge from one scene to another, carrying a metric delta.
type Choice struct {
	ID          string      `json:"id"`
	Label       string      `json:"label"`
	Tooltip     string      `json:"tooltip,omitempty"`
	NextSceneID string      `json:"next_scene_id"`
	Effects     MetricDelta `json:"effects,omitempty"`
}

// Scene is one node in a scenario's choice graph. A scene with IsEnding set
// is terminal: no further choices are offered.
type Scene struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	ImageURL     string   `json:"image_url,omitempty"`
	Choices      []Choice `json:"choices,omitempty"`
	MirrorPrompt string   `json:"mirror_prompt,omitempty"`
	IsEnding     bool     `json:"is_ending"`
}

// Choice finds a choice by id within the scene.
func (s *Scene) Choice(id string) (*Choice, bool) {
	for i := range s.Choices {
		if s.Choices[i].ID == id {
			return &s.Choices[i], true
		}
	}
	return nil, false
}

// Scenario is a complete branching narrative unit. Loaded once at startup
// and treated as immutable thereafter. The first scene in order is the
// designated starting scene.
type Scenario struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	InitialMetrics Metrics `json:"initial_metrics"`
	Scenes         []Scene `json:"scenes"`
}

// Scene finds a scene by id within the scenario.
func (s *Scenario) Scene(id string) (*Scene, bool) {
	for i := range s.Scenes {
		if s.Scenes[i].ID == id {
			return &s.Scenes[i], true
		}
	}
	return nil, false
}

// FirstScene returns the scenario's designated starting scene.
func (s *Scenario) FirstScene() (*Scene, bool) {
	if len(s.Scenes) == 0 {
		return nil, false
	}
	return &s.Scenes[0], true
}

// Validate checks the referential integrity of the scene graph: every
// choice's next_scene_id must reference an existing scene, and terminal
// scenes must not offer choices.
func (s *Scenario) Validate() error {
	if len(s.Scenes) == 0 {
		return fmt.Errorf("scenario %q has no scenes", s.ID)
	}

	ids := make(map[string]struct{}, len(s.Scenes))
	for i := range s.Scenes {
		id := s.Scenes[i].ID
		if _, dup := ids[id]; dup {
			return fmt.Errorf("scenario %q: duplicate scene id %q", s.ID, id)
		}
		ids[id] = struct{}{}
	}

	for i := range s.Scenes {
		scene := &s.Scenes[i]
		if scene.IsEnding {
			if len(scene.Choices) > 0 {
				return fmt.Errorf("scenario %q: ending scene %q offers choices", s.ID, scene.ID)
			}
			continue
		}
		if len(scene.Choices) == 0 {
			return fmt.Errorf("scenario %q: non-ending scene %q has no choices", s.ID, scene.ID)
		}
		seen := make(map[string]struct{}, len(scene.Choices))
		for _, c := range scene.Choices {
			if _, dup := seen[c.ID]; dup {
				return fmt.Errorf("scenario %q: scene %q has duplicate choice id %q", s.ID, scene.ID, c.ID)
			}
			seen[c.ID] = struct{}{}
			if _, ok := ids[c.NextSceneID]; !ok {
				return fmt.Errorf("scenario %q: choice %q in scene %q targets unknown scene %q",
					s.ID, c.ID, scene.ID, c.NextSceneID)
			}
		}
	}

	return nil
}
