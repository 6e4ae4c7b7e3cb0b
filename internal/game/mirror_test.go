package game

import "testing"

func TestMirrorSchedulerDisabled(t *testing.T) {
	m := NewMirrorScheduler(false, nil)
	if p := m.AfterAdvance("start", ""); p != nil {
		t.Fatalf("disabled scheduler armed a prompt: %+v", p)
	}
	if m.Blocked() {
		t.Error("disabled scheduler blocks progress")
	}
}

func TestMirrorSchedulerStockRotation(t *testing.T) {
	m := NewMirrorScheduler(true, nil)

	first := m.AfterAdvance("s1", "")
	m.Dismiss("")
	second := m.AfterAdvance("s2", "")

	if first == nil || second == nil {
		t.Fatal("enabled scheduler did not arm prompts")
	}
	if first.Question == second.Question {
		t.Errorf("stock prompt did not rotate: %q", first.Question)
	}
}

func TestMirrorSchedulerSceneOverride(t *testing.T) {
	m := NewMirrorScheduler(true, nil)
	p := m.AfterAdvance("study", "Was the sacrifice worth it?")
	if p.Question != "Was the sacrifice worth it?" {
		t.Errorf("override ignored, got %q", p.Question)
	}
}

func TestMirrorSchedulerDismiss(t *testing.T) {
	var gotScene, gotPrompt, gotContent string
	m := NewMirrorScheduler(true, func(sceneID, prompt, content string) {
		gotScene, gotPrompt, gotContent = sceneID, prompt, content
	})

	m.AfterAdvance("start", "Why this path?")
	if !m.Blocked() {
		t.Fatal("pending prompt does not block")
	}

	m.Dismiss("it felt safer")
	if m.Blocked() {
		t.Error("dismiss left the gate closed")
	}
	if gotScene != "start" || gotPrompt != "Why this path?" || gotContent != "it felt safer" {
		t.Errorf("sink got (%q, %q, %q)", gotScene, gotPrompt, gotContent)
	}

	// Empty reflections are not forwarded; repeated dismissal is a no-op.
	gotContent = ""
	m.AfterAdvance("s2", "")
	m.Dismiss("")
	m.Dismiss("again")
	if gotContent != "" {
		t.Errorf("sink called unexpectedly with %q", gotContent)
	}
}
