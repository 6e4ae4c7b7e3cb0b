package game

// MirrorPrompt is a reflection question interjected between scenes.
type MirrorPrompt struct {
	SceneID  string `json:"scene_id"`
	Question string `json:"question"`
}

// ReflectionSink receives dismissed reflection text. The scheduler calls it
// fire-and-forget and performs no validation or storage of its own.
type ReflectionSink func(sceneID, prompt, content string)

// Stock reflection questions used when a scene carries no override.
var stockPrompts = []string{
	"What made you lean toward this choice?",
	"How would you feel if this happened to you in real life?",
	"What would you tell a friend facing this decision?",
	"Which of your values did this choice touch?",
}

// MirrorScheduler interjects optional reflection prompts after scene
// advances, in both individual and classroom mode. While a prompt is
// pending, forward progress is suspended until the consumer dismisses it.
type MirrorScheduler struct {
	enabled bool
	pending *MirrorPrompt
	served  int
	sink    ReflectionSink
}

// NewMirrorScheduler creates a scheduler. A nil sink discards reflections.
func NewMirrorScheduler(enabled bool, sink ReflectionSink) *MirrorScheduler {
	return &MirrorScheduler{enabled: enabled, sink: sink}
}

// Enabled reports whether the scheduler interjects at all.
func (m *MirrorScheduler) Enabled() bool { return m.enabled }

// Served returns how many prompts have been armed so far. Together with
// Restore it lets a stateless caller carry scheduler state across requests.
func (m *MirrorScheduler) Served() int { return m.served }

// Restore rebuilds scheduler state from a persisted snapshot.
func (m *MirrorScheduler) Restore(pending *MirrorPrompt, served int) {
	m.pending = pending
	m.served = served
}

// AfterAdvance arms a prompt for the scene just left behind. sceneOverride
// is the scene-specific question, empty for the rotating stock question.
// Returns nil when disabled.
func (m *MirrorScheduler) AfterAdvance(sceneID, sceneOverride string) *MirrorPrompt {
	if !m.enabled {
		return nil
	}
	question := sceneOverride
	if question == "" {
		question = stockPrompts[m.served%len(stockPrompts)]
	}
	m.served++
	m.pending = &MirrorPrompt{SceneID: sceneID, Question: question}
	return m.pending
}

// Pending returns the prompt currently blocking progress, or nil.
func (m *MirrorScheduler) Pending() *MirrorPrompt { return m.pending }

// Blocked reports whether an undismissed prompt is suspending progress.
func (m *MirrorScheduler) Blocked() bool { return m.pending != nil }

// Dismiss clears the pending prompt. Non-empty reflection content is
// forwarded verbatim to the sink. Dismissing with nothing pending is a
// no-op.
func (m *MirrorScheduler) Dismiss(content string) {
	if m.pending == nil {
		return
	}
	prompt := *m.pending
	m.pending = nil
	if content != "" && m.sink != nil {
		m.sink(prompt.SceneID, prompt.Question, content)
	}
}
