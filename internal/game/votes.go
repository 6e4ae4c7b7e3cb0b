package game

import "github.com/lifepath/lifepath-backend/internal/model"

// VoteAggregator tallies per-choice votes for the shared session's current
// scene. It is a pure counting structure: visibility gating and role checks
// belong to the coordinator that owns it, which also serializes access.
//
// Votes are scoped to a monotonically increasing scene epoch so a slow
// client's vote for a previous scene can never leak into the next tally.
type VoteAggregator struct {
	scene *model.Scene
	epoch int
	votes map[string]string // participant id → choice id
}

// NewVoteAggregator creates an empty aggregator with no scene bound.
func NewVoteAggregator() *VoteAggregator {
	return &VoteAggregator{votes: make(map[string]string)}
}

// SetScene binds the aggregator to a new current scene, clears all votes,
// and bumps the scene epoch. The coordinator must call this on every scene
// advance; stale votes leaking across scenes is a correctness bug.
func (v *VoteAggregator) SetScene(scene *model.Scene) {
	v.scene = scene
	v.epoch++
	v.votes = make(map[string]string)
}

// Epoch returns the current scene epoch.
func (v *VoteAggregator) Epoch() int { return v.epoch }

// Submit records or overwrites the participant's vote for the current
// scene. Re-voting replaces; it never adds. A vote tagged with a stale
// epoch is rejected with ErrStaleVote, and a choice id outside the current
// scene's choice set is rejected with ErrInvalidChoice.
func (v *VoteAggregator) Submit(participantID, choiceID string, epoch int) error {
	if v.scene == nil {
		return ErrInvalidChoice
	}
	if epoch != v.epoch {
		return ErrStaleVote
	}
	if _, ok := v.scene.Choice(choiceID); !ok {
		return ErrInvalidChoice
	}
	v.votes[participantID] = choiceID
	return nil
}

// Tally returns choice id → vote count, derived from the recorded votes.
// Counts are never stored redundantly, so the tally cannot drift.
func (v *VoteAggregator) Tally() map[string]int {
	tally := make(map[string]int, len(v.votes))
	for _, choiceID := range v.votes {
		tally[choiceID]++
	}
	return tally
}

// VoterCount returns the number of participants who have voted this scene.
func (v *VoteAggregator) VoterCount() int { return len(v.votes) }

// ResolveMajority returns the choice id with the highest vote count.
// Ties break in favor of the first choice in the scene's declared order,
// keeping resolution deterministic and auditable. An empty tally yields
// ErrNoVotes.
func (v *VoteAggregator) ResolveMajority() (string, error) {
	if v.scene == nil || len(v.votes) == 0 {
		return "", ErrNoVotes
	}

	tally := v.Tally()
	best := ""
	bestCount := 0
	for _, choice := range v.scene.Choices {
		if count := tally[choice.ID]; count > bestCount {
			best = choice.ID
			bestCount = count
		}
	}
	if best == "" {
		return "", ErrNoVotes
	}
	return best, nil
}
