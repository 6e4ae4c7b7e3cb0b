package game

import (
	"errors"
	"testing"

	"github.com/lifepath/lifepath-backend/internal/model"
)

func votingScene() *model.Scene {
	return &model.Scene{
		ID: "crossroads",
		Choices: []model.Choice{
			{ID: "A", NextSceneID: "x"},
			{ID: "B", NextSceneID: "y"},
			{ID: "C", NextSceneID: "z"},
		},
	}
}

func TestVoteAggregatorLastWriteWins(t *testing.T) {
	v := NewVoteAggregator()
	v.SetScene(votingScene())

	if err := v.Submit("p1", "A", v.Epoch()); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if err := v.Submit("p1", "B", v.Epoch()); err != nil {
		t.Fatalf("re-vote: %v", err)
	}

	tally := v.Tally()
	if tally["A"] != 0 || tally["B"] != 1 {
		t.Errorf("tally = %v, want B:1 only", tally)
	}
	if v.VoterCount() != 1 {
		t.Errorf("voter count = %d, want 1", v.VoterCount())
	}
}

func TestVoteAggregatorRejectsUnknownChoice(t *testing.T) {
	v := NewVoteAggregator()
	v.SetScene(votingScene())

	if err := v.Submit("p1", "Z", v.Epoch()); !errors.Is(err, ErrInvalidChoice) {
		t.Fatalf("Submit(Z) = %v, want ErrInvalidChoice", err)
	}
	if v.VoterCount() != 0 {
		t.Error("rejected vote was recorded")
	}
}

func TestVoteAggregatorStaleEpoch(t *testing.T) {
	v := NewVoteAggregator()
	v.SetScene(votingScene())
	stale := v.Epoch()

	v.SetScene(votingScene()) // scene advanced

	if err := v.Submit("p1", "A", stale); !errors.Is(err, ErrStaleVote) {
		t.Fatalf("stale Submit = %v, want ErrStaleVote", err)
	}
	if v.VoterCount() != 0 {
		t.Error("stale vote leaked into new tally")
	}
}

func TestVoteAggregatorClearOnNewScene(t *testing.T) {
	v := NewVoteAggregator()
	v.SetScene(votingScene())
	v.Submit("p1", "A", v.Epoch())
	v.Submit("p2", "B", v.Epoch())

	v.SetScene(votingScene())

	if len(v.Tally()) != 0 {
		t.Errorf("tally after SetScene = %v, want empty", v.Tally())
	}
}

func TestResolveMajority(t *testing.T) {
	tests := []struct {
		name  string
		votes map[string]string // participant → choice
		want  string
		err   error
	}{
		{
			name:  "clear winner",
			votes: map[string]string{"p1": "B", "p2": "B", "p3": "A"},
			want:  "B",
		},
		{
			name: "tie breaks to first declared choice",
			votes: map[string]string{
				"p1": "A", "p2": "A", "p3": "A",
				"p4": "B", "p5": "B", "p6": "B",
			},
			want: "A",
		},
		{
			name: "tie among later choices",
			votes: map[string]string{
				"p1": "C", "p2": "C",
				"p3": "B", "p4": "B",
			},
			want: "B",
		},
		{
			name:  "empty tally",
			votes: nil,
			err:   ErrNoVotes,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVoteAggregator()
			v.SetScene(votingScene())
			for p, c := range tt.votes {
				if err := v.Submit(p, c, v.Epoch()); err != nil {
					t.Fatalf("Submit(%s, %s): %v", p, c, err)
				}
			}

			got, err := v.ResolveMajority()
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("ResolveMajority = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveMajority: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveMajority = %q, want %q", got, tt.want)
			}
		})
	}
}
