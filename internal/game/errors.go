package game

import "errors"

// Sentinel errors returned by the engine, vote aggregator, and session
// coordinator. All are local, recoverable failures: the caller decides the
// user-facing messaging, and a rejected operation never leaves partial state.
var (
	// ErrNotFound means an unknown scenario, scene, or choice reference.
	ErrNotFound = errors.New("not found")

	// ErrInvalidChoice means the choice id is not valid for the current scene,
	// the game has not started, or the current scene is terminal.
	ErrInvalidChoice = errors.New("invalid choice for current scene")

	// ErrNoVotes is returned by ResolveMajority when the tally is empty.
	ErrNoVotes = errors.New("no votes cast")

	// ErrNoConsensus means an advance was attempted with an empty tally.
	ErrNoConsensus = errors.New("no consensus: tally is empty")

	// ErrSessionPaused rejects votes while the session is on hold.
	ErrSessionPaused = errors.New("session is paused")

	// ErrSessionEnded rejects every mutation on a terminal session.
	ErrSessionEnded = errors.New("session has ended")

	// ErrUnauthorized means a role check failed on a restricted operation.
	ErrUnauthorized = errors.New("caller role not permitted")

	// ErrStaleVote means a vote was cast against a scene epoch that has
	// already advanced. Slow clients must never corrupt the next tally.
	ErrStaleVote = errors.New("vote targets a stale scene epoch")

	// ErrMirrorPending means a reflection prompt is blocking forward
	// progress and must be dismissed first.
	ErrMirrorPending = errors.New("mirror moment awaiting dismissal")

	// ErrNotRevealed means the teacher tried to advance before revealing
	// the tally to the class.
	ErrNotRevealed = errors.New("tally has not been revealed")
)
