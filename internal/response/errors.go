package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"
	ErrPlayerAccessOnly  ErrCode = "PLAYER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Game ──────────────────────────────────────────────────────────
	ErrInvalidChoice ErrCode = "INVALID_CHOICE"
	ErrGameNotActive ErrCode = "GAME_NOT_ACTIVE"
	ErrMirrorPending ErrCode = "MIRROR_PENDING"

	// ─── Classroom ─────────────────────────────────────────────────────
	ErrNoConsensus   ErrCode = "NO_CONSENSUS"
	ErrSessionPaused ErrCode = "SESSION_PAUSED"
	ErrSessionEnded  ErrCode = "SESSION_ENDED"
	ErrStaleVote     ErrCode = "STALE_VOTE"
	ErrNotRevealed   ErrCode = "TALLY_NOT_REVEALED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrTeacherAccessOnly:
		return "This resource is restricted to teachers."
	case ErrPlayerAccessOnly:
		return "This resource is restricted to players."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Game ──────────────────────────────────────────────────────────
	case ErrInvalidChoice:
		return "That choice is not available in the current scene."
	case ErrGameNotActive:
		return "No scenario run is in progress."
	case ErrMirrorPending:
		return "A mirror moment is waiting for a response."

	// ─── Classroom ─────────────────────────────────────────────────────
	case ErrNoConsensus:
		return "The class has not voted yet."
	case ErrSessionPaused:
		return "The session is paused."
	case ErrSessionEnded:
		return "The session has ended."
	case ErrStaleVote:
		return "The scene has moved on since this vote was cast."
	case ErrNotRevealed:
		return "Reveal the votes before advancing."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
