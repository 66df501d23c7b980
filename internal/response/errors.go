package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired  ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid   ErrCode = "TOKEN_INVALID"
	ErrSessionExpired ErrCode = "SESSION_EXPIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Session lifecycle ─────────────────────────────────────────────
	ErrSessionNotFound ErrCode = "SESSION_NOT_FOUND"
	ErrSessionClosed   ErrCode = "SESSION_CLOSED"
	ErrInvalidIndex    ErrCode = "INVALID_INDEX"
	ErrExamNotFound    ErrCode = "EXAM_NOT_FOUND"

	// ─── Judge ─────────────────────────────────────────────────────────
	ErrJudgeBusy        ErrCode = "JUDGE_BUSY"
	ErrJudgeUnavailable ErrCode = "JUDGE_UNAVAILABLE"

	// ─── Submission ────────────────────────────────────────────────────
	ErrSubmissionFailed ErrCode = "SUBMISSION_FAILED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrSessionExpired:
		return "Your session has expired. Please sign in again."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The identifier format is invalid."
	case ErrSessionNotFound:
		return "No active session with that ID was found."
	case ErrSessionClosed:
		return "The session has already been completed."
	case ErrInvalidIndex:
		return "The question index is out of range."
	case ErrExamNotFound:
		return "The requested exam was not found."
	case ErrJudgeBusy:
		return "A test run for this question is already in progress."
	case ErrJudgeUnavailable:
		return "The judge service is currently unavailable."
	case ErrSubmissionFailed:
		return "The submission could not be delivered. You can retry."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
