package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation      ErrCode = "VALIDATION_ERROR"
	ErrInvalidID       ErrCode = "INVALID_ID"
	ErrPayloadTooLarge ErrCode = "PAYLOAD_TOO_LARGE"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound          ErrCode = "NOT_FOUND"
	ErrConflict          ErrCode = "CONFLICT"
	ErrInvalidTransition ErrCode = "INVALID_STATUS_TRANSITION"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrExamNotAvailable  ErrCode = "EXAM_NOT_AVAILABLE"
	ErrExamExpired       ErrCode = "EXAM_EXPIRED"
	ErrExamNotDelivered  ErrCode = "EXAM_NOT_DELIVERED"
	ErrAlreadySubmitted  ErrCode = "ALREADY_SUBMITTED"
	ErrNoQuestions       ErrCode = "NO_QUESTIONS"
	ErrTheoryNoApproval  ErrCode = "THEORY_NO_APPROVAL"
	ErrNoExaminers       ErrCode = "NO_EXAMINERS"
	ErrTrialNotAvailable ErrCode = "TRIAL_NOT_AVAILABLE"

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
		return "Invalid email or password."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrInvalidTransition:
		return "The exam is not in a state that allows this action."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrExamNotAvailable:
		return "This exam is not available."
	case ErrExamExpired:
		return "This exam has expired."
	case ErrExamNotDelivered:
		return "This exam has not been started yet."
	case ErrAlreadySubmitted:
		return "This exam has already been submitted."
	case ErrNoQuestions:
		return "No questions are available for this exam."
	case ErrTheoryNoApproval:
		return "Theory exams do not require approval."
	case ErrNoExaminers:
		return "No active examiner is available."
	case ErrTrialNotAvailable:
		return "This trial quiz has expired or was already submitted."

	case ErrPayloadTooLarge:
		return "Request body is too large."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
