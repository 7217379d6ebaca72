package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Tickets ───────────────────────────────────────────────────────
	ErrTicketRequired ErrCode = "TICKET_REQUIRED"
	ErrTicketInvalid  ErrCode = "TICKET_INVALID"
	ErrTicketMismatch ErrCode = "TICKET_MISMATCH"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation      ErrCode = "VALIDATION_ERROR"
	ErrInvalidID       ErrCode = "INVALID_ID"
	ErrInvalidPayload  ErrCode = "INVALID_PAYLOAD"
	ErrInvalidDuration ErrCode = "INVALID_DURATION"

	// ─── Tests ─────────────────────────────────────────────────────────
	ErrTestNotFound         ErrCode = "TEST_NOT_FOUND"
	ErrTestNotActive        ErrCode = "TEST_NOT_ACTIVE"
	ErrQuestionOutOfRange   ErrCode = "QUESTION_OUT_OF_RANGE"
	ErrStreamUpgradeFailure ErrCode = "STREAM_UPGRADE_FAILED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Tickets ───────────────────────────────────────────────────────
	case ErrTicketRequired:
		return "A timer ticket is required."
	case ErrTicketInvalid:
		return "The timer ticket is invalid or has expired."
	case ErrTicketMismatch:
		return "The timer ticket was issued for a different question."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrInvalidDuration:
		return "The duration is below the minimum allowed for this timer mode."

	// ─── Tests ─────────────────────────────────────────────────────────
	case ErrTestNotFound:
		return "Test not found."
	case ErrTestNotActive:
		return "This test has already finished."
	case ErrQuestionOutOfRange:
		return "Question number is out of range for this test."
	case ErrStreamUpgradeFailure:
		return "Could not open the timer stream."

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
