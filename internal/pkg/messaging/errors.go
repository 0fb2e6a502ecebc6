package messaging

import "errors"

var (
	// ErrInvalidInput marks malformed conversation keys or empty message
	// content. Not retryable.
	ErrInvalidInput = errors.New("messaging: invalid input")

	// ErrConversationClosed is returned by Send on a closed conversation.
	ErrConversationClosed = errors.New("messaging: conversation closed")

	// ErrConversationNotFound is returned when the conversation id does not
	// resolve to a stored row.
	ErrConversationNotFound = errors.New("messaging: conversation not found")

	// ErrStoreUnavailable wraps transient store or feed failures. Callers
	// may retry with backoff.
	ErrStoreUnavailable = errors.New("messaging: store unavailable")
)
