package messaging

const (
	StatusAccepted    = "accepted"
	StatusQueued      = "queued"
	StatusSending     = "sending"
	StatusSent        = "sent"
	StatusDelivered   = "delivered"
	StatusRead        = "read"
	StatusFailed      = "failed"
	StatusUndelivered = "undelivered"
	StatusUnknown     = "unknown"
)

// FallbackErrorCodes are provider error codes after which the message is
// retried once through the fallback route.
var FallbackErrorCodes = map[string]bool{
	"63015": true, // Channel sandbox can only send to whitelisted numbers
	"63016": true, // Outside the allowed window for freeform messages
}

// IsTerminal reports whether polling can stop at this status.
func IsTerminal(status string) bool {
	switch status {
	case StatusDelivered, StatusRead, StatusSent, StatusFailed, StatusUndelivered:
		return true
	}
	return false
}

// NeedsFallback reports whether the polled result calls for one retry through
// the fallback route. Statuses still not terminal after polling count as not delivered.
func NeedsFallback(status, errorCode string) bool {
	if FallbackErrorCodes[errorCode] {
		return true
	}
	return IsFailed(status) || !IsTerminal(status)
}

// IsFailed reports whether the relay gave up on the message.
func IsFailed(status string) bool {
	return status == StatusFailed || status == StatusUndelivered
}
