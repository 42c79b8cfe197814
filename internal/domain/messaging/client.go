// internal/domain/messaging/client.go
package messaging

import (
	"context"
	"fmt"
)

// Route selects the sender used by the relay.
type Route string

const (
	RoutePrimary  Route = "primary"  // Business messaging service
	RouteFallback Route = "fallback" // Alternate sender number
)

// Request describes an outbound WhatsApp message. Either Body or ContentSID is set.
type Request struct {
	Route      Route
	To         string // E.164 phone number
	Body       string
	ContentSID string            // Approved template
	Variables  map[string]string // Template variables, keyed "1", "2", ...
}

// Message is the relay's view of a sent message.
type Message struct {
	SID          string
	Status       string
	To           string
	From         string
	ErrorCode    string
	ErrorMessage string
}

// Client sends messages through the third-party messaging relay and
// fetches their delivery status.
type Client interface {
	Send(ctx context.Context, req Request) (*Message, error)
	Fetch(ctx context.Context, sid string) (*Message, error)
}

// ProviderError is returned when the relay rejects a request.
type ProviderError struct {
	Code     string
	Message  string
	MoreInfo string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("messaging provider error %s: %s", e.Code, e.Message)
}
