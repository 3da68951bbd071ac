// Package gateway delivers single SMS or WhatsApp messages. Providers never
// retry; a failed send is reported in the Result, not as an error.
package gateway

import "context"

// Message is one outbound message.
type Message struct {
	To          string
	Body        string
	MessageType string
}

// Result is the outcome of one send. ProviderID may be empty even on success.
type Result struct {
	OK         bool
	ProviderID string
	Error      string
}

func failed(reason string) Result { return Result{Error: reason} }

// Provider sends one message.
type Provider interface {
	Send(ctx context.Context, msg Message) Result
}
