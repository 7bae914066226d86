// Package mail implements the outbound-mail collaborator. Sending is always
// best effort: a failure is reported to the caller for bookkeeping but never
// fails the operation that produced the message.
package mail

import "context"

// Message is a fully rendered outbound email.
type Message struct {
	Recipients []string
	Subject    string
	HTMLBody   string
	TextBody   string
}

// Sender delivers outbound email.
type Sender interface {
	// Send reports whether the message was accepted by the provider.
	// Implementations must bound their own dial/send time so a provider
	// outage cannot stall the caller indefinitely.
	Send(ctx context.Context, msg Message) bool
	// Enabled reports whether outbound mail is configured at all.
	Enabled() bool
}

// NopSender is used when outbound mail is disabled.
type NopSender struct{}

// Send always reports false.
func (NopSender) Send(context.Context, Message) bool { return false }

// Enabled reports false.
func (NopSender) Enabled() bool { return false }
