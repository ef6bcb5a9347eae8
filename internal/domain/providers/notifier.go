package providers

import "context"

// Message is a rendered notification ready for delivery
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers a message over one channel (SMS, email)
type Notifier interface {
	// Channel names the delivery channel, e.g. "sms"
	Channel() string

	// Send delivers msg
	Send(ctx context.Context, msg Message) error
}
