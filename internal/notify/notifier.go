// Package notify delivers outbound email without blocking the request that
// triggered it. Callers hand a Message to a Notifier and move on; delivery
// failures are logged and never returned.
package notify

//go:generate mockgen -source=notifier.go -destination=mailer_mock.go -package=notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tally/internal/logger"
)

// Kind identifies why a message was sent.
type Kind string

const (
	KindBudgetConfirmation Kind = "budget_confirmation"
	KindBudgetOverspent    Kind = "budget_overspent"
	KindBudgetNearLimit    Kind = "budget_near_limit"
)

// Message is a single email ready to be delivered.
type Message struct {
	Kind      Kind      `json:"kind"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJSON decodes a message produced by ToJSON.
func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if msg.To == "" {
		return nil, fmt.Errorf("decode message: missing recipient")
	}
	return &msg, nil
}

// Notifier accepts messages for asynchronous delivery. Notify must return
// promptly and must not report delivery failures to the caller.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

// Mailer performs the actual delivery of one message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them. It is used
// when SMTP is disabled.
type LogMailer struct{}

// Send logs the message headers.
func (LogMailer) Send(_ context.Context, msg Message) error {
	logger.Named("mailer").Infow("email (smtp disabled)",
		"kind", msg.Kind,
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
