package services

import (
	"context"
	"sync"
	"time"

	"tally/internal/notify"
)

// recordingNotifier captures messages instead of delivering them.
type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recordingNotifier) Notify(_ context.Context, msg notify.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingNotifier) messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Message(nil), r.msgs...)
}

var _ notify.Notifier = (*recordingNotifier)(nil)

// april is the reference month used by the aggregation tests.
var april = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
