// Package mock provides a test double for the vad.Listener interface.
//
// Use Listener to trigger barge-in events at controlled points in a test:
//
//	l := mock.NewListener()
//	events, _ := l.Watch(ctx)
//	l.Trigger() // learner starts speaking
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/vad"
)

// Compile-time interface assertion.
var _ vad.Listener = (*Listener)(nil)

// WatchCall records a single invocation of Watch.
type WatchCall struct {
	// Ctx is the context passed to Watch.
	Ctx context.Context
}

// Listener is a mock implementation of vad.Listener.
type Listener struct {
	mu sync.Mutex

	// WatchErr, if non-nil, is returned by Watch instead of arming.
	WatchErr error

	// AutoTrigger, if true, fires an event immediately on every Watch —
	// the learner barges in as soon as the tutor starts speaking.
	AutoTrigger bool

	// WatchCalls records every call to Watch in order.
	WatchCalls []WatchCall

	active chan vad.Event
	cancel context.CancelFunc
}

// NewListener creates an idle mock listener.
func NewListener() *Listener {
	return &Listener{}
}

// Watch arms the mock. The returned channel receives an event on the next
// Trigger call (or immediately when AutoTrigger is set) and closes when ctx
// is cancelled.
func (l *Listener) Watch(ctx context.Context) (<-chan vad.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.WatchCalls = append(l.WatchCalls, WatchCall{Ctx: ctx})
	if l.WatchErr != nil {
		return nil, l.WatchErr
	}

	events := make(chan vad.Event, 1)
	l.active = events
	if l.AutoTrigger {
		events <- vad.Event{At: time.Now()}
		close(events)
		l.active = nil
		return events, nil
	}

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		if l.active == events {
			close(events)
			l.active = nil
		}
		l.mu.Unlock()
	}()
	return events, nil
}

// Trigger fires a single event on the currently armed Watch channel.
// It is a no-op when no Watch is armed.
func (l *Listener) Trigger() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == nil {
		return
	}
	l.active <- vad.Event{At: time.Now()}
	close(l.active)
	l.active = nil
}
