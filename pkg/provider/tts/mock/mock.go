// Package mock provides a test double for the tts.Provider interface.
//
// Use Provider to verify which prompts the orchestrator speaks and to
// simulate long-running synthesis that must yield to barge-in cancellation.
//
// Example:
//
//	p := &mock.Provider{BlockUntilCancel: true}
//	err := p.Speak(ctx, "Question 1 of 3. ...") // returns when ctx cancels
package mock

import (
	"context"
	"sync"
)

// SpeakCall records a single invocation of Speak.
type SpeakCall struct {
	// Ctx is the context passed to Speak.
	Ctx context.Context

	// Text is the text passed to Speak.
	Text string
}

// Provider is a mock implementation of tts.Provider.
type Provider struct {
	mu sync.Mutex

	// --- Configurable behaviour ---

	// SpeakErr, if non-nil, is returned by every Speak call.
	SpeakErr error

	// BlockUntilCancel, if true, makes Speak block until ctx is cancelled
	// and return ctx.Err(). Simulates playback still in progress when the
	// learner barges in.
	BlockUntilCancel bool

	// OnSpeak, if non-nil, is invoked after the call is recorded and before
	// any blocking. Tests use it to trigger barge-in mid-utterance.
	OnSpeak func(text string)

	// --- Call records ---

	// SpeakCalls records every call to Speak in order.
	SpeakCalls []SpeakCall
}

// Speak records the call and honours the configured behaviour.
func (p *Provider) Speak(ctx context.Context, text string) error {
	p.mu.Lock()
	p.SpeakCalls = append(p.SpeakCalls, SpeakCall{Ctx: ctx, Text: text})
	err := p.SpeakErr
	block := p.BlockUntilCancel
	onSpeak := p.OnSpeak
	p.mu.Unlock()

	if onSpeak != nil {
		onSpeak(text)
	}
	if err != nil {
		return err
	}
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return ctx.Err()
}

// Spoken returns the texts spoken so far.
func (p *Provider) Spoken() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.SpeakCalls))
	for i, c := range p.SpeakCalls {
		out[i] = c.Text
	}
	return out
}
