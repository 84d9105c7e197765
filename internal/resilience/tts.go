package resilience

import (
	"context"

	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/tts"
)

// TTSFailover implements [tts.Provider] over a primary backend and a
// fallback. A cancelled Speak (barge-in) never counts against the primary.
type TTSFailover struct {
	primary  tts.Provider
	fallback tts.Provider
	name     string
	cfg      settings
	gate     gate
}

// Compile-time interface assertion.
var _ tts.Provider = (*TTSFailover)(nil)

// NewTTSFailover wraps primary with fallback. primaryName labels log lines.
func NewTTSFailover(primary, fallback tts.Provider, primaryName string, opts ...Option) *TTSFailover {
	return &TTSFailover{
		primary:  primary,
		fallback: fallback,
		name:     primaryName,
		cfg:      newSettings(opts),
	}
}

// Speak tries the primary unless it is demoted, then repeats the text on the
// fallback so the learner never misses a prompt.
func (f *TTSFailover) Speak(ctx context.Context, text string) error {
	if f.gate.allowPrimary(f.cfg.cooldown) {
		err := f.primary.Speak(ctx, text)
		switch {
		case err == nil:
			if f.gate.recordSuccess() {
				f.cfg.log.Info("synthesis backend recovered", "backend", f.name)
			}
			return nil
		case ctx.Err() != nil:
			return err
		default:
			if f.gate.recordFailure(f.cfg.maxFailures) {
				f.cfg.log.Warn("synthesis backend demoted, switching to fallback output",
					"backend", f.name, "error", err)
			} else {
				f.cfg.log.Warn("synthesis failed, using fallback output",
					"backend", f.name, "error", err)
			}
		}
	}
	return f.fallback.Speak(ctx, text)
}
