package resilience

import (
	"context"
	"errors"

	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/stt"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/types"
)

// STTFailover implements [stt.Provider] over a primary backend and a
// fallback. A silent capture window (stt.ErrNoSpeech) is a learner outcome,
// not a backend failure, and is returned as-is without touching the fallback.
type STTFailover struct {
	primary  stt.Provider
	fallback stt.Provider
	name     string
	cfg      settings
	gate     gate
}

// Compile-time interface assertion.
var _ stt.Provider = (*STTFailover)(nil)

// NewSTTFailover wraps primary with fallback. primaryName labels log lines.
func NewSTTFailover(primary, fallback stt.Provider, primaryName string, opts ...Option) *STTFailover {
	return &STTFailover{
		primary:  primary,
		fallback: fallback,
		name:     primaryName,
		cfg:      newSettings(opts),
	}
}

// Capture tries the primary unless it is demoted, then the fallback.
func (f *STTFailover) Capture(ctx context.Context) (types.Transcript, error) {
	if f.gate.allowPrimary(f.cfg.cooldown) {
		tr, err := f.primary.Capture(ctx)
		switch {
		case err == nil, errors.Is(err, stt.ErrNoSpeech):
			if f.gate.recordSuccess() {
				f.cfg.log.Info("transcription backend recovered", "backend", f.name)
			}
			return tr, err
		case ctx.Err() != nil:
			// Cancellation is the caller's doing, not a backend fault.
			return types.Transcript{}, err
		default:
			if f.gate.recordFailure(f.cfg.maxFailures) {
				f.cfg.log.Warn("transcription backend demoted, switching to fallback input",
					"backend", f.name, "error", err)
			} else {
				f.cfg.log.Warn("transcription failed, using fallback input",
					"backend", f.name, "error", err)
			}
		}
	}
	return f.fallback.Capture(ctx)
}
