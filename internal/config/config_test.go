package config_test

import (
	"testing"
	"time"

	"github.com/RaghavAtRuntime/local-llm-tutor/internal/config"
)

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	if err := config.Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v, want nil", err)
	}
}

func TestLogLevel_IsValid(t *testing.T) {
	t.Parallel()

	for _, l := range []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError} {
		if !l.IsValid() {
			t.Errorf("%q.IsValid() = false", l)
		}
	}
	for _, l := range []config.LogLevel{"", "trace", "INFO"} {
		if l.IsValid() {
			t.Errorf("%q.IsValid() = true", l)
		}
	}
}

func TestDurationHelpers(t *testing.T) {
	t.Parallel()

	q := config.QuizConfig{TimeLimit: 30}
	if got := q.TimeLimitDuration(); got != 30*time.Second {
		t.Errorf("TimeLimitDuration() = %v, want 30s", got)
	}
	e := config.EvaluationConfig{SimilarityTimeout: 5}
	if got := e.SimilarityTimeoutDuration(); got != 5*time.Second {
		t.Errorf("SimilarityTimeoutDuration() = %v, want 5s", got)
	}
}

func TestConceptPromotion_DefaultsEnabled(t *testing.T) {
	t.Parallel()

	var e config.EvaluationConfig
	if !e.ConceptPromotionEnabled() {
		t.Error("nil concept_promotion should mean enabled")
	}
	off := false
	e.ConceptPromotion = &off
	if e.ConceptPromotionEnabled() {
		t.Error("explicit false should disable promotion")
	}
}
