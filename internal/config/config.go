// Package config provides the configuration schema, loader and validation
// for the tutor.
package config

import (
	"time"

	"github.com/RaghavAtRuntime/local-llm-tutor/internal/quiz"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/types"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure, typically loaded from a YAML
// file using [Load] or [LoadFromReader]. All duration-like fields are
// expressed in seconds.
type Config struct {
	Quiz       QuizConfig       `yaml:"quiz"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	LLM        LLMConfig        `yaml:"llm"`
	Similarity SimilarityConfig `yaml:"similarity"`
	STT        STTConfig        `yaml:"stt"`
	TTS        TTSConfig        `yaml:"tts"`
	Audio      AudioConfig      `yaml:"audio"`
	Store      StoreConfig      `yaml:"store"`

	// LogLevel controls verbosity. Default: info.
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr is the listen address for the Prometheus /metrics endpoint.
	// Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`
}

// QuizConfig selects and paces the question sequence.
type QuizConfig struct {
	// Mode is one of sequential, random, difficulty.
	Mode quiz.Mode `yaml:"mode"`

	// DifficultyFilter restricts the session to one difficulty. Empty means
	// no filter.
	DifficultyFilter types.Difficulty `yaml:"difficulty_filter"`

	// TimeLimit is the per-question limit in seconds; 0 disables it.
	TimeLimit int `yaml:"time_limit"`
}

// EvaluationConfig tunes the answer grading thresholds and policies.
type EvaluationConfig struct {
	// SemanticThresholdCorrect is the composite score at or above which an
	// answer grades correct. Must exceed SemanticThresholdPartial.
	SemanticThresholdCorrect float64 `yaml:"semantic_threshold_correct"`

	// SemanticThresholdPartial is the score at or above which an answer
	// grades at least partial.
	SemanticThresholdPartial float64 `yaml:"semantic_threshold_partial"`

	// ConceptPromotion toggles promoting a partial verdict to correct on
	// high concept coverage. Nil means enabled.
	ConceptPromotion *bool `yaml:"concept_promotion"`

	// SimilarityTimeout bounds one similarity call, in seconds.
	SimilarityTimeout int `yaml:"similarity_timeout"`
}

// LLMConfig configures the optional explanation and feedback backend.
type LLMConfig struct {
	// Enabled turns the LLM capability on. Off, the tutor uses templates.
	Enabled bool `yaml:"enabled"`

	// Provider is the backend name (e.g., "ollama", "openai").
	Provider string `yaml:"provider"`

	// Model is the model identifier (e.g., "llama3.2").
	Model string `yaml:"model"`

	// BaseURL overrides the backend's default endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates against hosted backends. Local backends
	// (ollama, llamacpp) don't need one.
	APIKey string `yaml:"api_key"`
}

// SimilarityConfig selects the semantic similarity backend.
type SimilarityConfig struct {
	// Backend is "lexical" (local string metrics) or "ollama" (embeddings).
	Backend string `yaml:"backend"`

	// BaseURL is the Ollama server address for the ollama backend.
	BaseURL string `yaml:"base_url"`

	// Model is the embedding model for the ollama backend.
	Model string `yaml:"model"`
}

// STTConfig selects the transcription backend.
type STTConfig struct {
	// Backend is "whisper" (local model) or "console" (typed input).
	Backend string `yaml:"backend"`

	// ModelPath is the whisper model file. Required for the whisper backend.
	ModelPath string `yaml:"model_path"`

	// Language hints the transcription language (e.g., "en").
	Language string `yaml:"language"`
}

// TTSConfig selects the synthesis backend.
type TTSConfig struct {
	// Backend is "coqui" (HTTP server) or "console" (printed output).
	Backend string `yaml:"backend"`

	// BaseURL is the Coqui server address for the coqui backend.
	BaseURL string `yaml:"base_url"`

	// Voice selects the speaker for multi-speaker Coqui models.
	Voice string `yaml:"voice"`
}

// AudioConfig tunes capture and barge-in detection. The tutor reads and
// writes raw 16-bit PCM through named pipes so any OS capture stack can feed
// it (e.g. arecord into input_pipe, aplay from output_pipe).
type AudioConfig struct {
	// InputPipe is the path of the pipe delivering captured PCM. Required
	// for the whisper backend and for barge-in detection.
	InputPipe string `yaml:"input_pipe"`

	// OutputPipe is the path of the pipe receiving synthesized PCM.
	// Required for the coqui backend.
	OutputPipe string `yaml:"output_pipe"`

	// SampleRate of captured PCM in Hz.
	SampleRate int `yaml:"sample_rate"`

	// EnergyThreshold is the RMS level above which a frame counts as speech.
	EnergyThreshold float64 `yaml:"energy_threshold"`

	// Silence is how long the learner must stay quiet to end an utterance,
	// in seconds.
	Silence float64 `yaml:"silence"`
}

// StoreConfig configures session persistence.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string `yaml:"path"`

	// Disabled turns persistence off entirely.
	Disabled bool `yaml:"disabled"`
}

// Default returns a Config populated with working defaults: sequential
// text-friendly quizzing, lexical similarity, templates-only feedback and a
// local SQLite history.
func Default() *Config {
	return &Config{
		Quiz: QuizConfig{
			Mode: quiz.ModeSequential,
		},
		Evaluation: EvaluationConfig{
			SemanticThresholdCorrect: 0.75,
			SemanticThresholdPartial: 0.45,
			SimilarityTimeout:        5,
		},
		LLM: LLMConfig{
			Provider: "ollama",
			Model:    "llama3.2",
		},
		Similarity: SimilarityConfig{
			Backend: "lexical",
			Model:   "nomic-embed-text",
		},
		STT: STTConfig{
			Backend:  "console",
			Language: "en",
		},
		TTS: TTSConfig{
			Backend: "console",
		},
		Audio: AudioConfig{
			SampleRate:      16000,
			EnergyThreshold: 600,
			Silence:         1.5,
		},
		Store: StoreConfig{
			Path: "tutor_sessions.db",
		},
		LogLevel: LogInfo,
	}
}

// TimeLimitDuration returns the per-question limit as a duration.
func (c QuizConfig) TimeLimitDuration() time.Duration {
	return time.Duration(c.TimeLimit) * time.Second
}

// SimilarityTimeoutDuration returns the similarity timeout as a duration.
func (c EvaluationConfig) SimilarityTimeoutDuration() time.Duration {
	return time.Duration(c.SimilarityTimeout) * time.Second
}

// ConceptPromotionEnabled resolves the nil-means-enabled default.
func (c EvaluationConfig) ConceptPromotionEnabled() bool {
	return c.ConceptPromotion == nil || *c.ConceptPromotion
}
