package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// ValidLLMProviders are the backend names the LLM wiring understands.
var ValidLLMProviders = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"gemini":    true,
	"ollama":    true,
	"deepseek":  true,
	"mistral":   true,
	"groq":      true,
	"llamacpp":  true,
	"llamafile": true,
}

// ValidSimilarityBackends are the supported semantic scorer backends.
var ValidSimilarityBackends = map[string]bool{
	"lexical": true,
	"ollama":  true,
}

// ValidSTTBackends are the supported transcription backends.
var ValidSTTBackends = map[string]bool{
	"whisper": true,
	"console": true,
}

// ValidTTSBackends are the supported synthesis backends.
var ValidTTSBackends = map[string]bool{
	"coqui":   true,
	"console": true,
}

// Load reads a YAML config file, layers it over [Default] and validates the
// result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader decodes YAML from r over [Default] and validates the result.
// Unknown keys are rejected so typos surface immediately.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field consistency. Fatal problems are joined into a
// single error; recoverable oddities are logged as warnings instead.
func (c *Config) Validate() error {
	var errs []error

	if !c.Quiz.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("config: quiz.mode %q is not one of sequential, random, difficulty", c.Quiz.Mode))
	}
	if f := c.Quiz.DifficultyFilter; f != "" && !f.IsValid() {
		errs = append(errs, fmt.Errorf("config: quiz.difficulty_filter %q is not one of easy, medium, hard", f))
	}
	if c.Quiz.TimeLimit < 0 {
		errs = append(errs, fmt.Errorf("config: quiz.time_limit must not be negative, got %d", c.Quiz.TimeLimit))
	}

	tc, tp := c.Evaluation.SemanticThresholdCorrect, c.Evaluation.SemanticThresholdPartial
	if !(0 < tp && tp < tc && tc < 1) {
		errs = append(errs, fmt.Errorf("config: evaluation thresholds must satisfy 0 < partial < correct < 1, got partial=%v correct=%v", tp, tc))
	}
	if c.Evaluation.SimilarityTimeout <= 0 {
		errs = append(errs, fmt.Errorf("config: evaluation.similarity_timeout must be positive, got %d", c.Evaluation.SimilarityTimeout))
	}

	if c.LLM.Enabled {
		if !ValidLLMProviders[c.LLM.Provider] {
			errs = append(errs, fmt.Errorf("config: llm.provider %q is not supported", c.LLM.Provider))
		}
		if c.LLM.Model == "" {
			errs = append(errs, errors.New("config: llm.model must be set when llm.enabled is true"))
		}
	}

	if !ValidSimilarityBackends[c.Similarity.Backend] {
		errs = append(errs, fmt.Errorf("config: similarity.backend %q is not one of lexical, ollama", c.Similarity.Backend))
	} else if c.Similarity.Backend == "ollama" && c.Similarity.Model == "" {
		errs = append(errs, errors.New("config: similarity.model must be set for the ollama backend"))
	}

	if !ValidSTTBackends[c.STT.Backend] {
		errs = append(errs, fmt.Errorf("config: stt.backend %q is not one of whisper, console", c.STT.Backend))
	} else if c.STT.Backend == "whisper" {
		if c.STT.ModelPath == "" {
			errs = append(errs, errors.New("config: stt.model_path must be set for the whisper backend"))
		}
		if c.Audio.InputPipe == "" {
			errs = append(errs, errors.New("config: audio.input_pipe must be set for the whisper backend"))
		}
	}

	if !ValidTTSBackends[c.TTS.Backend] {
		errs = append(errs, fmt.Errorf("config: tts.backend %q is not one of coqui, console", c.TTS.Backend))
	} else if c.TTS.Backend == "coqui" && c.Audio.OutputPipe == "" {
		errs = append(errs, errors.New("config: audio.output_pipe must be set for the coqui backend"))
	}

	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("config: audio.sample_rate must be positive, got %d", c.Audio.SampleRate))
	}
	if c.Audio.EnergyThreshold < 0 {
		errs = append(errs, fmt.Errorf("config: audio.energy_threshold must not be negative, got %v", c.Audio.EnergyThreshold))
	}
	if c.Audio.Silence < 0 {
		errs = append(errs, fmt.Errorf("config: audio.silence must not be negative, got %v", c.Audio.Silence))
	}

	if !c.Store.Disabled && c.Store.Path == "" {
		errs = append(errs, errors.New("config: store.path must be set unless store.disabled is true"))
	}

	if !c.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("config: log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}

	if c.LLM.APIKey != "" && (c.LLM.Provider == "ollama" || c.LLM.Provider == "llamacpp" || c.LLM.Provider == "llamafile") {
		slog.Warn("config: llm.api_key is ignored by local providers", "provider", c.LLM.Provider)
	}
	if !c.LLM.Enabled && c.LLM.APIKey != "" {
		slog.Warn("config: llm.api_key is set but llm.enabled is false")
	}
	if c.Similarity.Backend == "lexical" && c.Similarity.BaseURL != "" {
		slog.Warn("config: similarity.base_url is ignored by the lexical backend")
	}
	if c.Store.Disabled && c.Store.Path != "" {
		slog.Warn("config: store.path is ignored because store.disabled is true", "path", c.Store.Path)
	}

	return errors.Join(errs...)
}
