// Package types defines the shared types used across all tutor packages.
//
// These types form the lingua franca between the ports, the evaluation
// pipeline, and the session orchestrator. They are intentionally minimal —
// each package defines its own domain types, but cross-cutting data
// structures live here to avoid circular imports.
package types

import "time"

// Source identifies the input modality a transcript was captured from.
type Source string

const (
	// SourceVoice marks a transcript produced by the speech-to-text port.
	SourceVoice Source = "voice"

	// SourceText marks a transcript typed directly by the learner.
	SourceText Source = "text"
)

// Transcript is one captured learner utterance. It is created once per turn,
// classified and (when it is an answer) scored, and discarded at the turn
// boundary — it is never retained across turns.
type Transcript struct {
	// Text is the raw captured text. May be empty when the capture timed out
	// or the learner said nothing intelligible.
	Text string

	// Source records whether the text came from speech or the keyboard.
	Source Source

	// Confidence is the transcription confidence (0.0–1.0). Zero when the
	// source does not report confidence (keyboard input, some STT backends).
	Confidence float64

	// CapturedAt marks when the utterance was captured.
	CapturedAt time.Time
}

// Difficulty tags a question with its intended challenge level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid reports whether d is a recognised difficulty.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Rank orders difficulties for adaptive pacing: easy < medium < hard.
// Unknown values sort after all recognised ones.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyEasy:
		return 0
	case DifficultyMedium:
		return 1
	case DifficultyHard:
		return 2
	default:
		return 3
	}
}
