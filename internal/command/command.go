// Package command classifies captured input as a meta-command or an answer.
//
// Matching is on the whole normalized utterance against fixed phrase sets,
// never on substrings, so an answer that merely contains the word "next" is
// not consumed as a command. When a learner's genuine answer exactly equals a
// command phrase it is consumed as the command; that precedence is a
// documented limitation of the vocabulary, not a defect.
package command

import "strings"

// Command is the classification of one utterance.
type Command string

const (
	// Repeat asks for the current question to be presented again.
	Repeat Command = "repeat"
	// Explain asks for an elaborated explanation of the current question.
	Explain Command = "explain"
	// Skip advances without an attempt.
	Skip Command = "skip"
	// Quit ends the session immediately.
	Quit Command = "quit"
	// None means the utterance is a candidate answer.
	None Command = "none"
)

// phrases is the fixed user-facing vocabulary.
var phrases = map[string]Command{
	"repeat":       Repeat,
	"say again":    Repeat,
	"explain":      Explain,
	"explain more": Explain,
	"skip":         Skip,
	"next":         Skip,
	"quit":         Quit,
	"exit":         Quit,
}

// Classify maps text to a Command. Unrecognized input classifies as None.
// Classification is deterministic: the same text always yields the same
// Command.
func Classify(text string) Command {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	if cmd, ok := phrases[normalized]; ok {
		return cmd
	}
	return None
}
