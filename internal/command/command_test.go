package command

import "testing"

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Command
	}{
		{"repeat", Repeat},
		{"say again", Repeat},
		{"  Say   AGAIN ", Repeat},
		{"explain", Explain},
		{"explain more", Explain},
		{"skip", Skip},
		{"next", Skip},
		{"quit", Quit},
		{"exit", Quit},
		{"", None},
		{"the answer is photosynthesis", None},
		// Whole-utterance matching: containing a command word is not enough.
		{"what comes next in the sequence", None},
		{"please repeat the question", None},
		{"skip it", None},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Classify(tt.in); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"repeat", "say again", "random answer text", "", "NEXT"}
	for _, in := range inputs {
		first := Classify(in)
		if second := Classify(in); second != first {
			t.Errorf("Classify(%q) not stable: %v then %v", in, first, second)
		}
	}
}
