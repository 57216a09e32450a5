package domain

import (
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		first    Choice
		second   Choice
		expected Outcome
	}{
		{"rock vs rock", ChoiceRock, ChoiceRock, OutcomeDraw},
		{"paper vs paper", ChoicePaper, ChoicePaper, OutcomeDraw},
		{"scissors vs scissors", ChoiceScissors, ChoiceScissors, OutcomeDraw},
		{"rock vs scissors", ChoiceRock, ChoiceScissors, OutcomeFirstWins},
		{"paper vs rock", ChoicePaper, ChoiceRock, OutcomeFirstWins},
		{"scissors vs paper", ChoiceScissors, ChoicePaper, OutcomeFirstWins},
		{"scissors vs rock", ChoiceScissors, ChoiceRock, OutcomeSecondWins},
		{"rock vs paper", ChoiceRock, ChoicePaper, OutcomeSecondWins},
		{"paper vs scissors", ChoicePaper, ChoiceScissors, OutcomeSecondWins},
		{"sentinel first", ChoiceNone, ChoiceRock, OutcomeInvalid},
		{"sentinel second", ChoicePaper, ChoiceNone, OutcomeInvalid},
		{"sentinel both", ChoiceNone, ChoiceNone, OutcomeInvalid},
		{"out of range", Choice(9), ChoiceRock, OutcomeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.first, tt.second); got != tt.expected {
				t.Errorf("Resolve(%v, %v) = %v, want %v", tt.first, tt.second, got, tt.expected)
			}
		})
	}
}

func TestResolveAntisymmetry(t *testing.T) {
	choices := []Choice{ChoiceRock, ChoicePaper, ChoiceScissors}
	for _, a := range choices {
		for _, b := range choices {
			forward := Resolve(a, b)
			backward := Resolve(b, a)
			switch forward {
			case OutcomeDraw:
				if backward != OutcomeDraw {
					t.Errorf("Resolve(%v, %v) drew but Resolve(%v, %v) = %v", a, b, b, a, backward)
				}
			case OutcomeFirstWins:
				if backward != OutcomeSecondWins {
					t.Errorf("Resolve(%v, %v) = FirstWins but Resolve(%v, %v) = %v", a, b, b, a, backward)
				}
			case OutcomeSecondWins:
				if backward != OutcomeFirstWins {
					t.Errorf("Resolve(%v, %v) = SecondWins but Resolve(%v, %v) = %v", a, b, b, a, backward)
				}
			}
		}
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		input    string
		expected Choice
		ok       bool
	}{
		{"rock", ChoiceRock, true},
		{"paper", ChoicePaper, true},
		{"scissors", ChoiceScissors, true},
		{"", ChoiceNone, true},
		{"lizard", ChoiceNone, false},
		{"Rock", ChoiceNone, false},
	}

	for _, tt := range tests {
		got, ok := ParseChoice(tt.input)
		if got != tt.expected || ok != tt.ok {
			t.Errorf("ParseChoice(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.expected, tt.ok)
		}
	}
}
