package domain

// Choice is a move in a rock-paper-scissors round.
// The zero value is the "no choice yet" sentinel so a cleared
// game record never looks like a revealed rock.
type Choice uint8

const (
	ChoiceNone Choice = iota
	ChoiceRock
	ChoicePaper
	ChoiceScissors
)

// Valid reports whether the choice is one of the three playable moves.
func (c Choice) Valid() bool {
	return c >= ChoiceRock && c <= ChoiceScissors
}

func (c Choice) String() string {
	switch c {
	case ChoiceRock:
		return "rock"
	case ChoicePaper:
		return "paper"
	case ChoiceScissors:
		return "scissors"
	default:
		return "none"
	}
}

// ParseChoice maps a client-supplied move name to a Choice.
// An empty string maps to ChoiceNone with ok=true so queries can
// probe the sentinel; anything else unknown returns ok=false.
func ParseChoice(s string) (Choice, bool) {
	switch s {
	case "rock":
		return ChoiceRock, true
	case "paper":
		return ChoicePaper, true
	case "scissors":
		return ChoiceScissors, true
	case "":
		return ChoiceNone, true
	default:
		return ChoiceNone, false
	}
}

// Outcome classifies the result of comparing two revealed choices.
type Outcome uint8

const (
	OutcomeInvalid Outcome = iota
	OutcomeDraw
	OutcomeFirstWins
	OutcomeSecondWins
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDraw:
		return "draw"
	case OutcomeFirstWins:
		return "first_wins"
	case OutcomeSecondWins:
		return "second_wins"
	default:
		return "invalid"
	}
}

// Resolve maps two revealed choices to an outcome.
//
// Choices sit in a fixed cycle (rock=0, paper=1, scissors=2 after
// shifting off the sentinel) where X beats (X+2) mod 3. The single
// modular difference below is the entire rule set: 0 is a tie, 1 means
// the first choice wins, 2 means the second does.
func Resolve(first, second Choice) Outcome {
	if !first.Valid() || !second.Valid() {
		return OutcomeInvalid
	}
	switch (int(first) - int(second) + 3) % 3 {
	case 0:
		return OutcomeDraw
	case 1:
		return OutcomeFirstWins
	default:
		return OutcomeSecondWins
	}
}
