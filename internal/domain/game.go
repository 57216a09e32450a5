package domain

// Step is the lifecycle stage of a game session.
type Step uint8

const (
	// StepUnstarted is the initial stage, and the stage a settled
	// session returns to.
	StepUnstarted Step = iota
	// StepFirstCommitted means the first mover has opened the session
	// and escrowed its stake.
	StepFirstCommitted
	// StepSecondCommitted means the second mover has joined, escrowed
	// a matching stake and the reveal clock is running.
	StepSecondCommitted
	// StepFirstRevealed means the first mover has proven its choice
	// and the session is waiting on the second mover to settle.
	StepFirstRevealed
)

func (s Step) String() string {
	switch s {
	case StepFirstCommitted:
		return "first_committed"
	case StepSecondCommitted:
		return "second_committed"
	case StepFirstRevealed:
		return "first_revealed"
	default:
		return "unstarted"
	}
}

// Game is one commit-reveal session, keyed in the session store by the
// first mover's commitment hash.
type Game struct {
	Stake            int64  `json:"stake"`
	Step             Step   `json:"step"`
	FirstPlayer      string `json:"first_player"`
	SecondPlayer     string `json:"second_player,omitempty"`
	SecondCommitment string `json:"second_commitment,omitempty"`
	FirstChoice      Choice `json:"first_choice,omitempty"`
	Expiry           int64  `json:"expiry,omitempty"`
}

// Reset clears the transient fields after settlement, forfeit or early
// exit. FirstPlayer deliberately survives: a non-empty FirstPlayer is
// the tombstone that retires the session key forever, so a known-good
// commitment can never be replayed to open a second session.
func (g *Game) Reset() {
	g.Stake = 0
	g.Step = StepUnstarted
	g.SecondPlayer = ""
	g.SecondCommitment = ""
	g.FirstChoice = ChoiceNone
	g.Expiry = 0
}

// Retired reports whether the session key has been consumed.
func (g *Game) Retired() bool {
	return g.FirstPlayer != ""
}

// Expired reports whether the forfeit window has elapsed. Expiry is
// only ever evaluated lazily, when a forfeit operation is invoked.
func Expired(expiry, now int64) bool {
	return now >= expiry
}
