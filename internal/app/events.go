package app

import "roshambo/internal/domain"

// EventKind identifies the observation emitted by an engine operation.
type EventKind string

const (
	EventFirstMove   EventKind = "first_move"
	EventSecondMove  EventKind = "second_move"
	EventFirstReveal EventKind = "first_reveal"
	EventDraw        EventKind = "draw"
	EventSettled     EventKind = "settled"
	EventForfeit     EventKind = "forfeit"
	EventEarlyExit   EventKind = "early_exit"
	EventWithdrawal  EventKind = "withdrawal"
)

// Event is an observation produced by a successful operation, with
// optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type FirstMovePayload struct {
	Player     string `json:"player"`
	Commitment string `json:"commitment"`
	Stake      int64  `json:"stake"`
	Funded     int64  `json:"funded"`
}

type SecondMovePayload struct {
	Player     string `json:"player"`
	SessionKey string `json:"session_key"`
	Commitment string `json:"commitment"`
	Funded     int64  `json:"funded"`
	Expiry     int64  `json:"expiry"`
}

type FirstRevealPayload struct {
	Player     string        `json:"player"`
	SessionKey string        `json:"session_key"`
	Choice     domain.Choice `json:"choice"`
	Expiry     int64         `json:"expiry"`
}

type DrawPayload struct {
	SessionKey   string        `json:"session_key"`
	FirstPlayer  string        `json:"first_player"`
	SecondPlayer string        `json:"second_player"`
	Choice       domain.Choice `json:"choice"`
	Refund       int64         `json:"refund"`
}

type SettledPayload struct {
	SessionKey   string        `json:"session_key"`
	Winner       string        `json:"winner"`
	Loser        string        `json:"loser"`
	FirstChoice  domain.Choice `json:"first_choice"`
	SecondChoice domain.Choice `json:"second_choice"`
	Payout       int64         `json:"payout"`
	Rake         int64         `json:"rake,omitempty"`
}

type ForfeitPayload struct {
	SessionKey string `json:"session_key"`
	Claimant   string `json:"claimant"`
	TimedOut   string `json:"timed_out"`
	Payout     int64  `json:"payout"`
}

type EarlyExitPayload struct {
	SessionKey string `json:"session_key"`
	Player     string `json:"player"`
	Refund     int64  `json:"refund"`
}

type WithdrawalPayload struct {
	Player string `json:"player"`
	Amount int64  `json:"amount"`
}
