package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"roshambo/internal/domain"
	"roshambo/internal/ports"
)

// Entry point names, as seen by the access-control gate.
const (
	OpCommitFirst     = "commit_first"
	OpCommitSecond    = "commit_second"
	OpRevealFirst     = "reveal_first"
	OpRevealSecond    = "reveal_second"
	OpForfeitByFirst  = "forfeit_by_first"
	OpForfeitBySecond = "forfeit_by_second"
	OpWithdrawEarly   = "withdraw_early"
	OpWithdraw        = "withdraw"
	OpBalance         = "balance"
)

// State is the persistent core: one game record per session key, one
// ledger entry per identity. It is what gets snapshotted to storage.
type State struct {
	Sessions map[string]*domain.Game `json:"sessions"`
	Ledger   domain.Ledger           `json:"ledger"`
}

// NewState returns an empty engine state.
func NewState() *State {
	return &State{
		Sessions: make(map[string]*domain.Game),
		Ledger:   domain.NewLedger(),
	}
}

// Options configures a new Engine.
type Options struct {
	// ForfeitWindow is how long the party holding initiative has to
	// act before the waiting party may claim the pot, in seconds.
	ForfeitWindow int64
	// Policy computes the winner payout; nil means EvenSettlement.
	Policy SettlementPolicy
	// HouseID receives any rake the policy withholds. When empty the
	// rake is folded back into the winner payout so no value is lost.
	HouseID string
	// Gate is consulted before every operation.
	Gate ports.Gate
	// Economy performs the outbound transfer behind Withdraw.
	Economy ports.EconomyPort
	// Now supplies the current unix time; nil means time.Now.
	Now func() int64
	// State restores a previous snapshot; nil starts empty.
	State *State
}

// Engine is the commit-reveal settlement engine. The caller must
// guarantee that operations are serialized; the engine itself holds no
// locks, mirroring the single-threaded substrate it is designed for.
type Engine struct {
	State *State

	window  int64
	policy  SettlementPolicy
	houseID string
	gate    ports.Gate
	economy ports.EconomyPort
	now     func() int64
}

// NewEngine builds an engine from options, filling in defaults.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		State:   opts.State,
		window:  opts.ForfeitWindow,
		policy:  opts.Policy,
		houseID: opts.HouseID,
		gate:    opts.Gate,
		economy: opts.Economy,
		now:     opts.Now,
	}
	if e.State == nil {
		e.State = NewState()
	}
	if e.State.Sessions == nil {
		e.State.Sessions = make(map[string]*domain.Game)
	}
	if e.State.Ledger == nil {
		e.State.Ledger = domain.NewLedger()
	}
	if e.policy == nil {
		e.policy = EvenSettlement
	}
	if e.gate == nil {
		e.gate = ports.GateFunc(func(context.Context, string) error { return nil })
	}
	if e.now == nil {
		e.now = func() int64 { return time.Now().Unix() }
	}
	return e
}

// CommitFirstHash computes the first mover's commitment, which doubles
// as the session key. Pure query.
func CommitFirstHash(identity, secret string, choice domain.Choice) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	if !choice.Valid() {
		return "", ErrInvalidChoice
	}
	return domain.FirstCommitment(identity, secret, choice), nil
}

// CommitSecondHash computes the second mover's commitment, bound to an
// existing session key. Pure query.
func CommitSecondHash(identity, sessionKey, secret string, choice domain.Choice) (string, error) {
	if sessionKey == "" {
		return "", ErrEmptySessionKey
	}
	if secret == "" {
		return "", ErrEmptySecret
	}
	if !choice.Valid() {
		return "", ErrInvalidChoice
	}
	return domain.SecondCommitment(identity, sessionKey, secret, choice), nil
}

// CommitFirstMove opens a session under the caller's commitment,
// escrows the stake and retires the key. funded is the value sent with
// the call; any shortfall against the stake comes out of stored
// credit, any surplus is credited back.
func (e *Engine) CommitFirstMove(ctx context.Context, caller, commitment string, stake, funded int64) ([]Event, error) {
	if err := e.gate.Allow(ctx, OpCommitFirst); err != nil {
		return nil, err
	}
	if commitment == "" {
		return nil, ErrEmptySessionKey
	}
	// The pot is 2 * stake everywhere downstream (settlement, rake,
	// forfeit); cap the stake so that product cannot overflow into a
	// negative credit.
	if stake < 0 || stake > math.MaxInt64/2 || funded < 0 {
		return nil, ErrInvalidAmount
	}
	if g, ok := e.State.Sessions[commitment]; ok && (g.Retired() || g.Step != domain.StepUnstarted) {
		return nil, fmt.Errorf("%w: session key already used", ErrInvalidStep)
	}
	if !e.State.Ledger.Fund(caller, stake, funded) {
		return nil, ErrInsufficientBalance
	}
	e.State.Sessions[commitment] = &domain.Game{
		Stake:       stake,
		Step:        domain.StepFirstCommitted,
		FirstPlayer: caller,
	}
	return []Event{{
		Kind: EventFirstMove,
		Payload: FirstMovePayload{
			Player:     caller,
			Commitment: commitment,
			Stake:      stake,
			Funded:     funded,
		},
	}}, nil
}

// CommitSecondMove joins an open session with the caller's own
// commitment, escrows a matching stake and starts the reveal clock.
func (e *Engine) CommitSecondMove(ctx context.Context, caller, sessionKey, commitment string, funded int64) ([]Event, error) {
	if err := e.gate.Allow(ctx, OpCommitSecond); err != nil {
		return nil, err
	}
	if sessionKey == "" {
		return nil, ErrEmptySessionKey
	}
	// An empty commitment can never be reproduced by a reveal, so the
	// session could only ever end by forfeit. Reject it up front.
	if commitment == "" {
		return nil, ErrEmptyCommitment
	}
	if funded < 0 {
		return nil, ErrInvalidAmount
	}
	g, ok := e.State.Sessions[sessionKey]
	if !ok || g.Step != domain.StepFirstCommitted {
		return nil, ErrInvalidStep
	}
	if !e.State.Ledger.Fund(caller, g.Stake, funded) {
		return nil, ErrInsufficientBalance
	}
	g.SecondPlayer = caller
	g.SecondCommitment = commitment
	g.Step = domain.StepSecondCommitted
	g.Expiry = e.now() + e.window
	return []Event{{
		Kind: EventSecondMove,
		Payload: SecondMovePayload{
			Player:     caller,
			SessionKey: sessionKey,
			Commitment: commitment,
			Funded:     funded,
			Expiry:     g.Expiry,
		},
	}}, nil
}

// RevealFirst proves the first mover's hidden choice. The session key
// is recomputed from the reveal itself; a wrong secret or choice just
// resolves to a key with no session in progress and is rejected the
// same way as a wrong-step call.
func (e *Engine) RevealFirst(ctx context.Context, caller, secret string, choice domain.Choice) ([]Event, error) {
	if err := e.gate.Allow(ctx, OpRevealFirst); err != nil {
		return nil, err
	}
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if !choice.Valid() {
		return nil, ErrInvalidChoice
	}
	key := domain.FirstCommitment(caller, secret, choice)
	g, ok := e.State.Sessions[key]
	if !ok || g.Step != domain.StepSecondCommitted {
		return nil, ErrInvalidStep
	}
	g.FirstChoice = choice
	g.Step = domain.StepFirstRevealed
	g.Expiry = e.now() + e.window
	return []Event{{
		Kind: EventFirstReveal,
		Payload: FirstRevealPayload{
			Player:     caller,
			SessionKey: key,
			Choice:     choice,
			Expiry:     g.Expiry,
		},
	}}, nil
}

// RevealSecond proves the second mover's choice against its stored
// commitment and settles the session: on a draw both stakes are
// refunded, otherwise the winner is paid per the settlement policy.
func (e *Engine) RevealSecond(ctx context.Context, caller, sessionKey, secret string, choice domain.Choice) ([]Event, error) {
	if err := e.gate.Allow(ctx, OpRevealSecond); err != nil {
		return nil, err
	}
	if sessionKey == "" {
		return nil, ErrEmptySessionKey
	}
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if !choice.Valid() {
		return nil, ErrInvalidChoice
	}
	g, ok := e.State.Sessions[sessionKey]
	if !ok || g.Step != domain.StepFirstRevealed {
		return nil, ErrInvalidStep
	}
	if domain.SecondCommitment(caller, sessionKey, secret, choice) != g.SecondCommitment {
		return nil, ErrHashMismatch
	}

	var ev Event
	switch outcome := domain.Resolve(g.FirstChoice, choice); outcome {
	case domain.OutcomeDraw:
		e.State.Ledger.Credit(g.FirstPlayer, g.Stake)
		e.State.Ledger.Credit(g.SecondPlayer, g.Stake)
		ev = Event{
			Kind: EventDraw,
			Payload: DrawPayload{
				SessionKey:   sessionKey,
				FirstPlayer:  g.FirstPlayer,
				SecondPlayer: g.SecondPlayer,
				Choice:       choice,
				Refund:       g.Stake,
			},
		}
	case domain.OutcomeFirstWins, domain.OutcomeSecondWins:
		winner, loser := g.FirstPlayer, g.SecondPlayer
		if outcome == domain.OutcomeSecondWins {
			winner, loser = loser, winner
		}
		payout, rake := e.policy(g.Stake)
		if rake > 0 && e.houseID != "" {
			e.State.Ledger.Credit(e.houseID, rake)
		} else {
			payout += rake
			rake = 0
		}
		e.State.Ledger.Credit(winner, payout)
		ev = Event{
			Kind: EventSettled,
			Payload: SettledPayload{
				SessionKey:   sessionKey,
				Winner:       winner,
				Loser:        loser,
				FirstChoice:  g.FirstChoice,
				SecondChoice: choice,
				Payout:       payout,
				Rake:         rake,
			},
		}
	default:
		// Both choices were validated before being stored, so an
		// unresolvable pair means the session record is corrupt.
		panic(fmt.Sprintf("unresolvable outcome for session %s", sessionKey))
	}

	g.Reset()
	return []Event{ev}, nil
}

// ForfeitByFirst lets the first mover claim the pot when the second
// mover never answers the first reveal within the forfeit window.
func (e *Engine) ForfeitByFirst(ctx context.Context, caller, sessionKey string) ([]Event, error) {
	if err := e.gate.Allow(ctx, OpForfeitByFirst); err != nil {
		return nil, err
	}
	return e.forfeit(sessionKey, domain.StepFirstRevealed, caller, func(g *domain.Game) (string, string) {
		return g.FirstPlayer, g.SecondPlayer
	})
}

// ForfeitBySecond lets the second mover claim the pot when the first
// mover never reveals within the forfeit window.
func (e *Engine) ForfeitBySecond(ctx context.Context, caller, sessionKey string) ([]Event, error) {
	if err := e.gate.Allow(ctx, OpForfeitBySecond); err != nil {
		return nil, err
	}
	return e.forfeit(sessionKey, domain.StepSecondCommitted, caller, func(g *domain.Game) (string, string) {
		return g.SecondPlayer, g.FirstPlayer
	})
}

func (e *Engine) forfeit(sessionKey string, step domain.Step, caller string, parties func(*domain.Game) (claimant, timedOut string)) ([]Event, error) {
	if sessionKey == "" {
		return nil, ErrEmptySessionKey
	}
	g, ok := e.State.Sessions[sessionKey]
	if !ok || g.Step != step {
		return nil, ErrInvalidStep
	}
	claimant, timedOut := parties(g)
	if caller != claimant {
		return nil, ErrInvalidPlayer
	}
	if !domain.Expired(g.Expiry, e.now()) {
		return nil, ErrGameNotExpired
	}
	payout := 2 * g.Stake
	e.State.Ledger.Credit(claimant, payout)
	g.Reset()
	return []Event{{
		Kind: EventForfeit,
		Payload: ForfeitPayload{
			SessionKey: sessionKey,
			Claimant:   claimant,
			TimedOut:   timedOut,
			Payout:     payout,
		},
	}}, nil
}

// WithdrawEarly refunds the first mover's stake while no opponent has
// joined. The session key stays retired.
func (e *Engine) WithdrawEarly(ctx context.Context, caller, sessionKey string) ([]Event, error) {
	if err := e.gate.Allow(ctx, OpWithdrawEarly); err != nil {
		return nil, err
	}
	if sessionKey == "" {
		return nil, ErrEmptySessionKey
	}
	g, ok := e.State.Sessions[sessionKey]
	if !ok || g.Step != domain.StepFirstCommitted {
		return nil, ErrInvalidStep
	}
	if caller != g.FirstPlayer {
		return nil, ErrInvalidPlayer
	}
	refund := g.Stake
	e.State.Ledger.Credit(caller, refund)
	g.Reset()
	return []Event{{
		Kind: EventEarlyExit,
		Payload: EarlyExitPayload{
			SessionKey: sessionKey,
			Player:     caller,
			Refund:     refund,
		},
	}}, nil
}

// Withdraw debits stored credit and pays it out through the economy
// port. The debit happens before the transfer; a failed transfer rolls
// the debit back and the whole operation fails.
func (e *Engine) Withdraw(ctx context.Context, caller string, amount int64) ([]Event, error) {
	if err := e.gate.Allow(ctx, OpWithdraw); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !e.State.Ledger.Debit(caller, amount) {
		return nil, ErrInsufficientBalance
	}
	if err := e.economy.Disburse(ctx, caller, amount); err != nil {
		e.State.Ledger.Credit(caller, amount)
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return []Event{{
		Kind: EventWithdrawal,
		Payload: WithdrawalPayload{
			Player: caller,
			Amount: amount,
		},
		Recipients: []string{caller},
	}}, nil
}

// Balance returns the caller's stored credit.
func (e *Engine) Balance(ctx context.Context, caller string) (int64, error) {
	if err := e.gate.Allow(ctx, OpBalance); err != nil {
		return 0, err
	}
	return e.State.Ledger.Balance(caller), nil
}
