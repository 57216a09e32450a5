package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"roshambo/internal/app"
	"roshambo/internal/config"
	"roshambo/internal/domain"
	"roshambo/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// arenaTickRate keeps the loop slow; nothing is timer-driven, expiry
// is only evaluated when a forfeit message arrives.
const arenaTickRate = 1

// ArenaState holds the runtime state for the arena match handler. The
// match loop is Nakama's serialization boundary: no two messages for
// the same arena are ever processed concurrently, which is the
// atomicity guarantee the engine is built against.
type ArenaState struct {
	Engine    *app.Engine                 `json:"-"`
	Presences map[string]runtime.Presence `json:"-"`
	Store     ports.ArenaStore            `json:"-"`
	Economy   ports.EconomyPort           `json:"-"`
}

type arenaHandler struct{}

func newArenaHandler() *arenaHandler {
	return &arenaHandler{}
}

// Client command payloads, one per opcode.

type commitFirstCmd struct {
	Commitment string `json:"commitment"`
	Stake      int64  `json:"stake"`
	Funded     int64  `json:"funded"`
}

type commitSecondCmd struct {
	SessionKey string `json:"session_key"`
	Commitment string `json:"commitment"`
	Funded     int64  `json:"funded"`
}

type revealFirstCmd struct {
	Secret string `json:"secret"`
	Choice string `json:"choice"`
}

type revealSecondCmd struct {
	SessionKey string `json:"session_key"`
	Secret     string `json:"secret"`
	Choice     string `json:"choice"`
}

type sessionKeyCmd struct {
	SessionKey string `json:"session_key"`
}

type withdrawCmd struct {
	Amount int64 `json:"amount"`
}

type eventEnvelope struct {
	Kind    app.EventKind `json:"kind"`
	Payload any           `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type balancePayload struct {
	Balance int64 `json:"balance"`
}

// MatchInit restores the engine from the last stored snapshot and
// labels the match so the arena RPC can find it.
func (mh *arenaHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	cfg := config.Get()

	store := NewStorageArenaStore(nk)
	economy := NewWalletEconomyAdapter(nk, cfg.Currency)

	var engineState *app.State
	if snapshot, err := store.Load(ctx); err != nil {
		logger.Warn("MatchInit: Could not load arena snapshot: %v", err)
	} else if snapshot != nil {
		restored := app.NewState()
		if err := json.Unmarshal(snapshot, restored); err != nil {
			logger.Warn("MatchInit: Could not decode arena snapshot: %v", err)
		} else {
			engineState = restored
		}
	}

	engine := app.NewEngine(app.Options{
		ForfeitWindow: cfg.ForfeitWindowSeconds,
		Policy:        app.RakeSettlement(cfg.RakePercent),
		HouseID:       cfg.HouseID,
		Gate:          NewStorageGate(nk),
		Economy:       economy,
		State:         engineState,
	})

	state := &ArenaState{
		Engine:    engine,
		Presences: make(map[string]runtime.Presence),
		Store:     store,
		Economy:   economy,
	}

	label, err := json.Marshal(map[string]string{"game": "roshambo", "open": "T"})
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return state, arenaTickRate, ""
	}
	return state, arenaTickRate, string(label)
}

// MatchJoinAttempt accepts everyone; the arena has no seats, sessions
// pair off-protocol by sharing a session key.
func (mh *arenaHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	return state, true, ""
}

// MatchJoin tracks presences and answers each joiner with its current
// ledger balance.
func (mh *arenaHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	arena, ok := state.(*ArenaState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		arena.Presences[p.GetUserId()] = p
		mh.sendBalance(ctx, logger, dispatcher, arena, p)
	}
	return arena
}

// MatchLeave drops presences. The arena itself never terminates on an
// empty room; session records and balances outlive connections.
func (mh *arenaHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	arena, ok := state.(*ArenaState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(arena.Presences, p.GetUserId())
	}
	return arena
}

// MatchLoop dispatches client commands to the engine one at a time and
// persists a snapshot after any mutation.
func (mh *arenaHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	arena, ok := state.(*ArenaState)
	if !ok {
		logger.Error("MatchLoop: state not found")
		return state
	}

	mutated := false
	for _, msg := range messages {
		if msg.GetOpCode() == OpBalance {
			if p, online := arena.Presences[msg.GetUserId()]; online {
				mh.sendBalance(ctx, logger, dispatcher, arena, p)
			}
			continue
		}

		events, err := mh.dispatch(ctx, logger, arena, msg)
		if err != nil {
			mh.sendError(logger, dispatcher, arena, msg.GetUserId(), err)
			continue
		}
		mutated = true
		mh.broadcast(logger, dispatcher, arena, events)
	}

	if mutated {
		if err := mh.persist(ctx, arena); err != nil {
			logger.Error("MatchLoop: Failed to persist arena snapshot: %v", err)
		}
	}
	return arena
}

// dispatch decodes one client command and runs the matching engine
// operation. Funding commands pull attached value from the caller's
// wallet first and refund it if the operation is rejected, so a failed
// entry point leaves no trace anywhere.
func (mh *arenaHandler) dispatch(ctx context.Context, logger runtime.Logger, arena *ArenaState, msg runtime.MatchData) ([]app.Event, error) {
	caller := msg.GetUserId()

	switch msg.GetOpCode() {
	case OpCommitFirst:
		var cmd commitFirstCmd
		if err := json.Unmarshal(msg.GetData(), &cmd); err != nil {
			return nil, err
		}
		return mh.funded(ctx, logger, arena, caller, cmd.Funded, func() ([]app.Event, error) {
			return arena.Engine.CommitFirstMove(ctx, caller, cmd.Commitment, cmd.Stake, cmd.Funded)
		})

	case OpCommitSecond:
		var cmd commitSecondCmd
		if err := json.Unmarshal(msg.GetData(), &cmd); err != nil {
			return nil, err
		}
		return mh.funded(ctx, logger, arena, caller, cmd.Funded, func() ([]app.Event, error) {
			return arena.Engine.CommitSecondMove(ctx, caller, cmd.SessionKey, cmd.Commitment, cmd.Funded)
		})

	case OpRevealFirst:
		var cmd revealFirstCmd
		if err := json.Unmarshal(msg.GetData(), &cmd); err != nil {
			return nil, err
		}
		choice, ok := domain.ParseChoice(cmd.Choice)
		if !ok {
			return nil, app.ErrInvalidChoice
		}
		return arena.Engine.RevealFirst(ctx, caller, cmd.Secret, choice)

	case OpRevealSecond:
		var cmd revealSecondCmd
		if err := json.Unmarshal(msg.GetData(), &cmd); err != nil {
			return nil, err
		}
		choice, ok := domain.ParseChoice(cmd.Choice)
		if !ok {
			return nil, app.ErrInvalidChoice
		}
		return arena.Engine.RevealSecond(ctx, caller, cmd.SessionKey, cmd.Secret, choice)

	case OpForfeitByFirst:
		var cmd sessionKeyCmd
		if err := json.Unmarshal(msg.GetData(), &cmd); err != nil {
			return nil, err
		}
		return arena.Engine.ForfeitByFirst(ctx, caller, cmd.SessionKey)

	case OpForfeitBySecond:
		var cmd sessionKeyCmd
		if err := json.Unmarshal(msg.GetData(), &cmd); err != nil {
			return nil, err
		}
		return arena.Engine.ForfeitBySecond(ctx, caller, cmd.SessionKey)

	case OpWithdrawEarly:
		var cmd sessionKeyCmd
		if err := json.Unmarshal(msg.GetData(), &cmd); err != nil {
			return nil, err
		}
		return arena.Engine.WithdrawEarly(ctx, caller, cmd.SessionKey)

	case OpWithdraw:
		var cmd withdrawCmd
		if err := json.Unmarshal(msg.GetData(), &cmd); err != nil {
			return nil, err
		}
		return arena.Engine.Withdraw(ctx, caller, cmd.Amount)

	default:
		return nil, errors.New("unknown opcode")
	}
}

// funded wraps an engine call that carries attached value: the value
// is collected from the wallet up front and refunded when the engine
// rejects the operation. A failed refund strands the collected value,
// so it is logged at error level for reconciliation.
func (mh *arenaHandler) funded(ctx context.Context, logger runtime.Logger, arena *ArenaState, caller string, amount int64, op func() ([]app.Event, error)) ([]app.Event, error) {
	if amount > 0 {
		if err := arena.Economy.Collect(ctx, caller, amount); err != nil {
			return nil, err
		}
	}
	events, err := op()
	if err != nil && amount > 0 {
		if refundErr := arena.Economy.Disburse(ctx, caller, amount); refundErr != nil {
			logger.Error("Stranded %d collected from user %s: refund failed after rejected operation (%v): %v", amount, caller, err, refundErr)
			return nil, errors.Join(err, refundErr)
		}
	}
	return events, err
}

func (mh *arenaHandler) persist(ctx context.Context, arena *ArenaState) error {
	snapshot, err := json.Marshal(arena.Engine.State)
	if err != nil {
		return err
	}
	return arena.Store.Save(ctx, snapshot)
}

func (mh *arenaHandler) broadcast(logger runtime.Logger, dispatcher runtime.MatchDispatcher, arena *ArenaState, events []app.Event) {
	for _, ev := range events {
		bytes, err := json.Marshal(eventEnvelope{Kind: ev.Kind, Payload: ev.Payload})
		if err != nil {
			logger.Error("broadcast: Failed to marshal %s event: %v", ev.Kind, err)
			continue
		}

		var recipients []runtime.Presence
		if len(ev.Recipients) > 0 {
			for _, userID := range ev.Recipients {
				if p, online := arena.Presences[userID]; online {
					recipients = append(recipients, p)
				}
			}
			if len(recipients) == 0 {
				continue
			}
		}
		dispatcher.BroadcastMessage(OpEvent, bytes, recipients, nil, true)
	}
}

func (mh *arenaHandler) sendBalance(ctx context.Context, logger runtime.Logger, dispatcher runtime.MatchDispatcher, arena *ArenaState, p runtime.Presence) {
	balance, err := arena.Engine.Balance(ctx, p.GetUserId())
	if err != nil {
		mh.sendError(logger, dispatcher, arena, p.GetUserId(), err)
		return
	}
	bytes, err := json.Marshal(balancePayload{Balance: balance})
	if err != nil {
		logger.Error("sendBalance: Failed to marshal payload: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpBalanceResult, bytes, []runtime.Presence{p}, nil, true)
}

func (mh *arenaHandler) sendError(logger runtime.Logger, dispatcher runtime.MatchDispatcher, arena *ArenaState, userID string, opErr error) {
	logger.Debug("Rejected operation from %s: %v", userID, opErr)

	p, online := arena.Presences[userID]
	if !online {
		return
	}
	bytes, err := json.Marshal(errorPayload{Code: errorCode(opErr), Message: opErr.Error()})
	if err != nil {
		logger.Error("sendError: Failed to marshal payload: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpError, bytes, []runtime.Presence{p}, nil, true)
}

// errorCode maps engine errors to stable codes clients can branch on.
func errorCode(err error) string {
	switch {
	case errors.Is(err, app.ErrPaused):
		return "paused"
	case errors.Is(err, app.ErrInvalidStep):
		return "invalid_step"
	case errors.Is(err, app.ErrInvalidChoice):
		return "invalid_choice"
	case errors.Is(err, app.ErrInvalidPlayer):
		return "invalid_player"
	case errors.Is(err, app.ErrHashMismatch):
		return "hash_mismatch"
	case errors.Is(err, app.ErrEmptySecret):
		return "empty_secret"
	case errors.Is(err, app.ErrEmptySessionKey):
		return "empty_session_key"
	case errors.Is(err, app.ErrEmptyCommitment):
		return "empty_commitment"
	case errors.Is(err, app.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, app.ErrGameNotExpired):
		return "game_not_expired"
	case errors.Is(err, app.ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, app.ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "internal"
	}
}

// MatchTerminate persists a final snapshot before the handler goes
// away.
func (mh *arenaHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	arena, ok := state.(*ArenaState)
	if !ok {
		return state
	}
	if err := mh.persist(ctx, arena); err != nil {
		logger.Error("MatchTerminate: Failed to persist arena snapshot: %v", err)
	}
	return arena
}

func (mh *arenaHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
