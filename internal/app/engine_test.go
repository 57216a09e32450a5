package app

import (
	"context"
	"errors"
	"math"
	"testing"

	"roshambo/internal/domain"
	"roshambo/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEconomy struct {
	disbursed   map[string]int64
	failOutward bool
}

func (f *fakeEconomy) Collect(ctx context.Context, userID string, amount int64) error {
	return nil
}

func (f *fakeEconomy) Disburse(ctx context.Context, userID string, amount int64) error {
	if f.failOutward {
		return errors.New("wallet offline")
	}
	if f.disbursed == nil {
		f.disbursed = make(map[string]int64)
	}
	f.disbursed[userID] += amount
	return nil
}

// testArena wraps an engine with a controllable clock and a fake
// economy so scenarios can advance time and observe outbound value.
type testArena struct {
	engine  *Engine
	economy *fakeEconomy
	now     int64
}

func newTestArena(opts Options) *testArena {
	a := &testArena{economy: &fakeEconomy{}, now: 1_000}
	opts.Now = func() int64 { return a.now }
	if opts.Economy == nil {
		opts.Economy = a.economy
	}
	if opts.ForfeitWindow == 0 {
		opts.ForfeitWindow = 60
	}
	a.engine = NewEngine(opts)
	return a
}

func (a *testArena) openSession(t *testing.T, first, secret string, choice domain.Choice, stake int64) string {
	t.Helper()
	key, err := CommitFirstHash(first, secret, choice)
	require.NoError(t, err)
	_, err = a.engine.CommitFirstMove(context.Background(), first, key, stake, stake)
	require.NoError(t, err)
	return key
}

func (a *testArena) joinSession(t *testing.T, second, key, secret string, choice domain.Choice, funded int64) string {
	t.Helper()
	commitment, err := CommitSecondHash(second, key, secret, choice)
	require.NoError(t, err)
	_, err = a.engine.CommitSecondMove(context.Background(), second, key, commitment, funded)
	require.NoError(t, err)
	return commitment
}

func TestWinScenario(t *testing.T) {
	ctx := context.Background()
	a := newTestArena(Options{})

	key := a.openSession(t, "alice", "seed-a", domain.ChoiceRock, 10)
	a.joinSession(t, "bob", key, "seed-b", domain.ChoicePaper, 10)

	_, err := a.engine.RevealFirst(ctx, "alice", "seed-a", domain.ChoiceRock)
	require.NoError(t, err)

	events, err := a.engine.RevealSecond(ctx, "bob", key, "seed-b", domain.ChoicePaper)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventSettled, events[0].Kind)

	payload := events[0].Payload.(SettledPayload)
	assert.Equal(t, "bob", payload.Winner)
	assert.Equal(t, "alice", payload.Loser)
	assert.Equal(t, int64(20), payload.Payout)

	assert.Equal(t, int64(20), a.engine.State.Ledger.Balance("bob"))
	assert.Equal(t, int64(0), a.engine.State.Ledger.Balance("alice"))
	assert.Equal(t, domain.StepUnstarted, a.engine.State.Sessions[key].Step)
}

func TestDrawScenario(t *testing.T) {
	ctx := context.Background()
	a := newTestArena(Options{})

	key := a.openSession(t, "alice", "seed-a", domain.ChoiceRock, 10)
	a.joinSession(t, "bob", key, "seed-b", domain.ChoiceRock, 10)

	_, err := a.engine.RevealFirst(ctx, "alice", "seed-a", domain.ChoiceRock)
	require.NoError(t, err)

	events, err := a.engine.RevealSecond(ctx, "bob", key, "seed-b", domain.ChoiceRock)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventDraw, events[0].Kind)

	// Both stakes come back; the escrowed pot is fully redistributed.
	assert.Equal(t, int64(10), a.engine.State.Ledger.Balance("alice"))
	assert.Equal(t, int64(10), a.engine.State.Ledger.Balance("bob"))
}

func TestForfeitAfterFirstReveal(t *testing.T) {
	ctx := context.Background()
	a := newTestArena(Options{ForfeitWindow: 60})

	key := a.openSession(t, "alice", "seed-a", domain.ChoiceRock, 10)
	a.joinSession(t, "bob", key, "seed-b", domain.ChoicePaper, 10)
	_, err := a.engine.RevealFirst(ctx, "alice", "seed-a", domain.ChoiceRock)
	require.NoError(t, err)

	// Bob never reveals. Before the window elapses the claim is
	// rejected and nothing changes.
	_, err = a.engine.ForfeitByFirst(ctx, "alice", key)
	assert.ErrorIs(t, err, ErrGameNotExpired)
	assert.Equal(t, domain.StepFirstRevealed, a.engine.State.Sessions[key].Step)

	a.now += 61

	_, err = a.engine.ForfeitByFirst(ctx, "bob", key)
	assert.ErrorIs(t, err, ErrInvalidPlayer)

	events, err := a.engine.ForfeitByFirst(ctx, "alice", key)
	require.NoError(t, err)
	assert.Equal(t, EventForfeit, events[0].Kind)
	assert.Equal(t, int64(20), a.engine.State.Ledger.Balance("alice"))
	assert.Equal(t, int64(0), a.engine.State.Ledger.Balance("bob"))
}

func TestForfeitWhenFirstNeverReveals(t *testing.T) {
	ctx := context.Background()
	a := newTestArena(Options{ForfeitWindow: 60})

	key := a.openSession(t, "alice", "seed-a", domain.ChoiceRock, 10)
	a.joinSession(t, "bob", key, "seed-b", domain.ChoicePaper, 10)

	a.now += 61

	_, err := a.engine.ForfeitBySecond(ctx, "alice", key)
	assert.ErrorIs(t, err, ErrInvalidPlayer)

	events, err := a.engine.ForfeitBySecond(ctx, "bob", key)
	require.NoError(t, err)
	assert.Equal(t, EventForfeit, events[0].Kind)
	assert.Equal(t, int64(20), a.engine.State.Ledger.Balance("bob"))
}

func TestEarlyExit(t *testing.T) {
	ctx := context.Background()
	a := newTestArena(Options{})

	key := a.openSession(t, "alice", "seed-a", domain.ChoiceRock, 10)

	_, err := a.engine.WithdrawEarly(ctx, "bob", key)
	assert.ErrorIs(t, err, ErrInvalidPlayer)

	events, err := a.engine.WithdrawEarly(ctx, "alice", key)
	require.NoError(t, err)
	assert.Equal(t, EventEarlyExit, events[0].Kind)
	assert.Equal(t, int64(10), a.engine.State.Ledger.Balance("alice"))

	// No opponent can join the abandoned session.
	commitment, err := CommitSecondHash("bob", key, "seed-b", domain.ChoicePaper)
	require.NoError(t, err)
	_, err = a.engine.CommitSecondMove(ctx, "bob", key, commitment, 10)
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestKeyRetirement(t *testing.T) {
	ctx := context.Background()

	outcomes := map[string]func(t *testing.T, a *testArena, key string){
		"after draw settlement": func(t *testing.T, a *testArena, key string) {
			a.joinSession(t, "bob", key, "seed-b", domain.ChoiceRock, 10)
			_, err := a.engine.RevealFirst(ctx, "alice", "seed-a", domain.ChoiceRock)
			require.NoError(t, err)
			_, err = a.engine.RevealSecond(ctx, "bob", key, "seed-b", domain.ChoiceRock)
			require.NoError(t, err)
		},
		"after forfeit": func(t *testing.T, a *testArena, key string) {
			a.joinSession(t, "bob", key, "seed-b", domain.ChoiceRock, 10)
			a.now += 61
			_, err := a.engine.ForfeitBySecond(ctx, "bob", key)
			require.NoError(t, err)
		},
		"after early withdrawal": func(t *testing.T, a *testArena, key string) {
			_, err := a.engine.WithdrawEarly(ctx, "alice", key)
			require.NoError(t, err)
		},
	}

	for name, finish := range outcomes {
		t.Run(name, func(t *testing.T) {
			a := newTestArena(Options{ForfeitWindow: 60})
			key := a.openSession(t, "alice", "seed-a", domain.ChoiceRock, 10)
			finish(t, a, key)

			// The session reset, but the key is consumed forever.
			_, err := a.engine.CommitFirstMove(ctx, "alice", key, 10, 10)
			assert.ErrorIs(t, err, ErrInvalidStep)
			_, err = a.engine.CommitFirstMove(ctx, "mallory", key, 5, 5)
			assert.ErrorIs(t, err, ErrInvalidStep)
		})
	}
}

func TestOversizedStakeRejected(t *testing.T) {
	ctx := context.Background()
	a := newTestArena(Options{})

	// A stake above half the int64 range would make the 2*stake pot
	// overflow into a negative winner credit at settlement.
	huge := int64(1) << 62
	key, err := CommitFirstHash("alice", "seed-a", domain.ChoiceRock)
	require.NoError(t, err)

	_, err = a.engine.CommitFirstMove(ctx, "alice", key, huge, huge)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.NotContains(t, a.engine.State.Sessions, key)

	// The largest representable stake still settles without wrapping.
	maxStake := int64(math.MaxInt64 / 2)
	key = a.openSession(t, "alice", "seed-a", domain.ChoiceRock, maxStake)
	a.joinSession(t, "bob", key, "seed-b", domain.ChoicePaper, maxStake)
	_, err = a.engine.RevealFirst(ctx, "alice", "seed-a", domain.ChoiceRock)
	require.NoError(t, err)
	_, err = a.engine.RevealSecond(ctx, "bob", key, "seed-b", domain.ChoicePaper)
	require.NoError(t, err)
	assert.Equal(t, 2*maxStake, a.engine.State.Ledger.Balance("bob"))
	assert.Positive(t, a.engine.State.Ledger.Balance("bob"))
}

func TestEmptySecondCommitmentRejected(t *testing.T) {
	ctx := context.Background()
	a := newTestArena(Options{})

	key := a.openSession(t, "alice", "seed-a", domain.ChoiceRock, 10)

	// An empty commitment can never be matched by any reveal, which
	// would leave the session settleable only by forfeit.
	a.engine.State.Ledger.Credit("bob", 10)
	_, err := a.engine.CommitSecondMove(ctx, "bob", key, "", 0)
	assert.ErrorIs(t, err, ErrEmptyCommitment)
	assert.Equal(t, int64(10), a.engine.State.Ledger.Balance("bob"))
	assert.Equal(t, domain.StepFirstCommitted, a.engine.State.Sessions[key].Step)
}

func TestInsufficientFundingLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	a := newTestArena(Options{})
	a.engine.State.Ledger.Credit("alice", 3)

	key, err := CommitFirstHash("alice", "seed-a", domain.ChoiceRock)
	require.NoError(t, err)

	_, err = a.engine.CommitFirstMove(ctx, "alice", key, 10, 4)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, int64(3), a.engine.State.Ledger.Balance("alice"))
	assert.NotContains(t, a.engine.State.Sessions, key)
}

func TestFundingShortfallAndSurplus(t *testing.T) {
	ctx := context.Background()
	a := newTestArena(Options{})

	// Surplus: alice sends 15 on a 10 stake, 5 lands in the ledger.
	key := a.openSession(t, "alice", "seed-a", domain.ChoiceRock, 10)
	g := a.engine.State.Sessions[key]
	require.Equal(t, domain.StepFirstCommitted, g.Step)

	a.engine.State.Ledger.Credit("bob", 6)
	commitment, err := CommitSecondHash("bob", key, "seed-b", domain.ChoicePaper)
	require.NoError(t, err)

	// Shortfall: bob sends 4, the remaining 6 comes from his credit.
	_, err = a.engine.CommitSecondMove(ctx, "bob", key, commitment, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(0), a.engine.State.Ledger.Balance("bob"))

	key2, err := CommitFirstHash("carol", "seed-c", domain.ChoiceRock)
	require.NoError(t, err)
	_, err = a.engine.CommitFirstMove(ctx, "carol", key2, 10, 15)
	require.NoError(t, err)
	assert.Equal(t, int64(5), a.engine.State.Ledger.Balance("carol"))
}

func TestRevealFirstWrongSecretHitsInertKey(t *testing.T) {
	ctx := context.Background()
	a := newTestArena(Options{})

	key := a.openSession(t, "alice", "seed-a", domain.ChoiceRock, 10)
	a.joinSession(t, "bob", key, "seed-b", domain.ChoicePaper, 10)

	// A wrong secret or choice recomputes to a key with no session in
	// progress, indistinguishable from a wrong-step call.
	_, err := a.engine.RevealFirst(ctx, "alice", "wrong-seed", domain.ChoiceRock)
	assert.ErrorIs(t, err, ErrInvalidStep)
	_, err = a.engine.RevealFirst(ctx, "alice", "seed-a", domain.ChoicePaper)
	assert.ErrorIs(t, err, ErrInvalidStep)

	_, err = a.engine.RevealFirst(ctx, "alice", "seed-a", domain.ChoiceRock)
	assert.NoError(t, err)
}

func TestRevealSecondHashMismatch(t *testing.T) {
	ctx := context.Background()
	a := newTestArena(Options{})

	key := a.openSession(t, "alice", "seed-a", domain.ChoiceRock, 10)
	a.joinSession(t, "bob", key, "seed-b", domain.ChoicePaper, 10)
	_, err := a.engine.RevealFirst(ctx, "alice", "seed-a", domain.ChoiceRock)
	require.NoError(t, err)

	_, err = a.engine.RevealSecond(ctx, "bob", key, "wrong-seed", domain.ChoicePaper)
	assert.ErrorIs(t, err, ErrHashMismatch)
	_, err = a.engine.RevealSecond(ctx, "bob", key, "seed-b", domain.ChoiceScissors)
	assert.ErrorIs(t, err, ErrHashMismatch)
	// A third party cannot settle with the second mover's reveal.
	_, err = a.engine.RevealSecond(ctx, "mallory", key, "seed-b", domain.ChoicePaper)
	assert.ErrorIs(t, err, ErrHashMismatch)

	// The failed attempts changed nothing; the real reveal settles.
	_, err = a.engine.RevealSecond(ctx, "bob", key, "seed-b", domain.ChoicePaper)
	require.NoError(t, err)
	assert.Equal(t, int64(20), a.engine.State.Ledger.Balance("bob"))
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	a := newTestArena(Options{})
	a.engine.State.Ledger.Credit("alice", 30)

	_, err := a.engine.Withdraw(ctx, "alice", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = a.engine.Withdraw(ctx, "alice", -5)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = a.engine.Withdraw(ctx, "alice", 31)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	events, err := a.engine.Withdraw(ctx, "alice", 12)
	require.NoError(t, err)
	assert.Equal(t, EventWithdrawal, events[0].Kind)
	assert.Equal(t, int64(18), a.engine.State.Ledger.Balance("alice"))
	assert.Equal(t, int64(12), a.economy.disbursed["alice"])
}

func TestWithdrawRollsBackOnTransferFailure(t *testing.T) {
	ctx := context.Background()
	a := newTestArena(Options{})
	a.engine.State.Ledger.Credit("alice", 30)
	a.economy.failOutward = true

	_, err := a.engine.Withdraw(ctx, "alice", 12)
	assert.ErrorIs(t, err, ErrTransferFailed)
	// The debit preceded the transfer and was rolled back with it.
	assert.Equal(t, int64(30), a.engine.State.Ledger.Balance("alice"))
}

func TestPausedGateBlocksEveryEntryPoint(t *testing.T) {
	ctx := context.Background()
	a := newTestArena(Options{
		Gate: ports.GateFunc(func(context.Context, string) error { return ErrPaused }),
	})

	key, err := CommitFirstHash("alice", "seed-a", domain.ChoiceRock)
	require.NoError(t, err)

	calls := []func() error{
		func() error { _, err := a.engine.CommitFirstMove(ctx, "alice", key, 10, 10); return err },
		func() error { _, err := a.engine.CommitSecondMove(ctx, "bob", key, "c", 10); return err },
		func() error { _, err := a.engine.RevealFirst(ctx, "alice", "seed-a", domain.ChoiceRock); return err },
		func() error { _, err := a.engine.RevealSecond(ctx, "bob", key, "seed-b", domain.ChoicePaper); return err },
		func() error { _, err := a.engine.ForfeitByFirst(ctx, "alice", key); return err },
		func() error { _, err := a.engine.ForfeitBySecond(ctx, "bob", key); return err },
		func() error { _, err := a.engine.WithdrawEarly(ctx, "alice", key); return err },
		func() error { _, err := a.engine.Withdraw(ctx, "alice", 5); return err },
		func() error { _, err := a.engine.Balance(ctx, "alice"); return err },
	}
	for i, call := range calls {
		assert.ErrorIs(t, call(), ErrPaused, "entry point %d ignored the gate", i)
	}
	assert.Empty(t, a.engine.State.Sessions)
}

func TestRakeSettlementConservesPot(t *testing.T) {
	ctx := context.Background()
	a := newTestArena(Options{
		Policy:  RakeSettlement(10),
		HouseID: "house",
	})

	key := a.openSession(t, "alice", "seed-a", domain.ChoiceRock, 10)
	a.joinSession(t, "bob", key, "seed-b", domain.ChoicePaper, 10)
	_, err := a.engine.RevealFirst(ctx, "alice", "seed-a", domain.ChoiceRock)
	require.NoError(t, err)
	events, err := a.engine.RevealSecond(ctx, "bob", key, "seed-b", domain.ChoicePaper)
	require.NoError(t, err)

	payload := events[0].Payload.(SettledPayload)
	assert.Equal(t, int64(18), payload.Payout)
	assert.Equal(t, int64(2), payload.Rake)
	assert.Equal(t, int64(18), a.engine.State.Ledger.Balance("bob"))
	assert.Equal(t, int64(2), a.engine.State.Ledger.Balance("house"))
}

func TestRakeWithoutHouseFoldsBackIntoPayout(t *testing.T) {
	ctx := context.Background()
	a := newTestArena(Options{Policy: RakeSettlement(10)})

	key := a.openSession(t, "alice", "seed-a", domain.ChoiceRock, 10)
	a.joinSession(t, "bob", key, "seed-b", domain.ChoicePaper, 10)
	_, err := a.engine.RevealFirst(ctx, "alice", "seed-a", domain.ChoiceRock)
	require.NoError(t, err)
	events, err := a.engine.RevealSecond(ctx, "bob", key, "seed-b", domain.ChoicePaper)
	require.NoError(t, err)

	payload := events[0].Payload.(SettledPayload)
	assert.Equal(t, int64(20), payload.Payout)
	assert.Equal(t, int64(0), payload.Rake)
}

func TestCommitHashQueries(t *testing.T) {
	_, err := CommitFirstHash("alice", "", domain.ChoiceRock)
	assert.ErrorIs(t, err, ErrEmptySecret)
	_, err = CommitFirstHash("alice", "seed", domain.ChoiceNone)
	assert.ErrorIs(t, err, ErrInvalidChoice)

	_, err = CommitSecondHash("bob", "", "seed", domain.ChoiceRock)
	assert.ErrorIs(t, err, ErrEmptySessionKey)
	_, err = CommitSecondHash("bob", "key", "", domain.ChoiceRock)
	assert.ErrorIs(t, err, ErrEmptySecret)
	_, err = CommitSecondHash("bob", "key", "seed", domain.Choice(42))
	assert.ErrorIs(t, err, ErrInvalidChoice)

	first, err := CommitFirstHash("alice", "seed", domain.ChoiceRock)
	require.NoError(t, err)
	second, err := CommitSecondHash("alice", first, "seed", domain.ChoiceRock)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
