package nakama

const (
	// RpcArena is the RPC id clients call to find or create the
	// authoritative arena match.
	RpcArena = "roshambo_arena"
	// RpcCommitHash computes a first or second mover commitment for
	// the calling user without touching any state.
	RpcCommitHash = "roshambo_commit_hash"
	// RpcResolve classifies two revealed choices.
	RpcResolve = "roshambo_resolve"
	// RpcPause toggles the access-control gate. Restricted to
	// server-to-server callers and configured admin users.
	RpcPause = "roshambo_pause"

	// MatchNameArena is the authoritative match handler name
	// registered with Nakama.
	MatchNameArena = "roshambo_match"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpCommitFirst     int64 = 1
	OpCommitSecond    int64 = 2
	OpRevealFirst     int64 = 3
	OpRevealSecond    int64 = 4
	OpForfeitByFirst  int64 = 5
	OpForfeitBySecond int64 = 6
	OpWithdrawEarly   int64 = 7
	OpWithdraw        int64 = 8
	OpBalance         int64 = 9

	// Server -> Client
	OpEvent         int64 = 101
	OpBalanceResult int64 = 102
	OpError         int64 = 103
)
