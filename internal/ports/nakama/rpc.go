package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"roshambo/internal/app"
	"roshambo/internal/config"
	"roshambo/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// RegisterRPCs registers the Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	rpcs := map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){
		RpcArena:      rpcArena,
		RpcCommitHash: rpcCommitHash,
		RpcResolve:    rpcResolve,
		RpcPause:      rpcPause,
	}
	for id, fn := range rpcs {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return err
		}
	}
	return nil
}

// ArenaResponse is returned to clients looking for the arena match.
type ArenaResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// rpcArena finds the authoritative arena match, creating it on first
// use. There is a single shared arena; sessions inside it are keyed by
// commitment.
func rpcArena(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	query := "+label.game:roshambo"

	limit := 1
	authoritative := true

	matches, err := nk.MatchList(ctx, limit, authoritative, "", nil, nil, query)
	if err != nil {
		logger.Error("rpcArena: MatchList error: %v", err)
		return "", err
	}

	if len(matches) > 0 {
		b, _ := json.Marshal(ArenaResponse{MatchID: matches[0].MatchId, IsNew: false})
		return string(b), nil
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameArena, map[string]interface{}{})
	if err != nil {
		logger.Error("rpcArena: MatchCreate error: %v", err)
		return "", err
	}

	b, _ := json.Marshal(ArenaResponse{MatchID: matchID, IsNew: true})
	return string(b), nil
}

// CommitHashRequest asks for a commitment over the caller's identity.
// A present session_key produces a second-mover commitment bound to
// that session; otherwise the result is a first-mover commitment that
// doubles as a fresh session key.
type CommitHashRequest struct {
	SessionKey string `json:"session_key,omitempty"`
	Secret     string `json:"secret"`
	Choice     string `json:"choice"`
}

// CommitHashResponse carries the computed commitment.
type CommitHashResponse struct {
	Commitment string `json:"commitment"`
}

func rpcCommitHash(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", errors.New("rpc requires an authenticated user")
	}

	if err := NewStorageGate(nk).Allow(ctx, "commit_hash"); err != nil {
		return "", err
	}

	var req CommitHashRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", err
	}
	choice, ok := domain.ParseChoice(req.Choice)
	if !ok {
		return "", app.ErrInvalidChoice
	}

	var (
		commitment string
		err        error
	)
	if req.SessionKey == "" {
		commitment, err = app.CommitFirstHash(userID, req.Secret, choice)
	} else {
		commitment, err = app.CommitSecondHash(userID, req.SessionKey, req.Secret, choice)
	}
	if err != nil {
		return "", err
	}

	b, _ := json.Marshal(CommitHashResponse{Commitment: commitment})
	return string(b), nil
}

// ResolveRequest carries two revealed choices to classify.
type ResolveRequest struct {
	First  string `json:"first"`
	Second string `json:"second"`
}

// ResolveResponse names the outcome: draw, first_wins, second_wins or
// invalid.
type ResolveResponse struct {
	Outcome string `json:"outcome"`
}

func rpcResolve(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	if err := NewStorageGate(nk).Allow(ctx, "resolve"); err != nil {
		return "", err
	}

	var req ResolveRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", err
	}

	first, ok := domain.ParseChoice(req.First)
	if !ok {
		return "", app.ErrInvalidChoice
	}
	second, ok := domain.ParseChoice(req.Second)
	if !ok {
		return "", app.ErrInvalidChoice
	}

	b, _ := json.Marshal(ResolveResponse{Outcome: domain.Resolve(first, second).String()})
	return string(b), nil
}

// PauseRequest toggles the access-control gate.
type PauseRequest struct {
	Paused bool `json:"paused"`
}

// rpcPause flips the pause flag every entry point checks. Only
// server-to-server callers (empty user id) and configured admins may
// call it.
func rpcPause(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID != "" && !config.Get().IsAdmin(userID) {
		return "", errors.New("pause gate is admin-only")
	}

	var req PauseRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", err
	}

	if err := writePaused(ctx, nk, req.Paused); err != nil {
		logger.Error("rpcPause: Failed to write pause flag: %v", err)
		return "", err
	}

	logger.Info("Arena pause flag set to %v by %q", req.Paused, userID)
	b, _ := json.Marshal(PauseRequest{Paused: req.Paused})
	return string(b), nil
}
