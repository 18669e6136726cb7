package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

var (
	ErrInvalidAccount    = errors.New("invalid account")
	ErrGameUninitialized = errors.New("game not initialized")
)

// RPCClient is the read-only slice of the Solana RPC surface this service
// needs. *rpc.Client satisfies it; it cannot sign anything.
type RPCClient interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
}

type Service struct {
	rpc       RPCClient
	programID solana.PublicKey
	log       *slog.Logger
}

// Claim is an unsigned claim_throne transaction plus the state snapshot it
// was built from.
type Claim struct {
	Transaction string
	State       GameState
}

func NewService(client RPCClient, programID solana.PublicKey, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		rpc:       client,
		programID: programID,
		log:       logger,
	}
}

// FetchGameState reads the game account at its derived address. Absent
// account, decode failure and transport failure all surface as
// ErrGameUninitialized; the distinct cause goes to the log.
func (s *Service) FetchGameState(ctx context.Context) (*GameState, error) {
	gameKey, _, err := DeriveGameAddress(s.programID)
	if err != nil {
		return nil, err
	}
	resp, err := s.rpc.GetAccountInfoWithOpts(ctx, gameKey, &rpc.GetAccountInfoOpts{Commitment: rpc.CommitmentConfirmed})
	if err != nil {
		s.log.Warn("game account fetch failed", "account", gameKey, "err", err)
		return nil, ErrGameUninitialized
	}
	if resp == nil || resp.Value == nil {
		s.log.Warn("game account missing", "account", gameKey, "program", s.programID)
		return nil, ErrGameUninitialized
	}
	state, err := decodeGameState(resp.Value.Data.GetBinary())
	if err != nil {
		s.log.Warn("game account decode failed", "account", gameKey, "err", err)
		return nil, ErrGameUninitialized
	}
	return state, nil
}

// BuildClaimTransaction assembles a single-instruction claim_throne
// transaction with the caller as fee payer and a fresh blockhash, then
// serializes it unsigned as base64. Signing belongs to the caller's wallet.
func (s *Service) BuildClaimTransaction(ctx context.Context, account string) (Claim, error) {
	challenger, err := solana.PublicKeyFromBase58(strings.TrimSpace(account))
	if err != nil {
		return Claim{}, fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}

	state, err := s.FetchGameState(ctx)
	if err != nil {
		return Claim{}, err
	}
	gameKey, _, err := DeriveGameAddress(s.programID)
	if err != nil {
		return Claim{}, err
	}

	ix := NewClaimThroneInstruction(s.programID, gameKey, challenger, state.CurrentEmperor, state.FeeRecipient)

	// Blockhashes expire; fetch at build time, never cache.
	recent, err := s.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return Claim{}, fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		recent.Value.Blockhash,
		solana.TransactionPayer(challenger),
	)
	if err != nil {
		return Claim{}, fmt.Errorf("build transaction: %w", err)
	}
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)

	encoded, err := tx.ToBase64()
	if err != nil {
		return Claim{}, fmt.Errorf("serialize transaction: %w", err)
	}

	return Claim{Transaction: encoded, State: *state}, nil
}
