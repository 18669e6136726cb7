package chain

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// GameSeed is the fixed PDA seed of the singleton game account.
const GameSeed = "game"

var (
	gameAccountDiscriminator = anchorAccountDiscriminator("Game")
	claimThroneDiscriminator = anchorInstructionDiscriminator("claim_throne")
)

// GameState mirrors the on-chain game account. The chain owns it; this
// service only ever reads it.
type GameState struct {
	CurrentBid     uint64
	CurrentEmperor solana.PublicKey
	FeeRecipient   solana.PublicKey
}

func DeriveGameAddress(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress([][]byte{[]byte(GameSeed)}, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive game address: %w", err)
	}
	return addr, bump, nil
}

func decodeGameState(data []byte) (*GameState, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("account data too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], gameAccountDiscriminator[:]) {
		return nil, fmt.Errorf("account discriminator mismatch")
	}
	var state GameState
	if err := bin.NewBorshDecoder(data[8:]).Decode(&state); err != nil {
		return nil, fmt.Errorf("decode game account: %w", err)
	}
	return &state, nil
}

// NewClaimThroneInstruction binds the challenger against the emperor and
// fee recipient as they stand right now. Account order matches the
// program's claim_throne handler.
func NewClaimThroneInstruction(programID, game, challenger, emperor, feeRecipient solana.PublicKey) solana.Instruction {
	data := make([]byte, 8)
	copy(data, claimThroneDiscriminator[:])

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(game, true, false),
		solana.NewAccountMeta(challenger, true, true),
		solana.NewAccountMeta(emperor, true, false),
		solana.NewAccountMeta(feeRecipient, true, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}

	return solana.NewInstruction(programID, accounts, data)
}

func anchorInstructionDiscriminator(name string) [8]byte {
	hash := sha256.Sum256([]byte("global:" + name))
	var out [8]byte
	copy(out[:], hash[:8])
	return out
}

func anchorAccountDiscriminator(name string) [8]byte {
	hash := sha256.Sum256([]byte("account:" + name))
	var out [8]byte
	copy(out[:], hash[:8])
	return out
}
