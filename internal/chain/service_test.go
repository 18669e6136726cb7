package chain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

type fakeRPC struct {
	account        *rpc.Account
	accountErr     error
	accountCalls   int
	blockhash      solana.Hash
	blockhashErr   error
	blockhashCalls int
}

func (f *fakeRPC) GetAccountInfoWithOpts(_ context.Context, _ solana.PublicKey, _ *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error) {
	f.accountCalls++
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	return &rpc.GetAccountInfoResult{Value: f.account}, nil
}

func (f *fakeRPC) GetLatestBlockhash(_ context.Context, _ rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	f.blockhashCalls++
	if f.blockhashErr != nil {
		return nil, f.blockhashErr
	}
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{Blockhash: f.blockhash, LastValidBlockHeight: 100},
	}, nil
}

func accountWithData(t *testing.T, data []byte) *rpc.Account {
	t.Helper()
	payload := fmt.Sprintf(
		`{"lamports":1,"owner":"%s","data":["%s","base64"]}`,
		testProgram, base64.StdEncoding.EncodeToString(data),
	)
	var acc rpc.Account
	if err := json.Unmarshal([]byte(payload), &acc); err != nil {
		t.Fatalf("build account fixture: %v", err)
	}
	return &acc
}

func newTestService(f *fakeRPC) *Service {
	return NewService(f, testProgram, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFetchGameState(t *testing.T) {
	fake := &fakeRPC{account: accountWithData(t, encodeGame(t, 3_000_000_000, testEmperor, testFee))}
	state, err := newTestService(fake).FetchGameState(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if state.CurrentBid != 3_000_000_000 {
		t.Fatalf("current bid = %d", state.CurrentBid)
	}
	if !state.CurrentEmperor.Equals(testEmperor) || !state.FeeRecipient.Equals(testFee) {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestFetchGameStateUninitialized(t *testing.T) {
	cases := map[string]*fakeRPC{
		"rpc error":      {accountErr: errors.New("connection refused")},
		"missing":        {account: nil},
		"decode failure": {account: accountWithData(t, []byte{1, 2, 3, 4})},
	}
	for name, fake := range cases {
		if _, err := newTestService(fake).FetchGameState(context.Background()); !errors.Is(err, ErrGameUninitialized) {
			t.Fatalf("%s: err = %v, want ErrGameUninitialized", name, err)
		}
	}
}

func TestBuildClaimTransactionInvalidAccount(t *testing.T) {
	fake := &fakeRPC{}
	_, err := newTestService(fake).BuildClaimTransaction(context.Background(), "not-a-base58-key")
	if !errors.Is(err, ErrInvalidAccount) {
		t.Fatalf("err = %v, want ErrInvalidAccount", err)
	}
	if fake.accountCalls != 0 || fake.blockhashCalls != 0 {
		t.Fatalf("expected no RPC calls, got account=%d blockhash=%d", fake.accountCalls, fake.blockhashCalls)
	}
}

func TestBuildClaimTransactionUninitialized(t *testing.T) {
	fake := &fakeRPC{accountErr: errors.New("connection refused")}
	_, err := newTestService(fake).BuildClaimTransaction(context.Background(), testChallenge.String())
	if !errors.Is(err, ErrGameUninitialized) {
		t.Fatalf("err = %v, want ErrGameUninitialized", err)
	}
	if fake.blockhashCalls != 0 {
		t.Fatalf("expected no blockhash fetch for uninitialized game")
	}
}

func TestBuildClaimTransaction(t *testing.T) {
	fake := &fakeRPC{
		account:   accountWithData(t, encodeGame(t, 1_000_000_000, testEmperor, testFee)),
		blockhash: solana.Hash{7},
	}
	claim, err := newTestService(fake).BuildClaimTransaction(context.Background(), testChallenge.String())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if claim.State.CurrentBid != 1_000_000_000 {
		t.Fatalf("claim state bid = %d", claim.State.CurrentBid)
	}

	raw, err := base64.StdEncoding.DecodeString(claim.Transaction)
	if err != nil {
		t.Fatalf("transaction is not valid base64: %v", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		t.Fatalf("transaction does not deserialize: %v", err)
	}

	for _, sig := range tx.Signatures {
		if !sig.IsZero() {
			t.Fatalf("expected unsigned transaction, found signature %s", sig)
		}
	}
	if !tx.Message.AccountKeys[0].Equals(testChallenge) {
		t.Fatalf("fee payer = %s, want %s", tx.Message.AccountKeys[0], testChallenge)
	}
	if tx.Message.RecentBlockhash != fake.blockhash {
		t.Fatalf("blockhash = %s", tx.Message.RecentBlockhash)
	}
	if len(tx.Message.Instructions) != 1 {
		t.Fatalf("expected exactly one instruction, got %d", len(tx.Message.Instructions))
	}

	referenced := instructionKeys(t, tx)
	game, _, _ := DeriveGameAddress(testProgram)
	for _, want := range []solana.PublicKey{game, testChallenge, testEmperor, testFee, solana.SystemProgramID} {
		if !referenced[want] {
			t.Fatalf("instruction does not reference %s", want)
		}
	}
}

// A second build after the on-chain emperor changes must reference the new
// emperor, not any cached one.
func TestBuildClaimTransactionUsesLiveState(t *testing.T) {
	fake := &fakeRPC{
		account:   accountWithData(t, encodeGame(t, 1_000_000_000, testEmperor, testFee)),
		blockhash: solana.Hash{7},
	}
	svc := newTestService(fake)

	first, err := svc.BuildClaimTransaction(context.Background(), testChallenge.String())
	if err != nil {
		t.Fatalf("first build: %v", err)
	}

	newEmperor := solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
	fake.account = accountWithData(t, encodeGame(t, 1_100_000_000, newEmperor, testFee))

	second, err := svc.BuildClaimTransaction(context.Background(), testChallenge.String())
	if err != nil {
		t.Fatalf("second build: %v", err)
	}

	if !instructionKeys(t, decodeTx(t, first.Transaction))[testEmperor] {
		t.Fatalf("first transaction missing original emperor")
	}
	keys := instructionKeys(t, decodeTx(t, second.Transaction))
	if !keys[newEmperor] {
		t.Fatalf("second transaction missing new emperor")
	}
	if keys[testEmperor] {
		t.Fatalf("second transaction still references the displaced emperor")
	}
}

func decodeTx(t *testing.T, encoded string) *solana.Transaction {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		t.Fatalf("decode transaction: %v", err)
	}
	return tx
}

func instructionKeys(t *testing.T, tx *solana.Transaction) map[solana.PublicKey]bool {
	t.Helper()
	ix := tx.Message.Instructions[0]
	out := make(map[solana.PublicKey]bool, len(ix.Accounts))
	for _, idx := range ix.Accounts {
		if int(idx) >= len(tx.Message.AccountKeys) {
			t.Fatalf("account index %d out of range", idx)
		}
		out[tx.Message.AccountKeys[idx]] = true
	}
	return out
}
