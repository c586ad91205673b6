package chaingrpc_test

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/app"
	chaingrpc "github.com/blockberries/minichain/grpc"
	"github.com/blockberries/minichain/server"
	chaintest "github.com/blockberries/minichain/testing"
	"github.com/blockberries/minichain/types"
)

// startServer starts a gRPC server on a random port and returns
// the listener address and a cleanup function.
func startServer(t *testing.T, gs *chaingrpc.GRPCServer) (string, func()) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	gs.Server().SetLogger(chaintest.TestLogger(t))
	s := grpc.NewServer()
	gs.Register(s)

	go func() {
		// Serve returns once GracefulStop has run.
		_ = s.Serve(lis)
	}()

	return lis.Addr().String(), func() {
		s.GracefulStop()
	}
}

func dial(t *testing.T, addr string) *chaingrpc.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := chaingrpc.Dial(ctx, addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	return client
}

func newApp() *app.App {
	return app.New(app.WithLogger(log.New(io.Discard, "", 0)))
}

func TestGRPC_App_Lifecycle(t *testing.T) {
	addr, cleanup := startServer(t, chaingrpc.NewGRPCServer(newApp()))
	defer cleanup()

	client := dial(t, addr)
	defer client.Close()

	ctx := context.Background()

	genesis := chaintest.GenesisWithBalances(map[string]uint64{"alice": 100})
	resp, err := client.Handshake(ctx, types.HandshakeRequest{Genesis: &genesis})
	if err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	if resp.AppHash == nil {
		t.Fatal("expected non-nil AppHash from genesis")
	}

	block := chaintest.MakeBlock(1,
		app.TransferTx("alice", "bob", 30),
		app.TransferTx("alice", "bob", 500),
		app.CreateClaimTx("bob", "doc"),
	)
	outcome, err := client.ExecuteBlock(ctx, block)
	if err != nil {
		t.Fatalf("ExecuteBlock: %v", err)
	}
	if outcome.AppHash == (types.AppHash{}) {
		t.Fatal("expected non-zero AppHash")
	}
	codes := []uint32{types.CodeOK, types.CodeDispatchFailed, types.CodeOK}
	if len(outcome.TxOutcomes) != len(codes) {
		t.Fatalf("expected %d outcomes, got %d", len(codes), len(outcome.TxOutcomes))
	}
	for i, want := range codes {
		if got := outcome.TxOutcomes[i].Code; got != want {
			t.Errorf("tx %d: expected code %d, got %d (%s)", i, want, got, outcome.TxOutcomes[i].Info)
		}
	}

	result, err := client.Commit(ctx)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if result.AppHash != outcome.AppHash {
		t.Fatalf("commit app hash %x != outcome app hash %x", result.AppHash, outcome.AppHash)
	}

	qr, err := client.Query(ctx, types.StateQuery{Path: app.PathBalance, Data: []byte("bob")})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if qr.Height != 1 {
		t.Fatalf("expected query height 1, got %d", qr.Height)
	}
	balance, err := app.DecodeUint64(qr.Value)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if balance != 30 {
		t.Fatalf("expected bob=30, got %d", balance)
	}

	qr, err = client.Query(ctx, types.StateQuery{Path: app.PathState})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	snap, err := app.DecodeSnapshot(qr.Value)
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap.Claims) != 1 || snap.Claims[0].Owner != "bob" {
		t.Fatalf("unexpected claims: %+v", snap.Claims)
	}
}

func TestGRPC_App_CheckTx(t *testing.T) {
	addr, cleanup := startServer(t, chaingrpc.NewGRPCServer(newApp()))
	defer cleanup()

	client := dial(t, addr)
	defer client.Close()

	ctx := context.Background()
	if _, err := client.Handshake(ctx, types.HandshakeRequest{Genesis: &types.GenesisDoc{ChainID: "test"}}); err != nil {
		t.Fatalf("Handshake: %v", err)
	}

	v, err := client.CheckTx(ctx, app.TransferTx("alice", "bob", 1), types.MempoolFirstSeen)
	if err != nil {
		t.Fatalf("CheckTx: %v", err)
	}
	if !v.Accepted() || v.Sender != "alice" {
		t.Fatalf("unexpected verdict: %+v", v)
	}

	v, err = client.CheckTx(ctx, types.Tx{0xde, 0xad}, types.MempoolFirstSeen)
	if err != nil {
		t.Fatalf("CheckTx: %v", err)
	}
	if v.Accepted() {
		t.Fatal("expected garbage tx to be rejected")
	}
}

func TestGRPC_RejectedBlock(t *testing.T) {
	addr, cleanup := startServer(t, chaingrpc.NewGRPCServer(newApp()))
	defer cleanup()

	client := dial(t, addr)
	defer client.Close()

	ctx := context.Background()
	if _, err := client.Handshake(ctx, types.HandshakeRequest{Genesis: &types.GenesisDoc{ChainID: "test"}}); err != nil {
		t.Fatalf("Handshake: %v", err)
	}

	_, err := client.ExecuteBlock(ctx, chaintest.MakeEmptyBlock(3))
	var be *minichain.BlockError
	if !errors.As(err, &be) {
		t.Fatalf("expected *BlockError, got %v", err)
	}
	if be.Number != 3 || be.Expected != 1 {
		t.Fatalf("unexpected block error fields: %+v", be)
	}
	if !errors.Is(err, minichain.ErrWrongBlockNumber) {
		t.Fatalf("expected ErrWrongBlockNumber cause, got %v", be.Err)
	}

	// Both ends are back in Ready.
	if _, err := client.ExecuteBlock(ctx, chaintest.MakeEmptyBlock(1)); err != nil {
		t.Fatalf("ExecuteBlock: %v", err)
	}
	if _, err := client.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestGRPC_OutOfOrderIsLocal(t *testing.T) {
	mock := &chaintest.MockApp{}
	addr, cleanup := startServer(t, chaingrpc.NewGRPCServer(mock))
	defer cleanup()

	client := dial(t, addr)
	defer client.Close()

	_, err := client.Query(context.Background(), types.StateQuery{Path: app.PathBlockNumber})
	if !errors.Is(err, server.ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}
	if mock.QueryCalls.Load() != 0 {
		t.Fatal("query reached the application before handshake")
	}
}

func TestGRPC_CommitFailureRetries(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	mock := &chaintest.MockApp{
		CommitFn: func(context.Context) (types.CommitResult, error) {
			if fail.Swap(false) {
				return types.CommitResult{}, errors.New("disk full")
			}
			return types.CommitResult{Height: 1}, nil
		},
	}
	addr, cleanup := startServer(t, chaingrpc.NewGRPCServer(mock))
	defer cleanup()

	client := dial(t, addr)
	defer client.Close()

	ctx := context.Background()
	if _, err := client.Handshake(ctx, types.HandshakeRequest{}); err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	if _, err := client.ExecuteBlock(ctx, chaintest.MakeEmptyBlock(1)); err != nil {
		t.Fatalf("ExecuteBlock: %v", err)
	}
	if _, err := client.Commit(ctx); err == nil {
		t.Fatal("expected commit failure")
	}
	result, err := client.Commit(ctx)
	if err != nil {
		t.Fatalf("Commit retry: %v", err)
	}
	if result.Height != 1 {
		t.Fatalf("expected height 1, got %d", result.Height)
	}
}
