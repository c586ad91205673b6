package chaintest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/types"
)

// RunComplianceSuite runs a standard compliance test suite against
// a node application to verify correct lifecycle behavior.
//
// The factory function should return a fresh application instance
// for each test. Transactions submitted by the suite are opaque
// bytes; an application that cannot decode them must still report
// one outcome per transaction without failing the block.
func RunComplianceSuite(t *testing.T, factory func() minichain.Lifecycle) {
	t.Helper()

	opaqueTx := types.Tx([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08})

	t.Run("genesis_handshake", func(t *testing.T) {
		h := NewHarness(t, factory())
		resp := h.GenesisDefault()
		if resp.LastBlock != nil {
			t.Error("genesis handshake should return nil LastBlock")
		}
		if resp.AppHash == nil {
			t.Error("genesis handshake should return a non-nil AppHash")
		}
	})

	t.Run("execute_commit_cycle", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		for i := uint64(1); i <= 5; i++ {
			outcome := h.ExecuteBlock(MakeEmptyBlock(i))
			if outcome.AppHash == (types.AppHash{}) {
				t.Errorf("height %d: zero app hash", i)
			}
			result := h.Commit()
			if result.Height != i {
				t.Errorf("height %d: commit reported height %d", i, result.Height)
			}
		}
	})

	t.Run("rejects_wrong_height", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		be := h.RejectBlock(MakeEmptyBlock(5))
		if !errors.Is(be, minichain.ErrWrongBlockNumber) {
			t.Errorf("expected ErrWrongBlockNumber, got %v", be.Err)
		}
		if be.Expected != 1 {
			t.Errorf("expected next height 1, got %d", be.Expected)
		}

		// A repeated height is rejected too.
		h.ExecuteAndCommit(MakeEmptyBlock(1))
		h.RejectBlock(MakeEmptyBlock(1))

		// The chain continues at the expected height.
		h.ExecuteAndCommit(MakeEmptyBlock(2))
	})

	t.Run("empty_blocks_deterministic", func(t *testing.T) {
		// Execute same empty blocks on two instances, verify
		// identical AppHash.
		h1 := NewHarness(t, factory())
		h1.GenesisDefault()
		h2 := NewHarness(t, factory())
		h2.GenesisDefault()

		for i := uint64(1); i <= 3; i++ {
			block := MakeEmptyBlock(i)
			o1 := h1.ExecuteAndCommit(block)
			o2 := h2.ExecuteAndCommit(block)

			if o1.AppHash != o2.AppHash {
				t.Errorf("height %d: non-deterministic: %x != %x",
					i, o1.AppHash, o2.AppHash)
			}
		}
	})

	t.Run("deterministic_with_txs", func(t *testing.T) {
		h1 := NewHarness(t, factory())
		h1.GenesisDefault()
		h2 := NewHarness(t, factory())
		h2.GenesisDefault()

		block := MakeBlock(1, opaqueTx)
		o1 := h1.ExecuteAndCommit(block)
		o2 := h2.ExecuteAndCommit(block)

		if o1.AppHash != o2.AppHash {
			t.Errorf("non-deterministic with txs: %x != %x",
				o1.AppHash, o2.AppHash)
		}
		if len(o1.TxOutcomes) != len(o2.TxOutcomes) {
			t.Errorf("outcome count mismatch: %d != %d",
				len(o1.TxOutcomes), len(o2.TxOutcomes))
		}
	})

	t.Run("concurrent_checktx_after_handshake", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := h.Server().CheckTx(context.Background(), opaqueTx, types.MempoolFirstSeen)
				if err != nil {
					t.Errorf("concurrent CheckTx failed: %v", err)
				}
			}()
		}
		wg.Wait()
	})

	t.Run("concurrent_query_after_handshake", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := h.Server().Query(context.Background(), types.StateQuery{
					Path: "/block_number",
				})
				if err != nil {
					t.Errorf("concurrent Query failed: %v", err)
				}
			}()
		}
		wg.Wait()
	})

	t.Run("query_returns_height", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		h.ExecuteAndCommit(MakeEmptyBlock(1))
		h.ExecuteAndCommit(MakeEmptyBlock(2))

		result := h.Query("/block_number", nil)
		if result.Height != 2 {
			t.Errorf("query height should be 2 after two commits, got %d", result.Height)
		}
	})

	t.Run("tx_outcome_indices", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		txs := []types.Tx{opaqueTx, opaqueTx, opaqueTx}
		outcome := h.ExecuteAndCommit(MakeBlock(1, txs...))

		if len(outcome.TxOutcomes) != 3 {
			t.Fatalf("expected 3 tx outcomes, got %d", len(outcome.TxOutcomes))
		}
		for i, o := range outcome.TxOutcomes {
			if o.Index != uint32(i) {
				t.Errorf("tx %d: expected index %d, got %d", i, i, o.Index)
			}
		}
	})
}
