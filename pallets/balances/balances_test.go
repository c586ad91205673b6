package balances

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/minichain"
)

func TestBalances_Init(t *testing.T) {
	b := New[string, uint64]()

	assert.Equal(t, uint64(0), b.Balance("alice"))
	assert.Empty(t, b.Accounts(), "reading a balance must not insert the account")

	b.SetBalance("alice", 100)
	assert.Equal(t, uint64(100), b.Balance("alice"))
	assert.Equal(t, uint64(0), b.Balance("bob"))
}

func TestBalances_Transfer(t *testing.T) {
	b := New[string, uint64]()

	err := b.Transfer("alice", "bob", 30)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	b.SetBalance("alice", 100)
	require.NoError(t, b.Transfer("alice", "bob", 30))
	assert.Equal(t, uint64(70), b.Balance("alice"))
	assert.Equal(t, uint64(30), b.Balance("bob"))
}

func TestBalances_TransferConservesTotal(t *testing.T) {
	tests := []struct {
		name   string
		amount uint64
	}{
		{"zero", 0},
		{"partial", 40},
		{"everything", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New[string, uint64]()
			b.SetBalance("alice", 100)
			b.SetBalance("charlie", 5)

			require.NoError(t, b.Transfer("alice", "charlie", tt.amount))
			assert.Equal(t, 100-tt.amount, b.Balance("alice"))
			assert.Equal(t, 5+tt.amount, b.Balance("charlie"))

			total, ok := b.TotalIssuance()
			require.True(t, ok)
			assert.Equal(t, uint64(105), total)
		})
	}
}

func TestBalances_InsufficientLeavesStateUntouched(t *testing.T) {
	b := New[string, uint64]()
	b.SetBalance("alice", 100)

	err := b.Transfer("alice", "bob", 101)
	require.Error(t, err)

	var dispatchErr *minichain.DispatchError
	require.True(t, errors.As(err, &dispatchErr))
	assert.Equal(t, ModuleName, dispatchErr.Module)
	assert.Equal(t, "InsufficientBalance", dispatchErr.Kind)

	assert.Equal(t, uint64(100), b.Balance("alice"))
	assert.Equal(t, uint64(0), b.Balance("bob"))
	assert.Equal(t, []string{"alice"}, b.Accounts())
}

func TestBalances_OverflowIsDistinctFailure(t *testing.T) {
	b := New[string, uint64]()
	b.SetBalance("alice", 10)
	b.SetBalance("bob", math.MaxUint64)

	err := b.Transfer("alice", "bob", 1)
	assert.ErrorIs(t, err, ErrOverflow)
	assert.NotErrorIs(t, err, ErrInsufficientBalance)

	assert.Equal(t, uint64(10), b.Balance("alice"))
	assert.Equal(t, uint64(math.MaxUint64), b.Balance("bob"))
}

func TestBalances_SelfTransfer(t *testing.T) {
	b := New[string, uint64]()
	b.SetBalance("alice", 50)

	require.NoError(t, b.Transfer("alice", "alice", 50))
	assert.Equal(t, uint64(50), b.Balance("alice"))

	assert.ErrorIs(t, b.Transfer("alice", "alice", 51), ErrInsufficientBalance)
}

func TestBalances_Dispatch(t *testing.T) {
	b := New[string, uint64]()
	b.SetBalance("alice", 100)

	require.NoError(t, b.Dispatch("alice", Transfer[string, uint64]{To: "bob", Amount: 20}))
	assert.Equal(t, uint64(80), b.Balance("alice"))
	assert.Equal(t, uint64(20), b.Balance("bob"))

	err := b.Dispatch("bob", Transfer[string, uint64]{To: "alice", Amount: 21})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	assert.ErrorIs(t, b.Dispatch("alice", nil), minichain.ErrUnknownCall)
}
