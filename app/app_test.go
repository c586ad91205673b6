package app

import (
	"bytes"
	"context"
	"io"
	"log"
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/runtime"
	chaintest "github.com/blockberries/minichain/testing"
	"github.com/blockberries/minichain/types"
)

func quietApp() *App {
	return New(WithLogger(log.New(io.Discard, "", 0)))
}

func genesis() types.GenesisDoc {
	return chaintest.GenesisWithBalances(map[string]uint64{"alice": 100})
}

func queryUint(t *testing.T, h *chaintest.Harness, path types.QueryPath, account string) uint64 {
	t.Helper()
	res := h.Query(path, []byte(account))
	require.True(t, res.OK(), res.Info)
	v, err := DecodeUint64(res.Value)
	require.NoError(t, err)
	return v
}

func TestApp_Compliance(t *testing.T) {
	chaintest.RunComplianceSuite(t, func() minichain.Lifecycle {
		return quietApp()
	})
}

func TestApp_TransferScenario(t *testing.T) {
	h := chaintest.NewHarness(t, quietApp())
	h.Genesis(genesis())

	outcome := h.ExecuteAndCommit(chaintest.MakeBlock(1,
		TransferTx("alice", "bob", 30),
		TransferTx("alice", "charlie", 20),
		TransferTx("bob", "charlie", 10),
	))
	require.Len(t, outcome.TxOutcomes, 3)
	for _, o := range outcome.TxOutcomes {
		assert.True(t, o.OK(), o.Info)
	}

	assert.Equal(t, uint64(50), queryUint(t, h, PathBalance, "alice"))
	assert.Equal(t, uint64(20), queryUint(t, h, PathBalance, "bob"))
	assert.Equal(t, uint64(30), queryUint(t, h, PathBalance, "charlie"))
	assert.Equal(t, uint64(2), queryUint(t, h, PathNonce, "alice"))
	assert.Equal(t, uint64(1), queryUint(t, h, PathNonce, "bob"))
	assert.Equal(t, uint64(0), queryUint(t, h, PathNonce, "charlie"))

	ev, ok := outcome.TxOutcomes[0].Events[0].Attr("amount")
	require.True(t, ok)
	assert.Equal(t, "30", ev)
}

func TestApp_FailedTransferKeepsNonce(t *testing.T) {
	h := chaintest.NewHarness(t, quietApp())
	h.Genesis(genesis())

	outcome := h.ExecuteAndCommit(chaintest.MakeBlock(1,
		TransferTx("alice", "bob", 500),
		TransferTx("alice", "bob", 10),
	))
	assert.Equal(t, types.CodeDispatchFailed, outcome.TxOutcomes[0].Code)
	assert.Contains(t, outcome.TxOutcomes[0].Info, "InsufficientBalance")
	assert.Empty(t, outcome.TxOutcomes[0].Events)
	assert.True(t, outcome.TxOutcomes[1].OK())

	assert.Equal(t, uint64(90), queryUint(t, h, PathBalance, "alice"))
	assert.Equal(t, uint64(10), queryUint(t, h, PathBalance, "bob"))
	assert.Equal(t, uint64(2), queryUint(t, h, PathNonce, "alice"))
}

func TestApp_ClaimsScenario(t *testing.T) {
	h := chaintest.NewHarness(t, quietApp())
	h.Genesis(genesis())

	h.ExecuteAndCommit(chaintest.MakeBlock(1, CreateClaimTx("alice", "doc")))
	outcome := h.ExecuteAndCommit(chaintest.MakeBlock(2,
		CreateClaimTx("bob", "doc"),
		RevokeClaimTx("bob", "doc"),
	))
	assert.Equal(t, types.CodeDispatchFailed, outcome.TxOutcomes[0].Code)
	assert.Equal(t, types.CodeDispatchFailed, outcome.TxOutcomes[1].Code)

	res := h.Query(PathClaim, []byte("doc"))
	require.True(t, res.OK())
	assert.Equal(t, "alice", string(res.Value))

	outcome = h.ExecuteAndCommit(chaintest.MakeBlock(3, RevokeClaimTx("alice", "doc")))
	require.True(t, outcome.TxOutcomes[0].OK())
	assert.Equal(t, "claim_revoked", outcome.TxOutcomes[0].Events[0].Kind)

	res = h.Query(PathClaim, []byte("doc"))
	assert.Equal(t, QueryNotFound, res.Code)
	assert.Equal(t, uint64(3), queryUint(t, h, PathBlockNumber, ""))
}

func TestApp_DecodeFailureIsIsolated(t *testing.T) {
	h := chaintest.NewHarness(t, quietApp())
	h.Genesis(genesis())

	outcome := h.ExecuteAndCommit(chaintest.MakeBlock(1,
		types.Tx{0xff, 0xff},
		TransferTx("alice", "bob", 5),
	))
	require.Len(t, outcome.TxOutcomes, 2)
	assert.Equal(t, types.CodeDecodeFailed, outcome.TxOutcomes[0].Code)
	assert.Equal(t, uint32(1), outcome.TxOutcomes[1].Index)
	assert.True(t, outcome.TxOutcomes[1].OK())

	// Only the decoded extrinsic was charged a nonce.
	assert.Equal(t, uint64(1), queryUint(t, h, PathNonce, "alice"))
}

func TestApp_FailureIndexMapsToTx(t *testing.T) {
	h := chaintest.NewHarness(t, quietApp())
	h.Genesis(genesis())

	// The second decoded extrinsic is the third tx.
	outcome := h.ExecuteAndCommit(chaintest.MakeBlock(1,
		TransferTx("alice", "bob", 5),
		types.Tx{0x00},
		TransferTx("bob", "alice", 50),
	))
	assert.True(t, outcome.TxOutcomes[0].OK())
	assert.Equal(t, types.CodeDecodeFailed, outcome.TxOutcomes[1].Code)
	assert.Equal(t, types.CodeDispatchFailed, outcome.TxOutcomes[2].Code)
}

func TestApp_CheckTx(t *testing.T) {
	h := chaintest.NewHarness(t, quietApp())
	h.Genesis(genesis())

	h.MustAcceptTx(TransferTx("alice", "bob", 1000))
	h.MustRejectTx(types.Tx{0x01, 0x02})

	v := h.CheckTx(CreateClaimTx("carol", "x"))
	assert.Equal(t, "carol", v.Sender)
}

func TestApp_WrongBlockNumber(t *testing.T) {
	a := quietApp()
	h := chaintest.NewHarness(t, a)
	h.Genesis(genesis())

	be := h.RejectBlock(chaintest.MakeBlock(5, TransferTx("alice", "bob", 5)))
	assert.Equal(t, uint64(5), be.Number)
	assert.Equal(t, uint64(1), be.Expected)
	assert.Equal(t, uint64(100), queryUint(t, h, PathBalance, "alice"))
	assert.Equal(t, uint64(0), queryUint(t, h, PathNonce, "alice"))

	h.RejectBlock(chaintest.MakeBlock(1<<33))

	h.ExecuteAndCommit(chaintest.MakeBlock(1, TransferTx("alice", "bob", 5)))
	assert.Equal(t, uint64(95), queryUint(t, h, PathBalance, "alice"))
	assert.Equal(t, uint64(1), a.Height())
}

func TestApp_QueriesSeeCommittedStateOnly(t *testing.T) {
	h := chaintest.NewHarness(t, quietApp())
	h.Genesis(genesis())

	h.ExecuteBlock(chaintest.MakeBlock(1, TransferTx("alice", "bob", 40)))
	assert.Equal(t, uint64(100), queryUint(t, h, PathBalance, "alice"))

	h.Commit()
	assert.Equal(t, uint64(60), queryUint(t, h, PathBalance, "alice"))
}

func TestApp_QueryErrors(t *testing.T) {
	h := chaintest.NewHarness(t, quietApp())
	h.Genesis(genesis())

	assert.Equal(t, QueryBadRequest, h.Query(PathBalance, nil).Code)
	assert.Equal(t, QueryUnknownPath, h.Query("/nope", nil).Code)

	height := uint64(7)
	res, err := h.Server().Query(context.Background(), types.StateQuery{Path: PathBlockNumber, Height: &height})
	require.NoError(t, err)
	assert.Equal(t, QueryBadRequest, res.Code)

	// Unknown accounts hold nothing.
	assert.Equal(t, uint64(0), queryUint(t, h, PathBalance, "nobody"))
}

func TestApp_StateQuery(t *testing.T) {
	h := chaintest.NewHarness(t, quietApp())
	h.Genesis(genesis())
	h.ExecuteAndCommit(chaintest.MakeBlock(1,
		TransferTx("alice", "bob", 10),
		CreateClaimTx("bob", "doc"),
	))

	res := h.Query(PathState, nil)
	require.True(t, res.OK())
	snap, err := DecodeSnapshot(res.Value)
	require.NoError(t, err)

	assert.Equal(t, runtime.BlockNumber(1), snap.BlockNumber)
	assert.Equal(t, []runtime.AccountState{
		{ID: "alice", Nonce: 1, Balance: 90},
		{ID: "bob", Nonce: 1, Balance: 10},
	}, snap.Accounts)
	assert.Equal(t, []runtime.ClaimState{{Content: "doc", Owner: "bob"}}, snap.Claims)
}

func TestApp_AppHashTracksState(t *testing.T) {
	run := func(amount uint64) types.AppHash {
		h := chaintest.NewHarness(t, quietApp())
		h.Genesis(genesis())
		return h.ExecuteAndCommit(chaintest.MakeBlock(1, TransferTx("alice", "bob", amount))).AppHash
	}
	assert.Equal(t, run(10), run(10))
	assert.NotEqual(t, run(10), run(11))
}

func TestApp_Restart(t *testing.T) {
	a := quietApp()
	h := chaintest.NewHarness(t, a)
	h.Genesis(genesis())
	outcome := h.ExecuteAndCommit(chaintest.MakeBlock(1))

	// A second server over the same application reports the
	// committed point.
	h2 := chaintest.NewHarness(t, a)
	resp := h2.Restart(types.BlockID{Height: 1})
	require.NotNil(t, resp.LastBlock)
	assert.Equal(t, uint64(1), resp.LastBlock.Height)
	assert.Equal(t, outcome.AppHash, *resp.AppHash)
}

func TestApp_GenesisErrors(t *testing.T) {
	_, err := quietApp().Handshake(context.Background(), types.HandshakeRequest{
		Genesis: &types.GenesisDoc{AppState: []byte("{")},
	})
	assert.Error(t, err)
}

func TestApp_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	a := New(WithLogger(log.New(&buf, "", 0)))
	h := chaintest.NewHarness(t, a)
	h.Genesis(genesis())
	h.ExecuteAndCommit(chaintest.MakeBlock(1, TransferTx("bob", "alice", 1)))

	out := buf.String()
	assert.Contains(t, out, "genesis")
	assert.Contains(t, out, "extrinsic failed")
	assert.Contains(t, out, "bob")
}

func TestApp_FailureLogUsesBlockPosition(t *testing.T) {
	var buf bytes.Buffer
	var reported []runtime.ExtrinsicFailure
	a := New(
		WithLogger(log.New(&buf, "", 0)),
		WithReporter(runtime.ReporterFunc(func(f runtime.ExtrinsicFailure) {
			reported = append(reported, f)
		})),
	)
	h := chaintest.NewHarness(t, a)
	h.Genesis(genesis())
	buf.Reset()

	outcome := h.ExecuteAndCommit(chaintest.MakeBlock(1,
		types.Tx("garbage"),
		TransferTx("alice", "bob", 500),
	))
	require.Len(t, outcome.TxOutcomes, 2)
	assert.Equal(t, types.CodeDecodeFailed, outcome.TxOutcomes[0].Code)
	assert.Equal(t, types.CodeDispatchFailed, outcome.TxOutcomes[1].Code)

	require.Len(t, reported, 2)
	assert.Equal(t, 0, reported[0].Index)
	assert.Empty(t, reported[0].Caller)
	assert.Equal(t, 1, reported[1].Index)
	assert.Equal(t, "alice", reported[1].Caller)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Regexp(t, regexp.MustCompile(`extrinsic="?0"?`), lines[0])
	assert.NotContains(t, lines[0], "caller=")
	assert.Contains(t, lines[1], "InsufficientBalance")
	assert.Regexp(t, regexp.MustCompile(`extrinsic="?1"?`), lines[1])
}

func TestApp_RecheckRejectsExhaustedNonce(t *testing.T) {
	a := quietApp()
	h := chaintest.NewHarness(t, a)
	h.Genesis(genesis())

	a.rt.System().SetNonce("alice", math.MaxUint32)
	h.ExecuteAndCommit(chaintest.MakeEmptyBlock(1))

	tx := TransferTx("alice", "bob", 1)
	h.MustAcceptTx(tx)

	v := h.RecheckTx(tx)
	assert.Equal(t, types.CodeNonceOverflow, v.Code)
	assert.Equal(t, "alice", v.Sender)

	assert.True(t, h.RecheckTx(TransferTx("bob", "alice", 1)).Accepted())
}

func TestCodec_RejectsAmbiguousCalls(t *testing.T) {
	_, err := CallFromWire(types.Call{})
	assert.Error(t, err)

	_, err = CallFromWire(types.Call{
		Balances: &types.BalancesCall{Transfer: &types.TransferCall{To: "bob", Amount: 1}},
		Claims:   &types.ClaimsCall{Create: &types.ClaimCall{Content: "x"}},
	})
	assert.Error(t, err)

	_, err = CallFromWire(types.Call{Claims: &types.ClaimsCall{}})
	assert.Error(t, err)

	call, err := CallFromWire(types.Call{Claims: &types.ClaimsCall{Revoke: &types.ClaimCall{Content: "x"}}})
	require.NoError(t, err)
	assert.Equal(t, runtime.RevokeClaim("x"), call)
}

func TestCodec_RoundTrip(t *testing.T) {
	ext, err := DecodeTx(TransferTx("alice", "bob", 7))
	require.NoError(t, err)
	assert.Equal(t, runtime.Extrinsic{Caller: "alice", Call: runtime.Transfer("bob", 7)}, ext)

	_, err = DecodeTx(mustEncodeWire(t, types.Extrinsic{Call: types.Call{
		Claims: &types.ClaimsCall{Create: &types.ClaimCall{Content: "x"}},
	}}))
	assert.Error(t, err, "missing caller")
}

func mustEncodeWire(t *testing.T, ext types.Extrinsic) types.Tx {
	t.Helper()
	data, err := cramberry.Marshal(ext)
	require.NoError(t, err)
	return data
}
