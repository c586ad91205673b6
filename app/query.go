package app

import (
	"context"
	"encoding/binary"
	"fmt"
	"slices"
	"strings"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/minichain/runtime"
	"github.com/blockberries/minichain/types"
)

// Query paths served by Query.
const (
	PathBalance     types.QueryPath = "/balance"
	PathNonce       types.QueryPath = "/nonce"
	PathClaim       types.QueryPath = "/claim"
	PathBlockNumber types.QueryPath = "/block_number"
	PathState       types.QueryPath = "/state"
)

// Query result codes.
const (
	QueryOK uint32 = iota
	QueryNotFound
	QueryBadRequest
	QueryUnknownPath
)

// Query reads the last committed state.
//
//	/balance       Data = account, Value = 8-byte big-endian balance
//	/nonce         Data = account, Value = 8-byte big-endian nonce
//	/claim         Data = content, Value = owner account
//	/block_number  Value = 8-byte big-endian block number
//	/state         Value = cramberry-encoded runtime.Snapshot
func (app *App) Query(_ context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	app.mu.RLock()
	point := app.committed
	app.mu.RUnlock()

	if req.Height != nil && *req.Height != point.height {
		return types.StateQueryResult{
			Code:   QueryBadRequest,
			Info:   fmt.Sprintf("height %d not available (current: %d)", *req.Height, point.height),
			Height: point.height,
		}, nil
	}

	snap := point.snapshot
	switch req.Path {
	case PathBalance, PathNonce:
		if len(req.Data) == 0 {
			return types.StateQueryResult{Code: QueryBadRequest, Info: "data must be an account", Height: point.height}, nil
		}
		acct, _ := snap.Account(string(req.Data))
		v := uint64(acct.Balance)
		if req.Path == PathNonce {
			v = uint64(acct.Nonce)
		}
		return types.StateQueryResult{
			Code:   QueryOK,
			Key:    req.Data,
			Value:  EncodeUint64(v),
			Height: point.height,
		}, nil

	case PathClaim:
		content := string(req.Data)
		i, found := slices.BinarySearchFunc(snap.Claims, content, func(c runtime.ClaimState, content string) int {
			return strings.Compare(c.Content, content)
		})
		if !found {
			return types.StateQueryResult{Code: QueryNotFound, Key: req.Data, Info: "no such claim", Height: point.height}, nil
		}
		return types.StateQueryResult{
			Code:   QueryOK,
			Key:    req.Data,
			Value:  []byte(snap.Claims[i].Owner),
			Height: point.height,
		}, nil

	case PathBlockNumber:
		return types.StateQueryResult{
			Code:   QueryOK,
			Value:  EncodeUint64(uint64(snap.BlockNumber)),
			Height: point.height,
		}, nil

	case PathState:
		data, err := cramberry.Marshal(snap)
		if err != nil {
			return types.StateQueryResult{}, fmt.Errorf("encode snapshot: %w", err)
		}
		return types.StateQueryResult{
			Code:   QueryOK,
			Value:  data,
			Height: point.height,
		}, nil

	default:
		return types.StateQueryResult{Code: QueryUnknownPath, Info: "unknown query path", Height: point.height}, nil
	}
}

// EncodeUint64 encodes v as 8 big-endian bytes.
func EncodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// DecodeUint64 decodes a numeric query value.
func DecodeUint64(value []byte) (uint64, error) {
	if len(value) != 8 {
		return 0, fmt.Errorf("numeric value must be 8 bytes, got %d", len(value))
	}
	return binary.BigEndian.Uint64(value), nil
}

// DecodeSnapshot decodes the value of a /state query.
func DecodeSnapshot(value []byte) (runtime.Snapshot, error) {
	var snap runtime.Snapshot
	if err := cramberry.Unmarshal(value, &snap); err != nil {
		return runtime.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
