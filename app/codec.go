package app

import (
	"crypto/sha256"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/pkg/errors"

	"github.com/blockberries/minichain/pallets/balances"
	"github.com/blockberries/minichain/pallets/claims"
	"github.com/blockberries/minichain/runtime"
	"github.com/blockberries/minichain/types"
)

// EncodeExtrinsic serializes ext into a transaction.
func EncodeExtrinsic(ext runtime.Extrinsic) (types.Tx, error) {
	call, err := CallToWire(ext.Call)
	if err != nil {
		return nil, err
	}
	data, err := cramberry.Marshal(types.Extrinsic{Caller: ext.Caller, Call: call})
	if err != nil {
		return nil, errors.Wrap(err, "encode extrinsic")
	}
	return data, nil
}

// DecodeTx parses a transaction into a runtime extrinsic.
func DecodeTx(tx types.Tx) (runtime.Extrinsic, error) {
	var w types.Extrinsic
	if err := cramberry.Unmarshal(tx, &w); err != nil {
		return runtime.Extrinsic{}, errors.Wrap(err, "decode extrinsic")
	}
	if w.Caller == "" {
		return runtime.Extrinsic{}, errors.New("decode extrinsic: missing caller")
	}
	call, err := CallFromWire(w.Call)
	if err != nil {
		return runtime.Extrinsic{}, errors.Wrap(err, "decode extrinsic")
	}
	return runtime.Extrinsic{Caller: w.Caller, Call: call}, nil
}

// CallToWire converts a runtime call to its tagged wire form.
func CallToWire(call runtime.Call) (types.Call, error) {
	switch c := call.(type) {
	case runtime.BalancesCall:
		switch bc := c.Call.(type) {
		case balances.Transfer[runtime.AccountID, runtime.Balance]:
			return types.Call{Balances: &types.BalancesCall{
				Transfer: &types.TransferCall{To: bc.To, Amount: bc.Amount},
			}}, nil
		}
	case runtime.ClaimsCall:
		switch cc := c.Call.(type) {
		case claims.CreateClaim[runtime.AccountID, runtime.Content]:
			return types.Call{Claims: &types.ClaimsCall{
				Create: &types.ClaimCall{Content: cc.Content},
			}}, nil
		case claims.RevokeClaim[runtime.AccountID, runtime.Content]:
			return types.Call{Claims: &types.ClaimsCall{
				Revoke: &types.ClaimCall{Content: cc.Content},
			}}, nil
		}
	}
	return types.Call{}, errors.Errorf("encode call: unsupported %T", call)
}

// CallFromWire converts a tagged wire call to a runtime call. Exactly
// one variant must be set at every level of the union.
func CallFromWire(w types.Call) (runtime.Call, error) {
	switch {
	case w.Balances != nil && w.Claims != nil:
		return nil, errors.New("call sets more than one pallet")
	case w.Balances != nil:
		if w.Balances.Transfer == nil {
			return nil, errors.New("balances call has no variant")
		}
		return runtime.Transfer(w.Balances.Transfer.To, w.Balances.Transfer.Amount), nil
	case w.Claims != nil:
		switch {
		case w.Claims.Create != nil && w.Claims.Revoke != nil:
			return nil, errors.New("claims call sets more than one variant")
		case w.Claims.Create != nil:
			return runtime.CreateClaim(w.Claims.Create.Content), nil
		case w.Claims.Revoke != nil:
			return runtime.RevokeClaim(w.Claims.Revoke.Content), nil
		default:
			return nil, errors.New("claims call has no variant")
		}
	default:
		return nil, errors.New("call has no pallet")
	}
}

// HashSnapshot computes the app hash of a runtime snapshot: SHA-256
// over its cramberry encoding.
func HashSnapshot(snap runtime.Snapshot) (types.AppHash, error) {
	data, err := cramberry.Marshal(snap)
	if err != nil {
		return types.AppHash{}, errors.Wrap(err, "encode snapshot")
	}
	return types.AppHash(sha256.Sum256(data)), nil
}

// TransferTx creates a transaction moving amount from caller to to.
// It panics if encoding fails, which cannot happen for well-formed
// calls.
func TransferTx(caller, to runtime.AccountID, amount runtime.Balance) types.Tx {
	return mustEncode(runtime.Extrinsic{Caller: caller, Call: runtime.Transfer(to, amount)})
}

// CreateClaimTx creates a transaction claiming content for caller.
func CreateClaimTx(caller runtime.AccountID, content runtime.Content) types.Tx {
	return mustEncode(runtime.Extrinsic{Caller: caller, Call: runtime.CreateClaim(content)})
}

// RevokeClaimTx creates a transaction revoking caller's claim on content.
func RevokeClaimTx(caller runtime.AccountID, content runtime.Content) types.Tx {
	return mustEncode(runtime.Extrinsic{Caller: caller, Call: runtime.RevokeClaim(content)})
}

func mustEncode(ext runtime.Extrinsic) types.Tx {
	tx, err := EncodeExtrinsic(ext)
	if err != nil {
		panic(err)
	}
	return tx
}
