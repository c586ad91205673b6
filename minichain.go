// Package minichain defines the contracts a state module ("pallet")
// must satisfy to be composed into a runtime, and the generic block
// and extrinsic shapes the runtime executes.
//
// Pallets are generic over the type parameters their contract
// names. A runtime is the single place where those parameters are
// fixed to concrete types, so every pallet it owns agrees on the
// same account identifier, counter and balance types.
package minichain

import "cmp"

// Unsigned is the contract for counters and balances: a numeric
// type with a zero value, a unit, and addition that can be checked
// for overflow.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint
}

// AccountID is the contract for identifiers keying per-account
// state. Keys must be totally ordered so state can be walked
// deterministically.
type AccountID interface {
	cmp.Ordered
}

// CheckedAdd returns a+b and true, or the zero value and false if
// the sum does not fit in T.
func CheckedAdd[T Unsigned](a, b T) (T, bool) {
	sum := a + b
	if sum < a {
		var zero T
		return zero, false
	}
	return sum, true
}

// CheckedSub returns a-b and true, or the zero value and false if
// b is greater than a.
func CheckedSub[T Unsigned](a, b T) (T, bool) {
	if b > a {
		var zero T
		return zero, false
	}
	return a - b, true
}

// Dispatcher routes a call on behalf of a caller to the operation it
// names. Every pallet implements it for its own call union, and so
// does the runtime for the union of all pallet calls.
//
// A nil error is success. Failures are returned unchanged to the
// caller; dispatchers never swallow them.
type Dispatcher[Caller any, Call any] interface {
	Dispatch(caller Caller, call Call) error
}

// Header carries the block number a block declares.
type Header[N Unsigned] struct {
	BlockNumber N
}

// Extrinsic is an externally submitted call together with the
// account that submitted it.
type Extrinsic[Caller any, Call any] struct {
	Caller Caller
	Call   Call
}

// Block is an ordered batch of extrinsics. Order is significant and
// is preserved by the executor.
type Block[N Unsigned, Caller any, Call any] struct {
	Header     Header[N]
	Extrinsics []Extrinsic[Caller, Call]
}
