package chaingrpc

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/server"
)

// Trailer keys carrying the fields of a rejected block.
const (
	trailerBlockNumber   = "minichain-block-number"
	trailerBlockExpected = "minichain-block-expected"
	trailerBlockCause    = "minichain-block-cause"

	causeWrongBlockNumber = "wrong_block_number"
)

// toStatus converts an application error into a gRPC status error.
// A rejected block also sets trailers so the client can rebuild the
// *minichain.BlockError.
func toStatus(ctx context.Context, err error) error {
	if be, ok := minichain.IsBlockError(err); ok {
		cause := be.Err.Error()
		if errors.Is(be.Err, minichain.ErrWrongBlockNumber) {
			cause = causeWrongBlockNumber
		}
		_ = grpc.SetTrailer(ctx, metadata.Pairs(
			trailerBlockNumber, strconv.FormatUint(be.Number, 10),
			trailerBlockExpected, strconv.FormatUint(be.Expected, 10),
			trailerBlockCause, cause,
		))
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if errors.Is(err, server.ErrOutOfOrder) {
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// fromStatus converts a gRPC error back into the error the remote
// application returned, as far as the wire allows.
func fromStatus(err error, trailer metadata.MD) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.InvalidArgument:
		if be := blockErrorFromTrailer(trailer); be != nil {
			return be
		}
	case codes.FailedPrecondition:
		return fmt.Errorf("%w: remote: %s", server.ErrOutOfOrder, st.Message())
	}
	return err
}

func blockErrorFromTrailer(md metadata.MD) *minichain.BlockError {
	number, ok1 := trailerUint(md, trailerBlockNumber)
	expected, ok2 := trailerUint(md, trailerBlockExpected)
	if !ok1 || !ok2 {
		return nil
	}
	cause := minichain.ErrWrongBlockNumber
	if v := md.Get(trailerBlockCause); len(v) > 0 && v[0] != causeWrongBlockNumber {
		cause = errors.New(v[0])
	}
	return minichain.NewBlockError(number, expected, cause)
}

func trailerUint(md metadata.MD, key string) (uint64, bool) {
	v := md.Get(key)
	if len(v) == 0 {
		return 0, false
	}
	n, err := strconv.ParseUint(v[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
