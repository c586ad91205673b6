// Package chaingrpc carries the node lifecycle over gRPC.
//
// The service has exactly five unary RPCs, one per Lifecycle call.
// There is no capability negotiation and no streaming. A transaction
// is a cramberry-encoded types.Extrinsic; a rejected block or an
// out-of-order call travels as a gRPC status with trailers and is
// rebuilt into the same Go error on the client.
//
// Messages are the types in minichain/types, serialized by cramberry
// struct tags, so no protobuf code generation is involved.
package chaingrpc

import (
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"google.golang.org/grpc/encoding"
)

const codecName = "cramberry"

// CramberryCodec implements grpc/encoding.Codec using cramberry
// for deterministic binary serialization.
type CramberryCodec struct{}

func (CramberryCodec) Marshal(v any) ([]byte, error) {
	data, err := cramberry.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cramberry marshal: %w", err)
	}
	return data, nil
}

func (CramberryCodec) Unmarshal(data []byte, v any) error {
	if err := cramberry.Unmarshal(data, v); err != nil {
		return fmt.Errorf("cramberry unmarshal: %w", err)
	}
	return nil
}

func (CramberryCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(CramberryCodec{})
}
