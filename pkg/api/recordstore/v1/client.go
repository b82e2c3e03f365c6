package recordstorev1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// RecordStoreClient is the client API for the RecordStore service.
type RecordStoreClient interface {
	ListAll(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error)
	GetByID(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Create(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Update(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type recordStoreClient struct {
	cc grpc.ClientConnInterface
}

func NewRecordStoreClient(cc grpc.ClientConnInterface) RecordStoreClient {
	return &recordStoreClient{cc: cc}
}

func (c *recordStoreClient) ListAll(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, ListAllFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *recordStoreClient) GetByID(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetByIDFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *recordStoreClient) Create(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CreateFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *recordStoreClient) Update(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, UpdateFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *recordStoreClient) Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, DeleteFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
