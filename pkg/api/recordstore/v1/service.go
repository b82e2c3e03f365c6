// Package recordstorev1 describes the RecordStore gRPC service.
//
// Payloads are well-known protobuf types so that no generated code is needed:
// requests are google.protobuf.Struct values built by the helpers in codec.go,
// records travel as Struct and lists as ListValue.
package recordstorev1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "storefront.recordstore.v1.RecordStore"

const (
	ListAllFullMethodName = "/" + ServiceName + "/ListAll"
	GetByIDFullMethodName = "/" + ServiceName + "/GetByID"
	CreateFullMethodName  = "/" + ServiceName + "/Create"
	UpdateFullMethodName  = "/" + ServiceName + "/Update"
	DeleteFullMethodName  = "/" + ServiceName + "/Delete"
)

// RecordStoreServer is the server API for the RecordStore service.
type RecordStoreServer interface {
	ListAll(context.Context, *structpb.Struct) (*structpb.ListValue, error)
	GetByID(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Create(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Update(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Delete(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

// UnimplementedRecordStoreServer can be embedded to satisfy RecordStoreServer partially.
type UnimplementedRecordStoreServer struct{}

func (UnimplementedRecordStoreServer) ListAll(context.Context, *structpb.Struct) (*structpb.ListValue, error) {
	return nil, status.Error(codes.Unimplemented, "method ListAll not implemented")
}
func (UnimplementedRecordStoreServer) GetByID(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetByID not implemented")
}
func (UnimplementedRecordStoreServer) Create(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Create not implemented")
}
func (UnimplementedRecordStoreServer) Update(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Update not implemented")
}
func (UnimplementedRecordStoreServer) Delete(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Delete not implemented")
}

func RegisterRecordStoreServer(s grpc.ServiceRegistrar, srv RecordStoreServer) {
	s.RegisterService(&RecordStore_ServiceDesc, srv)
}

// unaryHandler adapts one RecordStoreServer method to a grpc.MethodDesc handler.
func unaryHandler[Out any](fullMethod string, call func(RecordStoreServer, context.Context, *structpb.Struct) (Out, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RecordStoreServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RecordStoreServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var RecordStore_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RecordStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListAll", Handler: unaryHandler(ListAllFullMethodName, RecordStoreServer.ListAll)},
		{MethodName: "GetByID", Handler: unaryHandler(GetByIDFullMethodName, RecordStoreServer.GetByID)},
		{MethodName: "Create", Handler: unaryHandler(CreateFullMethodName, RecordStoreServer.Create)},
		{MethodName: "Update", Handler: unaryHandler(UpdateFullMethodName, RecordStoreServer.Update)},
		{MethodName: "Delete", Handler: unaryHandler(DeleteFullMethodName, RecordStoreServer.Delete)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/recordstore/v1/recordstore.proto",
}
