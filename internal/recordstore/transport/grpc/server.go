// Package grpc provides the gRPC server of the record store.
package grpc

import (
	"context"
	"errors"
	"log/slog"

	rerrors "github.com/abgdnv/storefront/internal/recordstore/errors"
	"github.com/abgdnv/storefront/internal/recordstore/service"
	pb "github.com/abgdnv/storefront/pkg/api/recordstore/v1"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type Server struct {
	// Embed the unimplemented server for forward compatibility
	pb.UnimplementedRecordStoreServer
	service service.RecordService
	logger  *slog.Logger
}

func NewServer(service service.RecordService, logger *slog.Logger) *Server {
	return &Server{service: service, logger: logger.With("component", "grpc")}
}

func (s *Server) ListAll(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error) {
	collection, err := pb.ParseCollection(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	found, err := s.service.List(ctx, collection)
	if err != nil {
		return nil, s.toStatus(ctx, "ListAll", err)
	}
	recs := make([]pb.Record, len(found))
	for i := range found {
		recs[i] = toWire(&found[i])
	}
	out, err := pb.EncodeRecords(recs)
	if err != nil {
		return nil, s.toStatus(ctx, "ListAll", err)
	}
	return out, nil
}

func (s *Server) GetByID(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	collection, id, err := pb.ParseIDRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	found, err := s.service.Get(ctx, collection, id)
	if err != nil {
		return nil, s.toStatus(ctx, "GetByID", err)
	}
	return s.encode(ctx, "GetByID", found)
}

func (s *Server) Create(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	collection, id, fields, err := pb.ParseWriteRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	created, err := s.service.Create(ctx, collection, service.RecordCreateDto{ID: id, Fields: fields})
	if err != nil {
		return nil, s.toStatus(ctx, "Create", err)
	}
	return s.encode(ctx, "Create", created)
}

func (s *Server) Update(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	collection, id, fields, err := pb.ParseWriteRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	updated, err := s.service.Update(ctx, collection, id, service.RecordUpdateDto{Fields: fields})
	if err != nil {
		return nil, s.toStatus(ctx, "Update", err)
	}
	return s.encode(ctx, "Update", updated)
}

func (s *Server) Delete(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	collection, id, err := pb.ParseIDRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.service.Delete(ctx, collection, id); err != nil {
		return nil, s.toStatus(ctx, "Delete", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) encode(ctx context.Context, method string, dto *service.RecordDto) (*structpb.Struct, error) {
	out, err := pb.EncodeRecord(toWire(dto))
	if err != nil {
		return nil, s.toStatus(ctx, method, err)
	}
	return out, nil
}

// toStatus maps service errors to gRPC codes. Unknown errors are logged and hidden.
func (s *Server) toStatus(ctx context.Context, method string, err error) error {
	switch {
	case errors.Is(err, rerrors.ErrRecordNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, rerrors.ErrRecordExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, rerrors.ErrInvalidArgument), errors.Is(err, pb.ErrMalformed):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		s.logger.ErrorContext(ctx, "service call failed", "method", method, "error", err)
		return status.Error(codes.Internal, "internal server error")
	}
}

func toWire(dto *service.RecordDto) pb.Record {
	return pb.Record{
		ID:        dto.ID,
		CreatedAt: dto.CreatedAt,
		UpdatedAt: dto.UpdatedAt,
		Fields:    dto.Fields,
	}
}
