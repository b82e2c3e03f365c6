package records

import (
	"context"
	"errors"
	"fmt"

	serrors "github.com/abgdnv/storefront/internal/storefront/errors"
	pb "github.com/abgdnv/storefront/pkg/api/recordstore/v1"
	"github.com/abgdnv/storefront/pkg/client/grpc/interceptors"
	"github.com/abgdnv/storefront/pkg/config"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// GRPCClient is a Client backed by the record store gRPC service.
type GRPCClient struct {
	api pb.RecordStoreClient
}

func NewGRPCClient(api pb.RecordStoreClient) *GRPCClient {
	return &GRPCClient{api: api}
}

// Dial creates the record store connection. Calls pass through the timeout,
// retry and circuit breaker interceptors, in that order.
func Dial(cfg config.GrpcClientConfig, resilience config.ResilienceConfig, extra ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(
			interceptors.UnaryClientTimeoutInterceptor(cfg.Timeout),
			interceptors.NewRetryInterceptor(resilience.Retry),
			interceptors.NewCircuitBreaker(resilience.CircuitBreaker),
		),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
	conn, err := grpc.NewClient(cfg.Addr, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client connection: %w", err)
	}
	return conn, nil
}

func (c *GRPCClient) ListAll(ctx context.Context, collection string) ([]Record, error) {
	resp, err := c.api.ListAll(ctx, pb.CollectionRequest(collection))
	if err != nil {
		return nil, storeError("list", collection, "", err)
	}
	recs, err := pb.DecodeRecords(resp)
	if err != nil {
		return nil, storeError("list", collection, "", err)
	}
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		out = append(out, fromWire(r))
	}
	return out, nil
}

func (c *GRPCClient) GetByID(ctx context.Context, collection, id string) (*Record, error) {
	resp, err := c.api.GetByID(ctx, pb.IDRequest(collection, id))
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get", collection, id, err)
	}
	return decode("get", collection, id, resp)
}

func (c *GRPCClient) Create(ctx context.Context, collection string, rec Record) (*Record, error) {
	req, err := pb.WriteRequest(collection, rec.ID, rec.Fields)
	if err != nil {
		return nil, storeError("create", collection, rec.ID, err)
	}
	resp, err := c.api.Create(ctx, req)
	if err != nil {
		return nil, storeError("create", collection, rec.ID, err)
	}
	return decode("create", collection, rec.ID, resp)
}

func (c *GRPCClient) Update(ctx context.Context, collection string, rec Record) (*Record, error) {
	if rec.ID == "" {
		return nil, storeError("update", collection, "", errors.New("record id is required"))
	}
	req, err := pb.WriteRequest(collection, rec.ID, rec.Fields)
	if err != nil {
		return nil, storeError("update", collection, rec.ID, err)
	}
	resp, err := c.api.Update(ctx, req)
	if err != nil {
		return nil, storeError("update", collection, rec.ID, err)
	}
	return decode("update", collection, rec.ID, resp)
}

func (c *GRPCClient) Delete(ctx context.Context, collection, id string) error {
	if _, err := c.api.Delete(ctx, pb.IDRequest(collection, id)); err != nil {
		return storeError("delete", collection, id, err)
	}
	return nil
}

func decode(op, collection, id string, s *structpb.Struct) (*Record, error) {
	r, err := pb.DecodeRecord(s)
	if err != nil {
		return nil, storeError(op, collection, id, err)
	}
	out := fromWire(r)
	return &out, nil
}

func fromWire(r pb.Record) Record {
	out := Record{ID: r.ID, Fields: r.Fields}
	if !r.CreatedAt.IsZero() {
		t := r.CreatedAt
		out.CreatedAt = &t
	}
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		out.UpdatedAt = &t
	}
	if out.Fields == nil {
		out.Fields = map[string]any{}
	}
	return out
}

// storeError wraps err, translating gRPC NotFound and AlreadyExists into the storefront sentinels.
func storeError(op, collection, id string, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		err = fmt.Errorf("%w: %s", serrors.ErrRecordNotFound, status.Convert(err).Message())
	case codes.AlreadyExists:
		err = fmt.Errorf("%w: %s", serrors.ErrRecordExists, status.Convert(err).Message())
	}
	return &serrors.StoreError{Op: op, Collection: collection, ID: id, Err: err}
}
