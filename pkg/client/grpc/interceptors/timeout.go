package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

// UnaryClientTimeoutInterceptor bounds every call with timeout unless the caller's
// deadline is already sooner. A non-positive timeout leaves calls unbounded.
func UnaryClientTimeoutInterceptor(timeout time.Duration) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if timeout <= 0 {
			return invoker(ctx, method, req, reply, cc, opts...)
		}
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return invoker(callCtx, method, req, reply, cc, opts...)
	}
}
