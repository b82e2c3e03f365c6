// Package interceptors provides the unary client interceptors used on outgoing gRPC connections.
package interceptors

import (
	"context"

	"github.com/abgdnv/storefront/pkg/config"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/retry"
	"github.com/sony/gobreaker/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// transientCodes are retried and count as failures for the circuit breaker.
var transientCodes = []codes.Code{codes.Unavailable, codes.ResourceExhausted, codes.Aborted}

// NewRetryInterceptor retries transient failures with exponential backoff.
func NewRetryInterceptor(cfg config.RetryConfig) grpc.UnaryClientInterceptor {
	return retry.UnaryClientInterceptor(
		retry.WithCodes(transientCodes...),
		retry.WithMax(cfg.MaxAttempts),
		retry.WithBackoff(retry.BackoffExponential(cfg.InitialBackoff)),
	)
}

// UnaryCircuitBreakerInterceptor wraps every call in cb. Only the error is observed;
// the reply is filled by the invoker as usual.
func UnaryCircuitBreakerInterceptor[T any](cb *gobreaker.CircuitBreaker[T]) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		var zero T
		_, err := cb.Execute(func() (T, error) {
			return zero, invoker(ctx, method, req, reply, cc, opts...)
		})
		return err
	}
}

// NewCircuitBreaker trips after more than cfg.ConsecutiveFailures transient failures in a row,
// or when the transient failure rate exceeds cfg.ErrorRatePercent. Data errors such as
// NotFound or InvalidArgument are treated as successes.
func NewCircuitBreaker(cfg config.CircuitBreakerConfig) grpc.UnaryClientInterceptor {
	name := cfg.Name
	if name == "" {
		name = "recordstore-cb"
	}
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			total := counts.TotalSuccesses + counts.TotalFailures
			return counts.ConsecutiveFailures > cfg.ConsecutiveFailures ||
				(total > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(total)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: isSuccessful,
	}
	return UnaryCircuitBreakerInterceptor(gobreaker.NewCircuitBreaker[any](st))
}

func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	for _, c := range transientCodes {
		if st.Code() == c {
			return false
		}
	}
	return true
}
