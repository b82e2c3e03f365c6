package server

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// RegistrationFunc registers a grpc service with the server.
type RegistrationFunc func(*grpc.Server)

// GRPCOptions tunes the server built by NewGRPCServer.
// Health is registered as the health service; a fresh one is created when nil.
type GRPCOptions struct {
	Reflection    bool
	Health        *health.Server
	ServerOptions []grpc.ServerOption
}

// NewGRPCServer creates a gRPC server with the standard health service,
// optional reflection and the given service registrations.
func NewGRPCServer(opts GRPCOptions, registerFunc ...RegistrationFunc) *grpc.Server {
	grpcServer := grpc.NewServer(opts.ServerOptions...)

	hs := opts.Health
	if hs == nil {
		hs = health.NewServer()
	}
	healthpb.RegisterHealthServer(grpcServer, hs)
	if opts.Reflection {
		reflection.Register(grpcServer)
	}

	for _, regFunc := range registerFunc {
		regFunc(grpcServer)
	}

	return grpcServer
}
