// Package server assembles the HTTP API and the gRPC health server.
package server

import (
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	healthhandler "contract-rbac/internal/health/handler"
	"contract-rbac/internal/logger"
)

// GRPCDeps holds the collaborators of the gRPC server.
type GRPCDeps struct {
	Logger zerolog.Logger
	Health *healthhandler.Server
	// Reflection registers the reflection service. Enable outside production only.
	Reflection bool
}

// NewGRPCServer returns a gRPC server exposing the standard health service, traced
// with otelgrpc and logged per call.
func NewGRPCServer(deps GRPCDeps) *grpc.Server {
	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(logger.UnaryRequests(deps.Logger)),
	)
	RegisterServices(s, deps)
	if deps.Reflection {
		reflection.Register(s)
	}
	return s
}

// RegisterServices registers the gRPC services with s.
func RegisterServices(s grpc.ServiceRegistrar, deps GRPCDeps) {
	health := deps.Health
	if health == nil {
		health = healthhandler.NewServer(nil, nil)
	}
	healthpb.RegisterHealthServer(s, health)
}
