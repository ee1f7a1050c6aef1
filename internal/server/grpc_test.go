package server

import (
	"testing"

	"google.golang.org/grpc"
)

// mockServiceRegistrar implements grpc.ServiceRegistrar for testing.
type mockServiceRegistrar struct {
	services []string
}

func (m *mockServiceRegistrar) RegisterService(desc *grpc.ServiceDesc, impl interface{}) {
	m.services = append(m.services, desc.ServiceName)
}

func TestRegisterServices_HealthRegistered(t *testing.T) {
	reg := &mockServiceRegistrar{}
	RegisterServices(reg, GRPCDeps{})

	if len(reg.services) != 1 || reg.services[0] != "grpc.health.v1.Health" {
		t.Errorf("registered services = %v, want [grpc.health.v1.Health]", reg.services)
	}
}

func TestNewGRPCServer(t *testing.T) {
	s := NewGRPCServer(GRPCDeps{Reflection: true})
	defer s.Stop()

	info := s.GetServiceInfo()
	if _, ok := info["grpc.health.v1.Health"]; !ok {
		t.Errorf("health service missing from %v", info)
	}
	if _, ok := info["grpc.reflection.v1.ServerReflection"]; !ok {
		t.Errorf("reflection service missing from %v", info)
	}
}
