package effectrpc

import (
	"context"
	"errors"
	"sync"
)

// ErrNoEndpoints is returned when a provider knows no endpoint for the
// requested service.
var ErrNoEndpoints = errors.New("effectrpc: no endpoints available")

// EndpointProvider resolves a fully qualified gRPC service name such as
// "starwars.v1.ResolverService" to the host:port endpoints currently
// serving it. Implementations must be safe for concurrent use and return
// at least one endpoint or an error.
type EndpointProvider interface {
	Endpoints(ctx context.Context, service string) ([]string, error)
}

// StaticEndpoints serves endpoints from an in-memory table. Suitable for
// fixed deployments and tests; entries can be swapped at runtime with Set.
type StaticEndpoints struct {
	mu    sync.RWMutex
	table map[string][]string
}

func NewStaticEndpoints(table map[string][]string) *StaticEndpoints {
	s := &StaticEndpoints{table: map[string][]string{}}
	for service, endpoints := range table {
		s.table[service] = append([]string(nil), endpoints...)
	}
	return s
}

// Set replaces the endpoints recorded for service.
func (s *StaticEndpoints) Set(service string, endpoints ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table[service] = append([]string(nil), endpoints...)
}

func (s *StaticEndpoints) Endpoints(_ context.Context, service string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	endpoints := s.table[service]
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	return append([]string(nil), endpoints...), nil
}
