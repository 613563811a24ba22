// Package effectrpc delegates bound side effects to remote resolver
// services over gRPC. The transport pools client connections per endpoint,
// picks endpoints through a provider and propagates deadlines; Handler
// wraps a transport call into the interpreter's effect contract.
package effectrpc

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/hanpama/cursorgraph/internal/eventbus"
	"github.com/hanpama/cursorgraph/internal/events"
)

// Caller issues one unary call described by a method descriptor. Satisfied
// by Transport; handlers depend on this so tests can substitute a fake.
type Caller interface {
	Call(ctx context.Context, method protoreflect.MethodDescriptor, request protoreflect.Message) (protoreflect.Message, error)
}

// Transport calls dynamic gRPC methods over pooled client connections.
type Transport struct {
	opts Options

	mu     sync.Mutex
	pools  map[string]*endpointPool
	closed atomic.Bool
}

var _ Caller = (*Transport)(nil)

func NewTransport(opts ...Option) *Transport {
	var o Options
	for _, apply := range opts {
		apply(&o)
	}
	if o.MaxConnsPerEndpoint <= 0 {
		o.MaxConnsPerEndpoint = defaultMaxConnsPerEndpoint
	}
	if o.RPCTimeout <= 0 {
		o.RPCTimeout = defaultRPCTimeout
	}
	if len(o.DialOptions) == 0 {
		o.DialOptions = []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithConnectParams(grpc.ConnectParams{Backoff: backoff.DefaultConfig}),
		}
	}
	return &Transport{opts: o, pools: map[string]*endpointPool{}}
}

// Call resolves the method's parent service to an endpoint, borrows a
// connection and performs the unary invoke. The calling service name
// travels as outgoing metadata, and RPC start/finish events are published
// around the invoke.
func (t *Transport) Call(ctx context.Context, method protoreflect.MethodDescriptor, request protoreflect.Message) (protoreflect.Message, error) {
	if t.closed.Load() {
		return nil, fmt.Errorf("effectrpc: transport closed")
	}
	if t.opts.Provider == nil {
		return nil, fmt.Errorf("effectrpc: no endpoint provider configured")
	}
	service := string(method.Parent().FullName())
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.opts.RPCTimeout)
		defer cancel()
	}
	ctx = metadata.AppendToOutgoingContext(ctx, "x-cursorgraph-service", service)

	endpoints, err := t.opts.Provider.Endpoints(ctx, service)
	if err != nil {
		return nil, err
	}
	endpoint := endpoints[rand.IntN(len(endpoints))]
	pool := t.pool(endpoint)
	cc, err := pool.borrow()
	if err != nil {
		return nil, err
	}
	defer pool.release(cc)

	fullMethod := fmt.Sprintf("/%s/%s", service, method.Name())
	response := dynamicpb.NewMessage(method.Output())
	start := time.Now()
	eventbus.Publish(ctx, events.RPCStart{Service: service, Method: string(method.Name()), Target: endpoint})
	err = cc.Invoke(ctx, fullMethod, request.Interface(), response)
	eventbus.Publish(ctx, events.RPCFinish{
		Service:  service,
		Method:   string(method.Name()),
		Target:   endpoint,
		Code:     status.Code(err),
		Err:      err,
		Duration: time.Since(start),
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// Close drains every pool. Calls after Close fail.
func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.pools {
		p.drain()
	}
	t.pools = map[string]*endpointPool{}
	return nil
}

func (t *Transport) pool(endpoint string) *endpointPool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.pools[endpoint]
	if p == nil {
		p = &endpointPool{
			endpoint: endpoint,
			dial:     t.opts.DialOptions,
			idle:     make(chan *grpc.ClientConn, t.opts.MaxConnsPerEndpoint),
		}
		t.pools[endpoint] = p
	}
	return p
}

// endpointPool keeps idle client connections for one endpoint, up to the
// channel capacity. Borrowing past the cap dials a fresh connection;
// releasing past the cap closes the surplus.
type endpointPool struct {
	endpoint string
	dial     []grpc.DialOption
	idle     chan *grpc.ClientConn
	closed   atomic.Bool
}

func (p *endpointPool) borrow() (*grpc.ClientConn, error) {
	if p.closed.Load() {
		return nil, fmt.Errorf("effectrpc: pool for %s closed", p.endpoint)
	}
	select {
	case cc := <-p.idle:
		return cc, nil
	default:
		return grpc.NewClient(p.endpoint, p.dial...)
	}
}

func (p *endpointPool) release(cc *grpc.ClientConn) {
	if cc == nil {
		return
	}
	if p.closed.Load() {
		_ = cc.Close()
		return
	}
	select {
	case p.idle <- cc:
	default:
		_ = cc.Close()
	}
}

func (p *endpointPool) drain() {
	if p.closed.Swap(true) {
		return
	}
	close(p.idle)
	for cc := range p.idle {
		_ = cc.Close()
	}
}
