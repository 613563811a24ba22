package effectrpc

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/hanpama/cursorgraph/internal/eventbus"
	"github.com/hanpama/cursorgraph/internal/events"
	"github.com/hanpama/cursorgraph/internal/mapping"
	"github.com/hanpama/cursorgraph/internal/query"
	"github.com/hanpama/cursorgraph/internal/result"
	"github.com/hanpama/cursorgraph/internal/schema"
	"github.com/hanpama/cursorgraph/internal/value"
	"github.com/hanpama/cursorgraph/internal/valuemap"
)

// callLog records what the resolver server saw per call.
type callLog struct {
	mu       sync.Mutex
	services []string
}

func (l *callLog) record(service string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, service)
}

func (l *callLog) seen() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.services...)
}

// startResolverServer serves the echo method on a loopback listener. The
// method's service is never registered, so the unknown-service handler
// answers every call dynamically.
func startResolverServer(t *testing.T, method protoreflect.MethodDescriptor) (string, *callLog) {
	t.Helper()
	log := &callLog{}
	nameField := method.Input().Fields().ByName("name")
	greetingField := method.Output().Fields().ByName("greeting")

	unknown := func(_ any, stream grpc.ServerStream) error {
		req := dynamicpb.NewMessage(method.Input())
		if err := stream.RecvMsg(req); err != nil {
			return err
		}
		if md, ok := metadata.FromIncomingContext(stream.Context()); ok {
			for _, service := range md.Get("x-cursorgraph-service") {
				log.record(service)
			}
		}
		resp := dynamicpb.NewMessage(method.Output())
		resp.Set(greetingField, protoreflect.ValueOfString("Hello, "+req.Get(nameField).String()))
		return stream.SendMsg(resp)
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := grpc.NewServer(grpc.UnknownServiceHandler(unknown))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return lis.Addr().String(), log
}

func TestTransportResolvesEffectOverGRPC(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	var starts []events.RPCStart
	var finishes []events.RPCFinish
	unsubStart := eventbus.Subscribe(func(ctx context.Context, e events.RPCStart) { starts = append(starts, e) })
	defer unsubStart()
	unsubFinish := eventbus.Subscribe(func(ctx context.Context, e events.RPCFinish) { finishes = append(finishes, e) })
	defer unsubFinish()

	r := schema.Build("test", `type Query { greeting(name: String!): String! }`)
	require.NoError(t, r.Err())
	s := r.Value()

	method := buildEchoMethod(t)
	addr, log := startResolverServer(t, method)

	tr := NewTransport(
		WithProvider(NewStaticEndpoints(map[string][]string{
			"test.v1.ResolverService": {addr},
		})),
		WithRPCTimeout(2*time.Second),
	)
	defer func() { _ = tr.Close() }()

	encode := func(ctx context.Context, q query.Query, c query.Cursor) result.Result[protoreflect.Message] {
		sel, ok := q.(*query.Select)
		if !ok {
			return result.Failf[protoreflect.Message]("effect expects a field selection, got %T", q)
		}
		name, ok := sel.Args.Get("name")
		if !ok {
			return result.Failf[protoreflect.Message]("greeting requires a name argument")
		}
		str, ok := name.(value.Str)
		if !ok {
			return result.Failf[protoreflect.Message]("expected a string argument, got %T", name)
		}
		req := dynamicpb.NewMessage(method.Input())
		req.Set(req.Descriptor().Fields().ByName("name"), protoreflect.ValueOfString(string(str)))
		return result.OK[protoreflect.Message](req)
	}
	decode := func(ctx context.Context, resp protoreflect.Message) result.Result[query.Cursor] {
		greeting := resp.Get(resp.Descriptor().Fields().ByName("greeting")).String()
		return result.OK(valuemap.New(s, map[string]any{"greeting": greeting}).Root())
	}

	m := mapping.New(s, valuemap.New(s, map[string]any{}))
	m.BindEffect("Query", "greeting", NewHandler(tr, method, encode, decode))

	res := m.Execute(context.Background(), `{ greeting(name: "Grace") }`, "", nil)
	require.NoError(t, res.Err())
	assert.Equal(t, map[string]any{"greeting": "Hello, Grace"}, res.Value())

	assert.Equal(t, []string{"test.v1.ResolverService"}, log.seen())
	require.Len(t, starts, 1)
	assert.Equal(t, "test.v1.ResolverService", starts[0].Service)
	assert.Equal(t, "ResolveQueryGreeting", starts[0].Method)
	assert.Equal(t, addr, starts[0].Target)
	require.Len(t, finishes, 1)
	assert.Equal(t, codes.OK, finishes[0].Code)
	assert.NoError(t, finishes[0].Err)
}

func TestTransportReusesPooledConnections(t *testing.T) {
	method := buildEchoMethod(t)
	addr, log := startResolverServer(t, method)

	tr := NewTransport(
		WithProvider(NewStaticEndpoints(map[string][]string{
			"test.v1.ResolverService": {addr},
		})),
		WithMaxConnsPerEndpoint(1),
		WithRPCTimeout(2*time.Second),
	)
	defer func() { _ = tr.Close() }()

	for i := 0; i < 3; i++ {
		req := dynamicpb.NewMessage(method.Input())
		req.Set(req.Descriptor().Fields().ByName("name"), protoreflect.ValueOfString("x"))
		resp, err := tr.Call(context.Background(), method, req)
		require.NoError(t, err)
		greeting := resp.Get(resp.Descriptor().Fields().ByName("greeting")).String()
		assert.Equal(t, "Hello, x", greeting)
	}
	assert.Len(t, log.seen(), 3)
}

func TestTransportRequiresProvider(t *testing.T) {
	tr := NewTransport()
	defer func() { _ = tr.Close() }()

	method := buildEchoMethod(t)
	_, err := tr.Call(context.Background(), method, dynamicpb.NewMessage(method.Input()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no endpoint provider")
}

func TestTransportRejectsCallsAfterClose(t *testing.T) {
	tr := NewTransport(WithProvider(NewStaticEndpoints(nil)))
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	method := buildEchoMethod(t)
	_, err := tr.Call(context.Background(), method, dynamicpb.NewMessage(method.Input()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport closed")
}

func TestStaticEndpointsSetSwapsEntries(t *testing.T) {
	p := NewStaticEndpoints(nil)
	_, err := p.Endpoints(context.Background(), "test.v1.ResolverService")
	assert.ErrorIs(t, err, ErrNoEndpoints)

	p.Set("test.v1.ResolverService", "localhost:7001")
	eps, err := p.Endpoints(context.Background(), "test.v1.ResolverService")
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:7001"}, eps)
}
