package effectrpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/jhump/protoreflect/v2/protobuilder"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/hanpama/cursorgraph/internal/mapping"
	"github.com/hanpama/cursorgraph/internal/query"
	"github.com/hanpama/cursorgraph/internal/result"
	"github.com/hanpama/cursorgraph/internal/schema"
	"github.com/hanpama/cursorgraph/internal/value"
	"github.com/hanpama/cursorgraph/internal/valuemap"
)

func TestStaticEndpoints(t *testing.T) {
	p := NewStaticEndpoints(map[string][]string{
		"starwars.v1.ResolverService": {"localhost:7001", "localhost:7002"},
	})

	eps, err := p.Endpoints(context.Background(), "starwars.v1.ResolverService")
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:7001", "localhost:7002"}, eps)

	_, err = p.Endpoints(context.Background(), "starwars.v1.Unknown")
	assert.ErrorIs(t, err, ErrNoEndpoints)
}

// buildEchoMethod synthesizes one resolver method descriptor:
// rpc ResolveQueryGreeting(Request{name}) returns (Response{greeting}).
func buildEchoMethod(t *testing.T) protoreflect.MethodDescriptor {
	t.Helper()
	fb := protobuilder.NewFile("test/v1/resolver.proto")
	fb.SetPackageName("test.v1")
	fb.SetSyntax(protoreflect.Proto3)

	reqB := protobuilder.NewMessage("ResolveQueryGreetingRequest")
	nameField := protobuilder.NewField("name", protobuilder.FieldTypeScalar(protoreflect.StringKind))
	nameField.SetNumber(1)
	reqB.AddField(nameField)
	fb.AddMessage(reqB)

	respB := protobuilder.NewMessage("ResolveQueryGreetingResponse")
	greetingField := protobuilder.NewField("greeting", protobuilder.FieldTypeScalar(protoreflect.StringKind))
	greetingField.SetNumber(1)
	respB.AddField(greetingField)
	fb.AddMessage(respB)

	sb := protobuilder.NewService("ResolverService")
	mb := protobuilder.NewMethod("ResolveQueryGreeting",
		protobuilder.RpcTypeMessage(reqB, false),
		protobuilder.RpcTypeMessage(respB, false))
	sb.AddMethod(mb)
	fb.AddService(sb)

	fd, err := fb.Build()
	require.NoError(t, err)
	return fd.Services().ByName("ResolverService").Methods().ByName("ResolveQueryGreeting")
}

// fakeCaller answers ResolveQueryGreeting locally.
type fakeCaller struct {
	calls int
}

func (f *fakeCaller) Call(ctx context.Context, method protoreflect.MethodDescriptor, request protoreflect.Message) (protoreflect.Message, error) {
	f.calls++
	name := request.Get(request.Descriptor().Fields().ByName("name")).String()
	resp := dynamicpb.NewMessage(method.Output())
	resp.Set(resp.Descriptor().Fields().ByName("greeting"), protoreflect.ValueOfString("Hello, "+name))
	return resp, nil
}

func TestHandlerRunsRemoteEffect(t *testing.T) {
	r := schema.Build("test", `type Query { greeting(name: String!): String! }`)
	require.NoError(t, r.Err())
	s := r.Value()

	method := buildEchoMethod(t)
	caller := &fakeCaller{}

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
	m.BindEffect("Query", "greeting", NewHandler(caller, method, encode, decode))

	res := m.Execute(context.Background(), `{ greeting(name: "Ada") }`, "", nil)
	require.NoError(t, res.Err())
	assert.Equal(t, map[string]any{"greeting": "Hello, Ada"}, res.Value())
	assert.Equal(t, 1, caller.calls)
}

func TestHandlerReportsCallFailure(t *testing.T) {
	r := schema.Build("test", `type Query { greeting(name: String!): String! }`)
	require.NoError(t, r.Err())
	s := r.Value()

	method := buildEchoMethod(t)
	h := NewHandler(failingCaller{}, method,
		func(ctx context.Context, q query.Query, c query.Cursor) result.Result[protoreflect.Message] {
			return result.OK[protoreflect.Message](dynamicpb.NewMessage(method.Input()))
		},
		func(ctx context.Context, resp protoreflect.Message) result.Result[query.Cursor] {
			return result.OK(valuemap.New(s, map[string]any{}).Root())
		})

	res := h.RunEffect(context.Background(), &query.Select{Name: "greeting"}, valuemap.New(s, map[string]any{}).Root())
	require.Error(t, res.Err())
	assert.Contains(t, res.Err().Error(), "calling test.v1.ResolverService.ResolveQueryGreeting")
}

type failingCaller struct{}

func (failingCaller) Call(ctx context.Context, method protoreflect.MethodDescriptor, request protoreflect.Message) (protoreflect.Message, error) {
	return nil, context.DeadlineExceeded
}
