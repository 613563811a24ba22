package effectrpc

import (
	"context"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/hanpama/cursorgraph/internal/query"
	"github.com/hanpama/cursorgraph/internal/result"
)

// EncodeFunc builds the request message for one effect from the bound
// sub-query and the cursor the effect fires at.
type EncodeFunc func(ctx context.Context, q query.Query, c query.Cursor) result.Result[protoreflect.Message]

// DecodeFunc turns the response message into the cursor the effect's
// sub-query continues against.
type DecodeFunc func(ctx context.Context, resp protoreflect.Message) result.Result[query.Cursor]

// Handler runs one remote method as an effect: encode the request from the
// focus, call, decode the response into the continuation cursor.
type Handler struct {
	caller Caller
	method protoreflect.MethodDescriptor
	encode EncodeFunc
	decode DecodeFunc
}

func NewHandler(caller Caller, method protoreflect.MethodDescriptor, encode EncodeFunc, decode DecodeFunc) *Handler {
	return &Handler{caller: caller, method: method, encode: encode, decode: decode}
}

var _ query.EffectHandler = (*Handler)(nil)

func (h *Handler) RunEffect(ctx context.Context, q query.Query, c query.Cursor) result.Result[query.Cursor] {
	return result.FlatMap(h.encode(ctx, q, c), func(req protoreflect.Message) result.Result[query.Cursor] {
		resp, err := h.caller.Call(ctx, h.method, req)
		if err != nil {
			return result.Failf[query.Cursor]("calling %s.%s: %s",
				h.method.Parent().FullName(), h.method.Name(), err)
		}
		return h.decode(ctx, resp)
	})
}
