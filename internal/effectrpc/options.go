package effectrpc

import (
	"time"

	"google.golang.org/grpc"
)

const (
	defaultMaxConnsPerEndpoint = 2
	defaultRPCTimeout          = 3 * time.Second
)

// Options tunes the transport. Zero-valued fields fall back to defaults;
// only Provider is mandatory, calls fail without one.
type Options struct {
	// Provider resolves service names to endpoints.
	Provider EndpointProvider

	// MaxConnsPerEndpoint caps how many idle client connections the
	// transport keeps per endpoint.
	MaxConnsPerEndpoint int

	// RPCTimeout bounds a call whose context carries no deadline of its
	// own.
	RPCTimeout time.Duration

	// DialOptions are passed to grpc.NewClient. Defaults to insecure
	// credentials with standard backoff.
	DialOptions []grpc.DialOption
}

// Option adjusts one Options field.
type Option func(*Options)

func WithProvider(p EndpointProvider) Option { return func(o *Options) { o.Provider = p } }

func WithMaxConnsPerEndpoint(n int) Option { return func(o *Options) { o.MaxConnsPerEndpoint = n } }

func WithRPCTimeout(d time.Duration) Option { return func(o *Options) { o.RPCTimeout = d } }

func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *Options) { o.DialOptions = opts }
}
