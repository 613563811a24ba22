package events

import (
	"time"

	"google.golang.org/grpc/codes"
)

// RPCStart is emitted before an effect handler's remote call.
type RPCStart struct {
	Service string
	Method  string
	Target  string
}

// RPCFinish is emitted after an effect handler's remote call completes.
type RPCFinish struct {
	Service  string
	Method   string
	Target   string
	Code     codes.Code
	Err      error
	Duration time.Duration
}
