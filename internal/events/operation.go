package events

import "time"

// OperationStart is emitted before compiling and executing an operation.
type OperationStart struct {
	Query         string
	OperationName string
	OperationType string
}

// OperationFinish is emitted after an operation completes.
type OperationFinish struct {
	Query         string
	OperationName string
	OperationType string
	ProblemCount  int
	Duration      time.Duration
}
