package result

import "fmt"

// Problem describes a single user-visible failure: a message plus an
// optional source location.
type Problem struct {
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

func (p *Problem) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s %s:%d:%d", p.Message, p.File, p.Line, p.Column)
	}
	return p.Message
}

// Problemf builds a Problem without location information.
func Problemf(format string, args ...any) *Problem {
	return &Problem{Message: fmt.Sprintf(format, args...)}
}

// ProblemAt builds a Problem carrying a source location.
func ProblemAt(file string, line, column int, format string, args ...any) *Problem {
	return &Problem{Message: fmt.Sprintf(format, args...), File: file, Line: line, Column: column}
}

// Problems is the error type carried by failed Results. It is always
// non-empty and preserves insertion order.
type Problems []*Problem

func (ps Problems) Error() string {
	if len(ps) == 1 {
		return ps[0].String()
	}
	msg := "problems found:\n"
	for _, p := range ps {
		msg += "- " + p.String() + "\n"
	}
	return msg
}

// Result is either a success holding a T or a failure holding one or more
// Problems. Values are immutable; a failed Result never carries a usable T.
type Result[T any] struct {
	value    T
	problems Problems
}

// OK wraps a success value.
func OK[T any](v T) Result[T] { return Result[T]{value: v} }

// Fail wraps one or more problems. It panics when called with none:
// a failure with zero problems is a programming defect, not a domain state.
func Fail[T any](ps ...*Problem) Result[T] {
	if len(ps) == 0 {
		panic("result: Fail called with no problems")
	}
	return Result[T]{problems: ps}
}

// Failf is shorthand for Fail(Problemf(...)).
func Failf[T any](format string, args ...any) Result[T] {
	return Fail[T](Problemf(format, args...))
}

// FailAll wraps an existing non-empty problem list.
func FailAll[T any](ps Problems) Result[T] {
	if len(ps) == 0 {
		panic("result: FailAll called with no problems")
	}
	return Result[T]{problems: ps}
}

// IsOK reports whether the result is a success.
func (r Result[T]) IsOK() bool { return len(r.problems) == 0 }

// Value returns the success value. Only meaningful when IsOK().
func (r Result[T]) Value() T { return r.value }

// Problems returns the failure problems, nil for a success.
func (r Result[T]) Problems() Problems { return r.problems }

// Err returns the problems as an error, nil for a success.
func (r Result[T]) Err() error {
	if r.IsOK() {
		return nil
	}
	return r.problems
}

// Get unpacks the result into Go's conventional (value, error) pair.
func (r Result[T]) Get() (T, error) { return r.value, r.Err() }

// FlatMap sequences a dependent computation: the first failure is terminal.
func FlatMap[A, B any](r Result[A], f func(A) Result[B]) Result[B] {
	if !r.IsOK() {
		return FailAll[B](r.problems)
	}
	return f(r.value)
}

// Map transforms the success value, passing failures through unchanged.
func Map[A, B any](r Result[A], f func(A) B) Result[B] {
	if !r.IsOK() {
		return FailAll[B](r.problems)
	}
	return OK(f(r.value))
}

// Map2 combines two independent results with f, accumulating the problems
// of both when either fails.
func Map2[A, B, C any](ra Result[A], rb Result[B], f func(A, B) C) Result[C] {
	ps := append(append(Problems{}, ra.problems...), rb.problems...)
	if len(ps) > 0 {
		return FailAll[C](ps)
	}
	return OK(f(ra.value, rb.value))
}

// Traverse applies f to every element of xs and collects every element's
// problems before failing: independent items are validated together.
func Traverse[A, B any](xs []A, f func(A) Result[B]) Result[[]B] {
	out := make([]B, 0, len(xs))
	var ps Problems
	for _, x := range xs {
		r := f(x)
		if r.IsOK() {
			out = append(out, r.value)
		} else {
			ps = append(ps, r.problems...)
		}
	}
	if len(ps) > 0 {
		return FailAll[[]B](ps)
	}
	return OK(out)
}

// Combine unions the problems of every failed result in rs, succeeding with
// the collected values only when all succeed.
func Combine[T any](rs ...Result[T]) Result[[]T] {
	out := make([]T, 0, len(rs))
	var ps Problems
	for _, r := range rs {
		if r.IsOK() {
			out = append(out, r.value)
		} else {
			ps = append(ps, r.problems...)
		}
	}
	if len(ps) > 0 {
		return FailAll[[]T](ps)
	}
	return OK(out)
}

// Unit is the success value for result computations run only for validation.
type Unit = struct{}

// OKUnit is the canonical successful Unit result.
var OKUnit = OK(Unit{})
