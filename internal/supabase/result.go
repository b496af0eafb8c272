package supabase

import (
	"encoding/json"
	"fmt"
)

// Result is either a value returned by the backend or the error it failed
// with. Exactly one of the two is set.
type Result[T any] struct {
	value T
	err   error
}

func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

func Err[T any](err error) Result[T] {
	if err == nil {
		err = fmt.Errorf("supabase: empty error")
	}
	return Result[T]{err: err}
}

func (r Result[T]) IsOk() bool { return r.err == nil }

func (r Result[T]) Err() error { return r.err }

// Unwrap returns the value and error in Go's usual order.
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.err
}

// Decode turns a raw JSON result into a typed one.
func Decode[T any](r Result[[]byte]) Result[T] {
	body, err := r.Unwrap()
	if err != nil {
		return Err[T](err)
	}
	var v T
	if len(body) == 0 {
		return Ok(v)
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return Err[T](fmt.Errorf("decode response: %w", err))
	}
	return Ok(v)
}
