// internal/lazy/lazy.go
//
// Deferred, memoized computation cell.
//
// Context
// -------
// Every request attribute (country, currency, identity, discounts, and so
// on) is attached to the request context as a *Value.  Nothing runs until
// a reader calls Get.  The first Get invokes the producer, later calls
// return the cached outcome, and concurrent first reads collapse onto a
// single invocation.  A failed producer is cached as well, so a broken
// external lookup is never repeated within the same request.
//
// Usage
// -----
//
//	country := lazy.New(func() (string, error) { return geo.Resolve(ip), nil })
//	iso, err := country.Get()
//
// Notes
// -----
//   - The producer reference is dropped after evaluation so closures over
//     large request state can be collected early.
//   - A panicking producer is recorded as ErrPanicked and re-surfaced to
//     every reader.
//   - Oxford commas, two spaces after periods.
package lazy

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrPanicked wraps the value recovered from a producer that panicked.
var ErrPanicked = errors.New("lazy: producer panicked")

// Value is a one-shot memo.  Zero value is unusable; construct with New,
// Of, or Fail.
type Value[T any] struct {
	once sync.Once
	done atomic.Bool
	fn   func() (T, error)
	val  T
	err  error
}

// New wraps fn.  fn is invoked at most once, on the first Get.
func New[T any](fn func() (T, error)) *Value[T] {
	return &Value[T]{fn: fn}
}

// Of returns a cell that is already evaluated to v.
func Of[T any](v T) *Value[T] {
	c := &Value[T]{val: v}
	c.once.Do(func() {})
	c.done.Store(true)
	return c
}

// Fail returns a cell that is already evaluated to err.
func Fail[T any](err error) *Value[T] {
	c := &Value[T]{err: err}
	c.once.Do(func() {})
	c.done.Store(true)
	return c
}

// Get evaluates the producer on first use and returns the cached outcome.
func (v *Value[T]) Get() (T, error) {
	v.once.Do(v.eval)
	return v.val, v.err
}

// Evaluated reports whether the producer has already run.  It never
// triggers evaluation.
func (v *Value[T]) Evaluated() bool { return v.done.Load() }

func (v *Value[T]) eval() {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v.val = zero
			v.err = fmt.Errorf("%w: %v", ErrPanicked, r)
		}
		v.fn = nil
		v.done.Store(true)
	}()
	if v.fn == nil {
		v.err = errors.New("lazy: nil producer")
		return
	}
	v.val, v.err = v.fn()
}
