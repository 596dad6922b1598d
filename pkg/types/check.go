package types

import (
	"fmt"

	"github.com/hanzai/vrl/pkg/value"
)

// KindMismatchError is returned when an expression can never produce a kind
// the consumer accepts.
type KindMismatchError struct {
	Expected value.Kind
	Got      value.Kind
}

func (e KindMismatchError) Error() string {
	return fmt.Sprintf("expected %s, got %s", e.Expected, e.Got)
}

// Assignable checks that an expression of type t may produce at least one of
// the accepted kinds. Overlap is enough: kinds outside accepted are left for
// the consumer to reject at runtime.
func Assignable(accepted value.Kind, t TypeDef) error {
	if !accepted.Intersects(t.Kind()) {
		return KindMismatchError{Expected: accepted, Got: t.Kind()}
	}
	return nil
}

// Exactly reports whether t can only ever produce kinds within accepted,
// meaning a consumer needs no runtime kind check.
func Exactly(accepted value.Kind, t TypeDef) bool {
	return !t.Kind().IsEmpty() && accepted.Contains(t.Kind())
}
