package vrl

import (
	"context"
	"fmt"
	"strings"
)

// CheckExample compiles an example's source, resolves it against an empty
// record and compares the outcome with the expected result or error.
func CheckExample(ctx context.Context, ex Example, opts ...Option) error {
	got, err := evalExample(ctx, ex.Source, opts...)
	if ex.Error != "" {
		if err == nil {
			return fmt.Errorf("%s: expected error containing %q, got %s", ex.Title, ex.Error, got)
		}
		if !strings.Contains(err.Error(), ex.Error) {
			return fmt.Errorf("%s: expected error containing %q, got %q", ex.Title, ex.Error, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", ex.Title, err)
	}
	if got != ex.Result {
		return fmt.Errorf("%s: expected %s, got %s", ex.Title, ex.Result, got)
	}
	return nil
}

func evalExample(ctx context.Context, source string, opts ...Option) (string, error) {
	prog, err := Compile(ctx, source, opts...)
	if err != nil {
		return "", err
	}
	v, err := prog.Resolve(NewContext(nil))
	if err != nil {
		return "", err
	}
	return v.String(), nil
}
