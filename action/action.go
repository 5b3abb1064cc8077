// Package action holds the side effects fired when an allowed number
// calls or texts the gate.
package action

import (
	"context"
	"errors"
)

// Trigger is a side effect without arguments, such as opening a gate.
type Trigger interface {
	Fire(ctx context.Context) error
}

// Func adapts a function to Trigger.
type Func func(ctx context.Context) error

func (f Func) Fire(ctx context.Context) error {
	return f(ctx)
}

// Multi fires every trigger in order, even after a failure, and joins
// their errors.
type Multi []Trigger

func (m Multi) Fire(ctx context.Context) error {
	var errs []error
	for _, t := range m {
		if err := t.Fire(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
