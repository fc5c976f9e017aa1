// Package optimistic applies a speculative local write around a remote call
// and reverts it when the call fails.
package optimistic

import (
	"context"
	"fmt"
)

// Do snapshots the current value with read, writes speculative with write,
// then runs remote. If remote returns an error or panics, the snapshot is
// written back and the error is returned. A panic is reported as an error.
func Do[T any](ctx context.Context, read func() T, write func(T), speculative T, remote func(context.Context) error) (err error) {
	prev := read()
	write(speculative)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("optimistic: remote call panicked: %v", r)
		}
		if err != nil {
			write(prev)
		}
	}()

	return remote(ctx)
}
