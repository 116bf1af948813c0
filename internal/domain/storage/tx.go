package storage

import "context"

// TxManager scopes a unit of work that touches more than one entity. The
// scope is acquired at entry and released on every exit path, so a workflow
// either applies all of its mutations or none become visible half-done.
// Nested calls join the enclosing scope.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
