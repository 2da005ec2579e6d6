package command

import (
	"context"
)

// UnitOfWork runs a function with every store write it performs applied
// atomically: on error nothing the function wrote remains visible. The
// Postgres connection and the in-memory store both implement it.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// nopUnitOfWork runs the function without atomicity. It stands in when a
// handler is built without a unit of work.
type nopUnitOfWork struct{}

func (nopUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
