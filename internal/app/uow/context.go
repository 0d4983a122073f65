package uow

import "context"

type unitContextKey struct{}

// ContextWithUnitOfWork binds unit to ctx so repositories called further
// down the handler chain run inside the same transaction.
func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, unitContextKey{}, unit)
}

// FromContext returns the unit of work carried by ctx, if any.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(unitContextKey{}).(UnitOfWork)
	return unit, ok
}
