package uow

import (
	"context"
	"errors"

	domainbooking "staynest/internal/domain/booking"
	domainlistings "staynest/internal/domain/listings"
	domainpayment "staynest/internal/domain/payment"
	domainuser "staynest/internal/domain/user"
)

// ErrConcurrentUpdate is returned by repositories when an optimistic version
// check fails; the losing writer reloads and usually observes the record
// already terminal.
var ErrConcurrentUpdate = errors.New("uow: concurrent update detected")

// ErrUnitOfWorkMissing is returned when an operation requires a unit that
// neither the context nor a factory can supply.
var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

// UnitOfWork coordinates repositories inside a transaction boundary. The
// availability check and the booking insert, and likewise the duplicate
// payment check and the payment insert, must run on the same unit.
type UnitOfWork interface {
	Listings() domainlistings.Repository
	Bookings() domainbooking.Repository
	Payments() domainpayment.Repository
	Users() domainuser.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
