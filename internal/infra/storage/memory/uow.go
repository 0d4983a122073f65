package memory

import (
	"context"

	"staynest/internal/app/uow"
	domainbooking "staynest/internal/domain/booking"
	domainlistings "staynest/internal/domain/listings"
	domainpayment "staynest/internal/domain/payment"
	domainuser "staynest/internal/domain/user"
)

// Factory hands out units of work over a shared Store. Write units hold the
// store's write gate from Begin until Commit or Rollback, so checks made
// inside a unit (availability, duplicate payment) still hold at commit time.
// Read-only units never take the gate and see the last committed state.
type Factory struct {
	Store *Store
}

// NewFactory wires a factory around a store.
func NewFactory(store *Store) Factory {
	return Factory{Store: store}
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, uow.ErrUnitOfWorkMissing
	}
	if !opts.ReadOnly {
		f.Store.writeGate.Lock()
	}
	return &Unit{
		store:    f.Store,
		readOnly: opts.ReadOnly,
		listings: make(map[domainlistings.ListingID]*domainlistings.Listing),
		bookings: make(map[domainbooking.BookingID]*domainbooking.Booking),
		payments: make(map[domainpayment.PaymentID]*domainpayment.Payment),
		users:    make(map[domainuser.ID]*domainuser.User),
	}, nil
}

// Unit stages writes locally and applies them on Commit. Each staged
// aggregate remembers the version it was loaded at; Commit rejects the batch
// with uow.ErrConcurrentUpdate when the store has moved past that version.
type Unit struct {
	store    *Store
	readOnly bool
	finished bool

	listings map[domainlistings.ListingID]*domainlistings.Listing
	bookings map[domainbooking.BookingID]*domainbooking.Booking
	payments map[domainpayment.PaymentID]*domainpayment.Payment
	users    map[domainuser.ID]*domainuser.User
}

func (u *Unit) Listings() domainlistings.Repository { return &listingRepository{unit: u} }
func (u *Unit) Bookings() domainbooking.Repository  { return &bookingRepository{unit: u} }
func (u *Unit) Payments() domainpayment.Repository  { return &paymentRepository{unit: u} }
func (u *Unit) Users() domainuser.Repository        { return &userRepository{unit: u} }

func (u *Unit) Commit(ctx context.Context) error {
	if u.finished {
		return nil
	}
	u.finished = true
	if u.readOnly {
		return nil
	}
	defer u.store.writeGate.Unlock()

	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := u.checkVersions(); err != nil {
		return err
	}
	if err := u.checkConstraints(); err != nil {
		return err
	}

	for id, listing := range u.listings {
		listing.Version++
		s.listings[id] = listing
	}
	for id, booking := range u.bookings {
		booking.Version++
		s.bookings[id] = booking
	}
	for id, payment := range u.payments {
		payment.Version++
		s.payments[id] = payment
		s.paymentsByTxRef[payment.TxRef] = id
		s.paymentsByBooking[payment.BookingID] = id
	}
	for id, user := range u.users {
		s.users[id] = user
		s.usersByEmail[user.Email] = id
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.finished {
		return nil
	}
	u.finished = true
	if !u.readOnly {
		u.store.writeGate.Unlock()
	}
	return nil
}

// checkVersions runs the optimistic concurrency check under the store lock.
func (u *Unit) checkVersions() error {
	s := u.store
	for id, listing := range u.listings {
		if stored, ok := s.listings[id]; ok && stored.Version != listing.Version {
			return uow.ErrConcurrentUpdate
		}
	}
	for id, booking := range u.bookings {
		if stored, ok := s.bookings[id]; ok && stored.Version != booking.Version {
			return uow.ErrConcurrentUpdate
		}
	}
	for id, payment := range u.payments {
		if stored, ok := s.payments[id]; ok && stored.Version != payment.Version {
			return uow.ErrConcurrentUpdate
		}
	}
	return nil
}

// checkConstraints enforces the unique indexes: one payment per booking, one
// payment per tx_ref, one user per email.
func (u *Unit) checkConstraints() error {
	s := u.store
	for id, payment := range u.payments {
		if existing, ok := s.paymentsByTxRef[payment.TxRef]; ok && existing != id {
			return domainpayment.ErrAlreadyExists
		}
		if existing, ok := s.paymentsByBooking[payment.BookingID]; ok && existing != id {
			return domainpayment.ErrAlreadyExists
		}
	}
	for id, user := range u.users {
		if existing, ok := s.usersByEmail[user.Email]; ok && existing != id {
			return domainuser.ErrEmailAlreadyUsed
		}
	}
	return nil
}

var _ uow.UnitOfWork = (*Unit)(nil)
var _ uow.UoWFactory = Factory{}
