package memory

import (
	"context"
	"sort"
	"strings"

	domainbooking "staynest/internal/domain/booking"
	domainlistings "staynest/internal/domain/listings"
	domainpayment "staynest/internal/domain/payment"
	domainuser "staynest/internal/domain/user"
)

type listingRepository struct {
	unit *Unit
}

func (r *listingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	if staged, ok := r.unit.listings[id]; ok {
		return cloneListing(staged), nil
	}
	s := r.unit.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if listing, ok := s.listings[id]; ok {
		return cloneListing(listing), nil
	}
	return nil, domainlistings.ErrNotFound
}

func (r *listingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	if r.unit.readOnly {
		return ErrReadOnly
	}
	r.unit.listings[listing.ID] = cloneListing(listing)
	return nil
}

func (r *listingRepository) ListByHost(ctx context.Context, host domainuser.ID) ([]*domainlistings.Listing, error) {
	return r.list(func(l *domainlistings.Listing) bool { return l.Host == host })
}

func (r *listingRepository) List(ctx context.Context) ([]*domainlistings.Listing, error) {
	return r.list(func(*domainlistings.Listing) bool { return true })
}

func (r *listingRepository) list(match func(*domainlistings.Listing) bool) ([]*domainlistings.Listing, error) {
	s := r.unit.store
	s.mu.RLock()
	merged := make(map[domainlistings.ListingID]*domainlistings.Listing, len(s.listings))
	for id, listing := range s.listings {
		merged[id] = listing
	}
	s.mu.RUnlock()
	for id, listing := range r.unit.listings {
		merged[id] = listing
	}

	matches := make([]*domainlistings.Listing, 0, len(merged))
	for _, listing := range merged {
		if match(listing) {
			matches = append(matches, cloneListing(listing))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches, nil
}

type bookingRepository struct {
	unit *Unit
}

func (r *bookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	if staged, ok := r.unit.bookings[id]; ok {
		return cloneBooking(staged), nil
	}
	s := r.unit.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if booking, ok := s.bookings[id]; ok {
		return cloneBooking(booking), nil
	}
	return nil, domainbooking.ErrNotFound
}

func (r *bookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	if r.unit.readOnly {
		return ErrReadOnly
	}
	r.unit.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (r *bookingRepository) ListByGuest(ctx context.Context, guestID domainuser.ID) ([]*domainbooking.Booking, error) {
	matches, err := r.list(func(b *domainbooking.Booking) bool { return b.GuestID == guestID })
	if err != nil {
		return nil, err
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *bookingRepository) ActiveByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	return r.list(func(b *domainbooking.Booking) bool {
		return b.ListingID == listingID && b.IsActive()
	})
}

func (r *bookingRepository) list(match func(*domainbooking.Booking) bool) ([]*domainbooking.Booking, error) {
	s := r.unit.store
	s.mu.RLock()
	merged := make(map[domainbooking.BookingID]*domainbooking.Booking, len(s.bookings))
	for id, booking := range s.bookings {
		merged[id] = booking
	}
	s.mu.RUnlock()
	for id, booking := range r.unit.bookings {
		merged[id] = booking
	}

	matches := make([]*domainbooking.Booking, 0, len(merged))
	for _, booking := range merged {
		if match(booking) {
			matches = append(matches, cloneBooking(booking))
		}
	}
	return matches, nil
}

type paymentRepository struct {
	unit *Unit
}

func (r *paymentRepository) ByBooking(ctx context.Context, id domainbooking.BookingID) (*domainpayment.Payment, error) {
	for _, staged := range r.unit.payments {
		if staged.BookingID == id {
			return clonePayment(staged), nil
		}
	}
	s := r.unit.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if paymentID, ok := s.paymentsByBooking[id]; ok {
		return clonePayment(s.payments[paymentID]), nil
	}
	return nil, domainpayment.ErrNotFound
}

func (r *paymentRepository) ByTxRef(ctx context.Context, txRef string) (*domainpayment.Payment, error) {
	txRef = strings.TrimSpace(txRef)
	for _, staged := range r.unit.payments {
		if staged.TxRef == txRef {
			return clonePayment(staged), nil
		}
	}
	s := r.unit.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if paymentID, ok := s.paymentsByTxRef[txRef]; ok {
		return clonePayment(s.payments[paymentID]), nil
	}
	return nil, domainpayment.ErrNotFound
}

func (r *paymentRepository) Save(ctx context.Context, payment *domainpayment.Payment) error {
	if r.unit.readOnly {
		return ErrReadOnly
	}
	s := r.unit.store
	s.mu.RLock()
	if existing, ok := s.paymentsByBooking[payment.BookingID]; ok && existing != payment.ID {
		s.mu.RUnlock()
		return domainpayment.ErrAlreadyExists
	}
	if existing, ok := s.paymentsByTxRef[payment.TxRef]; ok && existing != payment.ID {
		s.mu.RUnlock()
		return domainpayment.ErrAlreadyExists
	}
	s.mu.RUnlock()
	r.unit.payments[payment.ID] = clonePayment(payment)
	return nil
}

type userRepository struct {
	unit *Unit
}

func (r *userRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	if staged, ok := r.unit.users[id]; ok {
		return cloneUser(staged), nil
	}
	s := r.unit.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[id]; ok {
		return cloneUser(user), nil
	}
	return nil, domainuser.ErrNotFound
}

func (r *userRepository) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	for _, staged := range r.unit.users {
		if staged.Email == key {
			return cloneUser(staged), nil
		}
	}
	s := r.unit.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.usersByEmail[key]; ok {
		return cloneUser(s.users[id]), nil
	}
	return nil, domainuser.ErrNotFound
}

func (r *userRepository) Save(ctx context.Context, user *domainuser.User) error {
	if r.unit.readOnly {
		return ErrReadOnly
	}
	s := r.unit.store
	s.mu.RLock()
	if existing, ok := s.usersByEmail[user.Email]; ok && existing != user.ID {
		s.mu.RUnlock()
		return domainuser.ErrEmailAlreadyUsed
	}
	s.mu.RUnlock()
	r.unit.users[user.ID] = cloneUser(user)
	return nil
}
