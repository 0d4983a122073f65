package memory

import (
	"errors"
	"sync"

	domainbooking "staynest/internal/domain/booking"
	domainlistings "staynest/internal/domain/listings"
	domainpayment "staynest/internal/domain/payment"
	domainuser "staynest/internal/domain/user"
)

// ErrReadOnly is returned when a write is attempted on a read-only unit.
var ErrReadOnly = errors.New("memory: unit of work is read-only")

// Store keeps every aggregate behind a single RWMutex. Secondary indexes
// (email, tx_ref, booking id) mirror the unique constraints the mongo
// implementation enforces with unique indexes.
type Store struct {
	mu sync.RWMutex

	// writeGate serializes write units so a check made inside one unit
	// still holds when the unit commits.
	writeGate sync.Mutex

	listings map[domainlistings.ListingID]*domainlistings.Listing
	bookings map[domainbooking.BookingID]*domainbooking.Booking
	payments map[domainpayment.PaymentID]*domainpayment.Payment
	users    map[domainuser.ID]*domainuser.User

	usersByEmail      map[string]domainuser.ID
	paymentsByTxRef   map[string]domainpayment.PaymentID
	paymentsByBooking map[domainbooking.BookingID]domainpayment.PaymentID
}

// NewStore builds an empty store.
func NewStore() *Store {
	return &Store{
		listings:          make(map[domainlistings.ListingID]*domainlistings.Listing),
		bookings:          make(map[domainbooking.BookingID]*domainbooking.Booking),
		payments:          make(map[domainpayment.PaymentID]*domainpayment.Payment),
		users:             make(map[domainuser.ID]*domainuser.User),
		usersByEmail:      make(map[string]domainuser.ID),
		paymentsByTxRef:   make(map[string]domainpayment.PaymentID),
		paymentsByBooking: make(map[domainbooking.BookingID]domainpayment.PaymentID),
	}
}

func cloneListing(l *domainlistings.Listing) *domainlistings.Listing {
	if l == nil {
		return nil
	}
	copyListing := *l
	return &copyListing
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	if b == nil {
		return nil
	}
	copyBooking := *b
	copyBooking.ClearEvents()
	return &copyBooking
}

func clonePayment(p *domainpayment.Payment) *domainpayment.Payment {
	if p == nil {
		return nil
	}
	copyPayment := *p
	copyPayment.ClearEvents()
	return &copyPayment
}

func cloneUser(u *domainuser.User) *domainuser.User {
	if u == nil {
		return nil
	}
	copyUser := *u
	return &copyUser
}
