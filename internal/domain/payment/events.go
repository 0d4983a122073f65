package payment

import (
	"time"

	"staynest/internal/domain/booking"
	"staynest/internal/domain/shared/money"
)

type PaymentInitiated struct {
	PaymentID PaymentID
	BookingID booking.BookingID
	TxRef     string
	Amount    money.Money
	At        time.Time
}

func (e PaymentInitiated) EventName() string     { return "payment.initiated" }
func (e PaymentInitiated) AggregateID() string   { return string(e.PaymentID) }
func (e PaymentInitiated) OccurredAt() time.Time { return e.At }

type PaymentCompleted struct {
	PaymentID   PaymentID
	BookingID   booking.BookingID
	TxRef       string
	Amount      money.Money
	ProviderRef string
	At          time.Time
}

func (e PaymentCompleted) EventName() string     { return "payment.completed" }
func (e PaymentCompleted) AggregateID() string   { return string(e.PaymentID) }
func (e PaymentCompleted) OccurredAt() time.Time { return e.At }

type PaymentFailed struct {
	PaymentID PaymentID
	BookingID booking.BookingID
	TxRef     string
	At        time.Time
}

func (e PaymentFailed) EventName() string     { return "payment.failed" }
func (e PaymentFailed) AggregateID() string   { return string(e.PaymentID) }
func (e PaymentFailed) OccurredAt() time.Time { return e.At }
