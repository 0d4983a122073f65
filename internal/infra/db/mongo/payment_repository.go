package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staynest/internal/app/uow"
	domainbooking "staynest/internal/domain/booking"
	domainpayment "staynest/internal/domain/payment"
	domainmoney "staynest/internal/domain/shared/money"
)

const paymentsCollection = "payments"

type PaymentRepository struct {
	col *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{col: db.Collection(paymentsCollection)}
}

func (r *PaymentRepository) ByBooking(ctx context.Context, id domainbooking.BookingID) (*domainpayment.Payment, error) {
	return r.findOne(ctx, bson.M{"booking_id": string(id)})
}

func (r *PaymentRepository) ByTxRef(ctx context.Context, txRef string) (*domainpayment.Payment, error) {
	return r.findOne(ctx, bson.M{"tx_ref": txRef})
}

func (r *PaymentRepository) findOne(ctx context.Context, filter bson.M) (*domainpayment.Payment, error) {
	var doc paymentDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpayment.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save upserts with a version filter. Version misses surface as
// uow.ErrConcurrentUpdate; unique-index violations on tx_ref or booking_id
// mean another payment exists for this booking.
func (r *PaymentRepository) Save(ctx context.Context, p *domainpayment.Payment) error {
	doc := newPaymentDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if p.Version == 0 {
				return domainpayment.ErrAlreadyExists
			}
			return uow.ErrConcurrentUpdate
		}
		if isWriteConflict(err) {
			return uow.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return uow.ErrConcurrentUpdate
	}
	p.Version = doc.Version
	return nil
}

type paymentDocument struct {
	ID          string `bson:"_id"`
	BookingID   string `bson:"booking_id"`
	TxRef       string `bson:"tx_ref"`
	CheckoutURL string `bson:"checkout_url,omitempty"`
	Amount      int64  `bson:"amount"`
	Currency    string `bson:"currency"`
	State       string `bson:"state"`
	ProviderRef string `bson:"provider_ref,omitempty"`
	CreatedAt   int64  `bson:"created_at"`
	UpdatedAt   int64  `bson:"updated_at"`
	Version     int64  `bson:"version"`
}

func newPaymentDocument(p *domainpayment.Payment) paymentDocument {
	return paymentDocument{
		ID:          string(p.ID),
		BookingID:   string(p.BookingID),
		TxRef:       p.TxRef,
		CheckoutURL: p.CheckoutURL,
		Amount:      p.Amount.Amount,
		Currency:    p.Amount.Currency,
		State:       string(p.State),
		ProviderRef: p.ProviderRef,
		CreatedAt:   p.CreatedAt.UnixMilli(),
		UpdatedAt:   p.UpdatedAt.UnixMilli(),
		Version:     p.Version,
	}
}

func (d paymentDocument) toAggregate() *domainpayment.Payment {
	return &domainpayment.Payment{
		ID:          domainpayment.PaymentID(d.ID),
		BookingID:   domainbooking.BookingID(d.BookingID),
		TxRef:       d.TxRef,
		CheckoutURL: d.CheckoutURL,
		Amount:      domainmoney.Money{Amount: d.Amount, Currency: d.Currency},
		State:       domainpayment.State(d.State),
		ProviderRef: d.ProviderRef,
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
		Version:     d.Version,
	}
}
