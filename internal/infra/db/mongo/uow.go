package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staynest/internal/app/uow"
	domainbooking "staynest/internal/domain/booking"
	domainlistings "staynest/internal/domain/listings"
	domainpayment "staynest/internal/domain/payment"
	domainuser "staynest/internal/domain/user"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// WiredTiger reports intra-transaction write conflicts with code 112; the
// server tags the same failures with the transient-transaction label.
const writeConflictCode = 112

// isWriteConflict reports whether err is the server's write-conflict shape,
// meaning another transaction touched the same document first.
func isWriteConflict(err error) bool {
	var srv mongo.ServerError
	if !errors.As(err, &srv) {
		return false
	}
	return srv.HasErrorCode(writeConflictCode) || srv.HasErrorLabel("TransientTransactionError")
}

// Factory wires Mongo sessions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ListingsRepo domainlistings.Repository
	BookingRepo  domainbooking.Repository
	PaymentRepo  domainpayment.Repository
	UserRepo     domainuser.Repository
}

// NewFactory builds a factory with the default repositories over db.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:           db,
		ListingsRepo: NewListingRepository(db),
		BookingRepo:  NewBookingRepository(db),
		PaymentRepo:  NewPaymentRepository(db),
		UserRepo:     NewUserRepository(db),
	}
}

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().
		SetReadConcern(f.DB.ReadConcern()).
		SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:  session,
		listings: f.ListingsRepo,
		bookings: f.BookingRepo,
		payments: f.PaymentRepo,
		users:    f.UserRepo,
	}, nil
}

type Unit struct {
	session  mongo.Session
	finished bool

	listings domainlistings.Repository
	bookings domainbooking.Repository
	payments domainpayment.Repository
	users    domainuser.Repository
}

func (u *Unit) Listings() domainlistings.Repository { return u.listings }
func (u *Unit) Bookings() domainbooking.Repository  { return u.bookings }
func (u *Unit) Payments() domainpayment.Repository  { return u.payments }
func (u *Unit) Users() domainuser.Repository        { return u.users }

func (u *Unit) Commit(ctx context.Context) error {
	if u.finished {
		return nil
	}
	u.finished = true
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		if isWriteConflict(err) {
			return uow.ErrConcurrentUpdate
		}
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.finished {
		return nil
	}
	u.finished = true
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext makes the session visible to repositories running inside
// this unit.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UnitOfWork = (*Unit)(nil)
var _ uow.UoWFactory = Factory{}
