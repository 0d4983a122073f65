package payment_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paymentapp "staynest/internal/app/handlers/payment"
	"staynest/internal/app/policies"
	"staynest/internal/app/uow"
	domainbooking "staynest/internal/domain/booking"
	domainlistings "staynest/internal/domain/listings"
	domainpayment "staynest/internal/domain/payment"
	"staynest/internal/domain/shared/daterange"
	"staynest/internal/domain/shared/money"
	domainuser "staynest/internal/domain/user"
	"staynest/internal/infra/storage/memory"
)

type fakeGateway struct {
	initiateResult policies.InitiateResult
	initiateErr    error
	verifyResult   policies.VerifyResult
	verifyErr      error
	initiateCalls  int
	verifyCalls    int
}

func (g *fakeGateway) Initiate(_ context.Context, _ policies.InitiateRequest) (policies.InitiateResult, error) {
	g.initiateCalls++
	return g.initiateResult, g.initiateErr
}

func (g *fakeGateway) Verify(_ context.Context, _ string) (policies.VerifyResult, error) {
	g.verifyCalls++
	return g.verifyResult, g.verifyErr
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []policies.ConfirmationNotice
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, notice policies.ConfirmationNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}

type recordingArchiver struct {
	events []string
}

func (a *recordingArchiver) Archive(_ context.Context, _, event string, _ []byte) error {
	a.events = append(a.events, event)
	return nil
}

type fixture struct {
	factory  memory.Factory
	gateway  *fakeGateway
	notifier *recordingNotifier
	archiver *recordingArchiver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	factory := memory.NewFactory(memory.NewStore())
	ctx := context.Background()

	listing, err := domainlistings.New(domainlistings.CreateParams{
		ID:          "lst-1",
		Host:        "host-1",
		Title:       "Lakeside studio",
		Location:    "Bahir Dar",
		NightlyRate: money.Must(15000, "ETB"),
	})
	require.NoError(t, err)

	guest, err := domainuser.New(domainuser.CreateParams{
		ID:           "guest-1",
		Email:        "guest@example.com",
		FirstName:    "Abebe",
		LastName:     "Kebede",
		Phone:        "+251911000000",
		PasswordHash: "x",
		Role:         domainuser.RoleGuest,
	})
	require.NoError(t, err)

	checkIn := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	dr, err := daterange.New(checkIn, checkIn.AddDate(0, 0, 3))
	require.NoError(t, err)
	bk, err := domainbooking.New(domainbooking.CreateParams{
		ID:        "bk-1",
		ListingID: listing.ID,
		GuestID:   guest.ID,
		Range:     dr,
		Total:     money.Must(45000, "ETB"),
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	bk.ClearEvents()

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Listings().Save(ctx, listing))
	require.NoError(t, unit.Users().Save(ctx, guest))
	require.NoError(t, unit.Bookings().Save(ctx, bk))
	require.NoError(t, unit.Commit(ctx))

	return &fixture{
		factory: factory,
		gateway: &fakeGateway{
			initiateResult: policies.InitiateResult{
				TxRef:       "booking_bk-1_deadbeef",
				CheckoutURL: "https://checkout.chapa.co/tx/abc",
				Raw:         []byte(`{"status":"success"}`),
			},
		},
		notifier: &recordingNotifier{},
		archiver: &recordingArchiver{},
	}
}

func (f *fixture) initiateHandler() *paymentapp.InitiatePaymentHandler {
	return &paymentapp.InitiatePaymentHandler{
		UoWFactory: f.factory,
		Gateway:    f.gateway,
		Archiver:   f.archiver,
	}
}

func (f *fixture) verifyHandler() *paymentapp.VerifyPaymentHandler {
	return &paymentapp.VerifyPaymentHandler{
		UoWFactory: f.factory,
		Gateway:    f.gateway,
		Notifier:   f.notifier,
		Archiver:   f.archiver,
	}
}

func (f *fixture) callbackHandler() *paymentapp.PaymentCallbackHandler {
	return &paymentapp.PaymentCallbackHandler{
		UoWFactory: f.factory,
		Notifier:   f.notifier,
		Archiver:   f.archiver,
	}
}

func (f *fixture) storedPayment(t *testing.T, txRef string) *domainpayment.Payment {
	t.Helper()
	ctx := context.Background()
	ro, err := f.factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer ro.Rollback(ctx)
	pay, err := ro.Payments().ByTxRef(ctx, txRef)
	require.NoError(t, err)
	return pay
}

func (f *fixture) storedBooking(t *testing.T, id string) *domainbooking.Booking {
	t.Helper()
	ctx := context.Background()
	ro, err := f.factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer ro.Rollback(ctx)
	bk, err := ro.Bookings().ByID(ctx, domainbooking.BookingID(id))
	require.NoError(t, err)
	return bk
}

func (f *fixture) initiate(t *testing.T) *paymentapp.InitiatePaymentResult {
	t.Helper()
	res, err := f.initiateHandler().Handle(context.Background(), paymentapp.InitiatePaymentCommand{
		BookingID: "bk-1",
		GuestID:   "guest-1",
		ReturnURL: "https://app.example.com",
	})
	require.NoError(t, err)
	return res
}

func TestInitiateCreatesPendingPayment(t *testing.T) {
	f := newFixture(t)

	res := f.initiate(t)
	assert.Equal(t, "https://checkout.chapa.co/tx/abc", res.CheckoutURL)
	assert.Equal(t, "booking_bk-1_deadbeef", res.Payment.TxRef)
	assert.Equal(t, string(domainpayment.StatePending), res.Payment.Status)
	assert.Equal(t, "450.00", res.Payment.Amount)

	pay := f.storedPayment(t, "booking_bk-1_deadbeef")
	assert.Equal(t, domainpayment.StatePending, pay.State)
	assert.Equal(t, []string{"initiate"}, f.archiver.events)
}

func TestInitiateRejectsSecondAttempt(t *testing.T) {
	f := newFixture(t)
	f.initiate(t)

	_, err := f.initiateHandler().Handle(context.Background(), paymentapp.InitiatePaymentCommand{
		BookingID: "bk-1",
		GuestID:   "guest-1",
	})
	assert.ErrorIs(t, err, domainpayment.ErrAlreadyExists)
	assert.Equal(t, 1, f.gateway.initiateCalls)
}

func TestInitiateRequiresBookingGuest(t *testing.T) {
	f := newFixture(t)

	_, err := f.initiateHandler().Handle(context.Background(), paymentapp.InitiatePaymentCommand{
		BookingID: "bk-1",
		GuestID:   "someone-else",
	})
	assert.ErrorIs(t, err, paymentapp.ErrNotBookingGuest)
	assert.Zero(t, f.gateway.initiateCalls)
}

func TestInitiateGatewayFailureLeavesNoRecord(t *testing.T) {
	f := newFixture(t)
	f.gateway.initiateErr = policies.NewGatewayBusinessError("invalid currency")

	_, err := f.initiateHandler().Handle(context.Background(), paymentapp.InitiatePaymentCommand{
		BookingID: "bk-1",
		GuestID:   "guest-1",
	})
	require.Error(t, err)
	assert.True(t, policies.IsGatewayBusiness(err))

	ctx := context.Background()
	ro, err := f.factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer ro.Rollback(ctx)
	_, err = ro.Payments().ByBooking(ctx, "bk-1")
	assert.ErrorIs(t, err, domainpayment.ErrNotFound)
}

func TestVerifyCompletesPaymentAndConfirmsBooking(t *testing.T) {
	f := newFixture(t)
	f.initiate(t)
	f.gateway.verifyResult = policies.VerifyResult{
		Status:      domainpayment.StateCompleted,
		ProviderRef: "chapa-ref-1",
		Raw:         []byte(`{"status":"success"}`),
	}

	res, err := f.verifyHandler().Handle(context.Background(), paymentapp.VerifyPaymentCommand{
		BookingID: "bk-1",
		CallerID:  "guest-1",
	})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, string(domainpayment.StateCompleted), res.Payment.Status)

	assert.Equal(t, domainpayment.StateCompleted, f.storedPayment(t, "booking_bk-1_deadbeef").State)
	assert.Equal(t, domainbooking.StateConfirmed, f.storedBooking(t, "bk-1").State)

	require.Equal(t, 1, f.notifier.count())
	notice := f.notifier.notices[0]
	assert.Equal(t, "guest@example.com", notice.GuestEmail)
	assert.Equal(t, "Lakeside studio", notice.ListingTitle)
}

func TestVerifyFailureCancelsBooking(t *testing.T) {
	f := newFixture(t)
	f.initiate(t)
	f.gateway.verifyResult = policies.VerifyResult{Status: domainpayment.StateFailed}

	res, err := f.verifyHandler().Handle(context.Background(), paymentapp.VerifyPaymentCommand{
		BookingID: "bk-1",
		CallerID:  "guest-1",
	})
	require.NoError(t, err)
	assert.True(t, res.Applied)

	assert.Equal(t, domainpayment.StateFailed, f.storedPayment(t, "booking_bk-1_deadbeef").State)
	assert.Equal(t, domainbooking.StateCanceled, f.storedBooking(t, "bk-1").State)
	assert.Zero(t, f.notifier.count())
}

func TestVerifyTerminalPaymentSkipsProvider(t *testing.T) {
	f := newFixture(t)
	f.initiate(t)
	f.gateway.verifyResult = policies.VerifyResult{Status: domainpayment.StateCompleted}

	_, err := f.verifyHandler().Handle(context.Background(), paymentapp.VerifyPaymentCommand{
		BookingID: "bk-1", CallerID: "guest-1",
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.gateway.verifyCalls)

	res, err := f.verifyHandler().Handle(context.Background(), paymentapp.VerifyPaymentCommand{
		BookingID: "bk-1", CallerID: "guest-1",
	})
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, string(domainpayment.StateCompleted), res.Payment.Status)
	// Frozen payments never hit the provider again.
	assert.Equal(t, 1, f.gateway.verifyCalls)
	assert.Equal(t, 1, f.notifier.count())
}

func TestVerifyRequiresBookingGuest(t *testing.T) {
	f := newFixture(t)
	f.initiate(t)

	_, err := f.verifyHandler().Handle(context.Background(), paymentapp.VerifyPaymentCommand{
		BookingID: "bk-1", CallerID: "host-1",
	})
	assert.ErrorIs(t, err, paymentapp.ErrNotBookingGuest)
	assert.Zero(t, f.gateway.verifyCalls)
}

func TestCallbackCompletesPayment(t *testing.T) {
	f := newFixture(t)
	f.initiate(t)

	res, err := f.callbackHandler().Handle(context.Background(), paymentapp.PaymentCallbackCommand{
		TxRef:          "booking_bk-1_deadbeef",
		ProviderStatus: "success",
	})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, domainbooking.StateConfirmed, f.storedBooking(t, "bk-1").State)
	assert.Equal(t, 1, f.notifier.count())
}

func TestCallbackReplayIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.initiate(t)

	cmd := paymentapp.PaymentCallbackCommand{TxRef: "booking_bk-1_deadbeef", ProviderStatus: "success"}
	_, err := f.callbackHandler().Handle(context.Background(), cmd)
	require.NoError(t, err)

	res, err := f.callbackHandler().Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, 1, f.notifier.count())
}

func TestCallbackUnknownReference(t *testing.T) {
	f := newFixture(t)

	_, err := f.callbackHandler().Handle(context.Background(), paymentapp.PaymentCallbackCommand{
		TxRef:          "booking_ghost_00000000",
		ProviderStatus: "success",
	})
	assert.ErrorIs(t, err, domainpayment.ErrNotFound)
}

func TestCallbackUnrecognizedStatusStaysPending(t *testing.T) {
	f := newFixture(t)
	f.initiate(t)

	res, err := f.callbackHandler().Handle(context.Background(), paymentapp.PaymentCallbackCommand{
		TxRef:          "booking_bk-1_deadbeef",
		ProviderStatus: "definitely-not-a-status",
	})
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, string(domainpayment.StatePending), res.Payment.Status)
	assert.Equal(t, domainbooking.StatePending, f.storedBooking(t, "bk-1").State)
}

func TestCallbackRequiresTxRef(t *testing.T) {
	f := newFixture(t)
	_, err := f.callbackHandler().Handle(context.Background(), paymentapp.PaymentCallbackCommand{ProviderStatus: "success"})
	assert.ErrorIs(t, err, paymentapp.ErrCallbackTxRefMissing)
}

func TestPaymentStatusAuthorization(t *testing.T) {
	f := newFixture(t)
	f.initiate(t)
	handler := &paymentapp.PaymentStatusHandler{UoWFactory: f.factory}
	ctx := context.Background()

	view, err := handler.Handle(ctx, paymentapp.PaymentStatusQuery{BookingID: "bk-1", CallerID: "guest-1"})
	require.NoError(t, err)
	assert.Equal(t, "booking_bk-1_deadbeef", view.TxRef)

	// The listing's host may read it too.
	_, err = handler.Handle(ctx, paymentapp.PaymentStatusQuery{BookingID: "bk-1", CallerID: "host-1"})
	assert.NoError(t, err)

	_, err = handler.Handle(ctx, paymentapp.PaymentStatusQuery{BookingID: "bk-1", CallerID: "stranger"})
	assert.ErrorIs(t, err, paymentapp.ErrNotBookingParty)
}
