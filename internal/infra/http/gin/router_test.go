package ginserver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staynest/internal/app/commands"
	paymentapp "staynest/internal/app/handlers/payment"
	"staynest/internal/app/queries"
	authsvc "staynest/internal/app/services/auth"
	"staynest/internal/app/uow"
	domainbooking "staynest/internal/domain/booking"
	domainlistings "staynest/internal/domain/listings"
	domainpayment "staynest/internal/domain/payment"
	"staynest/internal/domain/shared/daterange"
	"staynest/internal/domain/shared/money"
	domainuser "staynest/internal/domain/user"
	ginserver "staynest/internal/infra/http/gin"
	"staynest/internal/infra/obs"
	"staynest/internal/infra/security"
	"staynest/internal/infra/storage/memory"
)

type testApp struct {
	router http.Handler
	auth   *authsvc.Service
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	store := memory.NewStore()
	factory := memory.NewFactory(store)
	ctx := context.Background()

	listing, err := domainlistings.New(domainlistings.CreateParams{
		ID:          "lst-1",
		Host:        "host-1",
		Title:       "Lakeside studio",
		Location:    "Bahir Dar",
		NightlyRate: money.Must(15000, "ETB"),
	})
	require.NoError(t, err)

	checkIn := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	dr, err := daterange.New(checkIn, checkIn.AddDate(0, 0, 3))
	require.NoError(t, err)
	bk, err := domainbooking.New(domainbooking.CreateParams{
		ID:        "bk-1",
		ListingID: listing.ID,
		GuestID:   "guest-1",
		Range:     dr,
		Total:     money.Must(45000, "ETB"),
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	bk.ClearEvents()

	pay, err := domainpayment.New(domainpayment.CreateParams{
		ID:        "pay-1",
		BookingID: bk.ID,
		TxRef:     "booking_bk-1_deadbeef",
		Amount:    bk.Total,
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	pay.ClearEvents()

	guest, err := domainuser.New(domainuser.CreateParams{
		ID:           "guest-1",
		Email:        "guest@example.com",
		FirstName:    "Abebe",
		LastName:     "Kebede",
		PasswordHash: "seed",
		Role:         domainuser.RoleGuest,
	})
	require.NoError(t, err)

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Listings().Save(ctx, listing))
	require.NoError(t, unit.Users().Save(ctx, guest))
	require.NoError(t, unit.Bookings().Save(ctx, bk))
	require.NoError(t, unit.Payments().Save(ctx, pay))
	require.NoError(t, unit.Commit(ctx))

	authService := &authsvc.Service{
		Users:     memory.UserDirectory{Store: store},
		Sessions:  memory.NewSessionStore(),
		Passwords: security.BcryptHasher{Cost: 4},
		Tokens:    security.RandomTokenGenerator{},
	}

	commandBus := commands.NewInMemoryBus()
	commands.Register(commandBus, paymentapp.PaymentCallbackCommand{}.Key(), &paymentapp.PaymentCallbackHandler{
		UoWFactory: factory,
	})
	queryBus := queries.NewInMemoryBus()
	queries.Register(queryBus, paymentapp.PaymentStatusQuery{}.Key(), &paymentapp.PaymentStatusHandler{
		UoWFactory: factory,
	})

	router := ginserver.NewRouter(obs.Middleware{}, obs.HealthHandlers{}, ginserver.Handlers{
		Payment:        ginserver.PaymentHandler{Commands: commandBus, Queries: queryBus},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService}.Handle,
	})
	return &testApp{router: router, auth: authService}
}

func (a *testApp) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, http.StatusOK, app.do(http.MethodGet, "/livez", "", "").Code)
	assert.Equal(t, http.StatusOK, app.do(http.MethodGet, "/readyz", "", "").Code)
}

func TestCallbackAcknowledgesKnownReference(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/api/v1/payment/callback",
		`{"tx_ref":"booking_bk-1_deadbeef","status":"success"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestCallbackUnknownReferenceIs404(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/api/v1/payment/callback",
		`{"tx_ref":"booking_ghost_00000000","status":"success"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCallbackMissingTxRefIs400(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, http.StatusBadRequest,
		app.do(http.MethodPost, "/api/v1/payment/callback", `{"status":"success"}`, "").Code)
	assert.Equal(t, http.StatusBadRequest,
		app.do(http.MethodPost, "/api/v1/payment/callback", `not-json`, "").Code)
}

func TestCallbackReplayStaysAcknowledged(t *testing.T) {
	app := newTestApp(t)
	body := `{"tx_ref":"booking_bk-1_deadbeef","status":"success"}`

	require.Equal(t, http.StatusOK, app.do(http.MethodPost, "/api/v1/payment/callback", body, "").Code)
	assert.Equal(t, http.StatusOK, app.do(http.MethodPost, "/api/v1/payment/callback", body, "").Code)
}

func TestPaymentStatusRequiresAuth(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/api/v1/bookings/bk-1/payment", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPaymentStatusWithSession(t *testing.T) {
	app := newTestApp(t)

	res, err := app.auth.Register(context.Background(), authsvc.RegisterParams{
		Email:     "second@example.com",
		FirstName: "Sara",
		LastName:  "Tesfaye",
		Password:  "correct-horse",
		Role:      domainuser.RoleGuest,
	})
	require.NoError(t, err)

	// Authenticated but not a party to the booking.
	rec := app.do(http.MethodGet, "/api/v1/bookings/bk-1/payment", "", res.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
