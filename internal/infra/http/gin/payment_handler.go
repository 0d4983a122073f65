package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"staynest/internal/app/commands"
	paymentapp "staynest/internal/app/handlers/payment"
	"staynest/internal/app/queries"
	domainbooking "staynest/internal/domain/booking"
	domainuser "staynest/internal/domain/user"
)

type PaymentHTTP interface {
	Initiate(c *gin.Context)
	VerifyByBooking(c *gin.Context)
	VerifyByTxRef(c *gin.Context)
	Status(c *gin.Context)
	Callback(c *gin.Context)
}

type PaymentHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type initiatePaymentRequest struct {
	ReturnURL string `json:"return_url"`
}

func (h PaymentHandler) Initiate(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := paymentapp.InitiatePaymentCommand{
		BookingID:       c.Param("id"),
		GuestID:         user.ID,
		ReturnURL:       req.ReturnURL,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[paymentapp.InitiatePaymentCommand, *paymentapp.InitiatePaymentResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h PaymentHandler) VerifyByBooking(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	cmd := paymentapp.VerifyPaymentCommand{BookingID: c.Param("id"), CallerID: user.ID}
	h.verify(c, cmd)
}

type verifyByRefRequest struct {
	TxRef string `json:"tx_ref"`
}

func (h PaymentHandler) VerifyByTxRef(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	var req verifyByRefRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.TxRef) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tx_ref is required"})
		return
	}
	cmd := paymentapp.VerifyPaymentCommand{TxRef: req.TxRef, CallerID: user.ID}
	h.verify(c, cmd)
}

func (h PaymentHandler) verify(c *gin.Context, cmd paymentapp.VerifyPaymentCommand) {
	result, err := commands.Dispatch[paymentapp.VerifyPaymentCommand, *paymentapp.VerifyPaymentResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PaymentHandler) Status(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	q := paymentapp.PaymentStatusQuery{
		BookingID: domainbooking.BookingID(c.Param("id")),
		CallerID:  domainuser.ID(user.ID),
	}
	view, err := queries.Ask[paymentapp.PaymentStatusQuery, *paymentapp.PaymentView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type callbackRequest struct {
	TxRef  string `json:"tx_ref"`
	Status string `json:"status"`
}

// Callback is the provider's unauthenticated push notification. Unknown
// references are a 404 without any state change; replays of terminal
// payments acknowledge without reapplying.
func (h PaymentHandler) Callback(c *gin.Context) {
	var req callbackRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.TxRef) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tx_ref and status are required"})
		return
	}
	cmd := paymentapp.PaymentCallbackCommand{TxRef: req.TxRef, ProviderStatus: req.Status}
	_, err := commands.Dispatch[paymentapp.PaymentCallbackCommand, *paymentapp.PaymentCallbackResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

var _ PaymentHTTP = PaymentHandler{}
