package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	bookingapp "staynest/internal/app/handlers/booking"
	listingsapp "staynest/internal/app/handlers/listings"
	paymentapp "staynest/internal/app/handlers/payment"
	"staynest/internal/app/policies"
	"staynest/internal/app/uow"
	domainbooking "staynest/internal/domain/booking"
	domainlistings "staynest/internal/domain/listings"
	domainpayment "staynest/internal/domain/payment"
	"staynest/internal/domain/shared/daterange"
	"staynest/internal/domain/shared/money"
	domainuser "staynest/internal/domain/user"
)

// respondError maps application and domain sentinels onto HTTP statuses.
// Anything unrecognized is a 500 with the detail kept out of the response.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, money.ErrInvalidDecimal),
		errors.Is(err, money.ErrInvalidCurrency),
		errors.Is(err, money.ErrCurrencyMismatch),
		errors.Is(err, domainlistings.ErrTitleRequired),
		errors.Is(err, domainlistings.ErrNightlyRate),
		errors.Is(err, domainpayment.ErrAlreadyExists),
		errors.Is(err, paymentapp.ErrBookingNotPayable),
		errors.Is(err, paymentapp.ErrCallbackTxRefMissing):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, paymentapp.ErrNotBookingGuest),
		errors.Is(err, paymentapp.ErrNotBookingParty),
		errors.Is(err, bookingapp.ErrNotBookingParty),
		errors.Is(err, listingsapp.ErrHostRoleRequired),
		errors.Is(err, listingsapp.ErrNotListingOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrNotFound),
		errors.Is(err, domainlistings.ErrNotFound),
		errors.Is(err, domainpayment.ErrNotFound),
		errors.Is(err, domainuser.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, bookingapp.ErrNotAvailable),
		errors.Is(err, uow.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case policies.IsGatewayBusiness(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case policies.IsGatewayRetryable(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		if logger != nil {
			logger.Error("request failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
