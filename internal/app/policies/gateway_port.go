package policies

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domainbooking "staynest/internal/domain/booking"
	domainpayment "staynest/internal/domain/payment"
	"staynest/internal/domain/shared/money"
)

// PaymentGateway normalizes all interaction with the external payment
// provider. Implementations perform no persistence; the reconciler owns the
// payment record.
type PaymentGateway interface {
	Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error)
	Verify(ctx context.Context, txRef string) (VerifyResult, error)
}

type InitiateRequest struct {
	BookingID  domainbooking.BookingID
	Amount     money.Money
	Email      string
	FirstName  string
	LastName   string
	Phone      string
	ReturnURL  string
	Descriptor string
}

type InitiateResult struct {
	TxRef       string
	CheckoutURL string
	ProviderRef string
	Raw         []byte
}

type VerifyResult struct {
	// Status is the provider vocabulary mapped onto the internal payment
	// states; unrecognized provider statuses arrive as StatePending.
	Status      domainpayment.State
	Amount      string
	ProviderRef string
	Raw         []byte
}

// MapProviderStatus maps the provider's status vocabulary onto the internal
// payment states. It is total: anything unrecognized stays pending, so a
// surprising provider response can never mark a payment completed.
func MapProviderStatus(status string) domainpayment.State {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success":
		return domainpayment.StateCompleted
	case "failed":
		return domainpayment.StateFailed
	case "pending":
		return domainpayment.StatePending
	default:
		return domainpayment.StatePending
	}
}

type GatewayErrorKind int

const (
	// GatewayNetwork covers transport failures, timeouts and undecodable
	// responses; the caller may retry.
	GatewayNetwork GatewayErrorKind = iota
	// GatewayBusiness is a provider-reported rejection; retrying will not help
	// and the message is surfaced to the user.
	GatewayBusiness
)

type GatewayError struct {
	Kind    GatewayErrorKind
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("gateway: %s: %v", e.Message, e.Err)
	case e.Message != "":
		return "gateway: " + e.Message
	case e.Err != nil:
		return "gateway: " + e.Err.Error()
	default:
		return "gateway: unknown error"
	}
}

func (e *GatewayError) Unwrap() error { return e.Err }

func NewGatewayNetworkError(message string, err error) *GatewayError {
	return &GatewayError{Kind: GatewayNetwork, Message: message, Err: err}
}

func NewGatewayBusinessError(message string) *GatewayError {
	return &GatewayError{Kind: GatewayBusiness, Message: message}
}

// IsGatewayRetryable reports whether err is a gateway failure worth retrying.
func IsGatewayRetryable(err error) bool {
	var gw *GatewayError
	return errors.As(err, &gw) && gw.Kind == GatewayNetwork
}

// IsGatewayBusiness reports whether err is a provider-side rejection.
func IsGatewayBusiness(err error) bool {
	var gw *GatewayError
	return errors.As(err, &gw) && gw.Kind == GatewayBusiness
}
