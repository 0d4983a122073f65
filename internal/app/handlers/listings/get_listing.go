package listings

import (
	"context"
	"time"

	"staynest/internal/app/queries"
	"staynest/internal/app/support"
	"staynest/internal/app/uow"
	domainlistings "staynest/internal/domain/listings"
)

const getListingKey = "listings.get"

type GetListingQuery struct {
	ListingID string
}

func (q GetListingQuery) Key() string { return getListingKey }

// ListingView is the public serialization of a listing.
type ListingView struct {
	ListingID   string    `json:"listing_id"`
	HostID      string    `json:"host_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	NightlyRate string    `json:"nightly_rate"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func mapListingView(l *domainlistings.Listing) ListingView {
	return ListingView{
		ListingID:   string(l.ID),
		HostID:      string(l.Host),
		Title:       l.Title,
		Description: l.Description,
		Location:    l.Location,
		NightlyRate: l.NightlyRate.Decimal(),
		Currency:    l.NightlyRate.Currency,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

type GetListingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetListingHandler) Handle(ctx context.Context, q GetListingQuery) (*ListingView, error) {
	unit, execCtx, cleanup, err := support.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return nil, err
	}
	view := mapListingView(listing)
	return &view, nil
}

var _ queries.Handler[GetListingQuery, *ListingView] = (*GetListingHandler)(nil)
