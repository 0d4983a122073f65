package listings

import (
	"context"

	"staynest/internal/app/queries"
	"staynest/internal/app/support"
	"staynest/internal/app/uow"
	domainlistings "staynest/internal/domain/listings"
	domainuser "staynest/internal/domain/user"
)

const (
	listListingsKey = "listings.list"
	hostListingsKey = "listings.host"
)

type ListListingsQuery struct{}

func (q ListListingsQuery) Key() string { return listListingsKey }

type HostListingsQuery struct {
	HostID string
}

func (q HostListingsQuery) Key() string { return hostListingsKey }

type ListingCollection struct {
	Items []ListingView `json:"items"`
	Total int           `json:"total"`
}

type ListListingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListListingsHandler) Handle(ctx context.Context, q ListListingsQuery) (*ListingCollection, error) {
	return collectListings(ctx, h.UoWFactory, func(ctx context.Context, repo domainlistings.Repository) ([]*domainlistings.Listing, error) {
		return repo.List(ctx)
	})
}

type HostListingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *HostListingsHandler) Handle(ctx context.Context, q HostListingsQuery) (*ListingCollection, error) {
	return collectListings(ctx, h.UoWFactory, func(ctx context.Context, repo domainlistings.Repository) ([]*domainlistings.Listing, error) {
		return repo.ListByHost(ctx, domainuser.ID(q.HostID))
	})
}

func collectListings(ctx context.Context, factory uow.UoWFactory, fetch func(context.Context, domainlistings.Repository) ([]*domainlistings.Listing, error)) (*ListingCollection, error) {
	unit, execCtx, cleanup, err := support.BeginUnit(ctx, factory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	items, err := fetch(execCtx, unit.Listings())
	if err != nil {
		return nil, err
	}
	views := make([]ListingView, 0, len(items))
	for _, listing := range items {
		views = append(views, mapListingView(listing))
	}
	return &ListingCollection{Items: views, Total: len(views)}, nil
}

var _ queries.Handler[ListListingsQuery, *ListingCollection] = (*ListListingsHandler)(nil)
var _ queries.Handler[HostListingsQuery, *ListingCollection] = (*HostListingsHandler)(nil)
