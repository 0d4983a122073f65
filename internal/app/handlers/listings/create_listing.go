package listings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staynest/internal/app/commands"
	"staynest/internal/app/support"
	"staynest/internal/app/uow"
	domainlistings "staynest/internal/domain/listings"
	"staynest/internal/domain/shared/money"
	domainuser "staynest/internal/domain/user"
)

const createListingKey = "listings.create"

var (
	ErrHostRoleRequired  = errors.New("listings: caller must be a host")
	ErrNotListingOwner   = errors.New("listings: caller does not own this listing")
	ErrUnitOfWorkMissing = errors.New("listings: unit of work required")
)

type CreateListingCommand struct {
	CommandID   string
	HostID      string
	Title       string
	Description string
	Location    string
	NightlyRate string
	Currency    string
}

func (c CreateListingCommand) Key() string { return createListingKey }

type CreateListingResult struct {
	Listing ListingView `json:"listing"`
}

type CreateListingHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *CreateListingHandler) Handle(ctx context.Context, cmd CreateListingCommand) (*CreateListingResult, error) {
	unit, execCtx, cleanup, err := support.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	managed := cleanup != nil
	if managed {
		defer cleanup()
	}

	host, err := unit.Users().ByID(execCtx, domainuser.ID(cmd.HostID))
	if err != nil {
		return nil, err
	}
	if !host.IsHost() && !host.IsAdmin() {
		return nil, ErrHostRoleRequired
	}

	rate, err := money.ParseDecimal(cmd.NightlyRate, cmd.Currency)
	if err != nil {
		return nil, err
	}

	listing, err := domainlistings.New(domainlistings.CreateParams{
		ID:          domainlistings.ListingID(cmd.CommandID),
		Host:        host.ID,
		Title:       cmd.Title,
		Description: cmd.Description,
		Location:    cmd.Location,
		NightlyRate: rate,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(execCtx, listing); err != nil {
		return nil, err
	}
	if managed {
		if err := unit.Commit(execCtx); err != nil {
			return nil, err
		}
	}

	if h.Logger != nil {
		h.Logger.Info("listing created", "listing_id", listing.ID, "host_id", host.ID, "nightly_rate", rate.Decimal())
	}
	return &CreateListingResult{Listing: mapListingView(listing)}, nil
}

var _ commands.Handler[CreateListingCommand, *CreateListingResult] = (*CreateListingHandler)(nil)
