package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"staynest/internal/domain/shared/money"
	"staynest/internal/domain/user"
)

var (
	ErrTitleRequired = errors.New("listings: title is required")
	ErrHostRequired  = errors.New("listings: host is required")
	ErrNightlyRate   = errors.New("listings: nightly rate must be non-negative")
	ErrNotFound      = errors.New("listings: not found")
)

type ListingID string

type Listing struct {
	ID          ListingID
	Host        user.ID
	Title       string
	Description string
	Location    string
	NightlyRate money.Money
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	ListByHost(ctx context.Context, host user.ID) ([]*Listing, error)
	List(ctx context.Context) ([]*Listing, error)
}

type CreateParams struct {
	ID          ListingID
	Host        user.ID
	Title       string
	Description string
	Location    string
	NightlyRate money.Money
	CreatedAt   time.Time
}

func New(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, ErrHostRequired
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if params.NightlyRate.Amount < 0 || params.NightlyRate.Currency == "" {
		return nil, ErrNightlyRate
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Listing{
		ID:          params.ID,
		Host:        params.Host,
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		Location:    strings.TrimSpace(params.Location),
		NightlyRate: params.NightlyRate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (l *Listing) SetNightlyRate(rate money.Money, now time.Time) error {
	if rate.Amount < 0 || rate.Currency == "" {
		return ErrNightlyRate
	}
	l.NightlyRate = rate
	l.UpdatedAt = now.UTC()
	return nil
}
