package cargo

import (
	"context"
	"time"
)

// Store describes persistence for the cargo database. List with an empty
// orgID returns every record; services pass "" only for root callers.
type Store interface {
	Inquiries(ctx context.Context) InquiryStore
	Rates(ctx context.Context) RateStore
	SalesCalls(ctx context.Context) SalesCallStore
}

// InquiryUpdate carries optional field changes; nil means unchanged.
type InquiryUpdate struct {
	CustomerName     *string
	OriginPort       *string
	DestinationPort  *string
	CargoDescription *string
	WeightKg         *float64
	TargetDate       *time.Time
	Status           *string
	Notes            *string
}

// RateUpdate carries optional field changes; nil means unchanged.
type RateUpdate struct {
	OriginPort      *string
	DestinationPort *string
	Carrier         *string
	ContainerType   *string
	AmountMinor     *int64
	Currency        *string
	ValidFrom       *time.Time
	ValidUntil      *time.Time
	Notes           *string
}

// SalesCallUpdate carries optional field changes; nil means unchanged.
type SalesCallUpdate struct {
	Company      *string
	ContactName  *string
	ContactPhone *string
	ContactEmail *string
	CallDate     *time.Time
	Summary      *string
	FollowUpDate *time.Time
}

type InquiryStore interface {
	Create(ctx context.Context, in *Inquiry) error
	Find(ctx context.Context, id string) (*Inquiry, error)
	List(ctx context.Context, orgID string) ([]*Inquiry, error)
	Update(ctx context.Context, id string, upd InquiryUpdate) (*Inquiry, error)
	Delete(ctx context.Context, id string) error
}

type RateStore interface {
	Create(ctx context.Context, r *Rate) error
	Find(ctx context.Context, id string) (*Rate, error)
	List(ctx context.Context, orgID string) ([]*Rate, error)
	Update(ctx context.Context, id string, upd RateUpdate) (*Rate, error)
	Delete(ctx context.Context, id string) error
}

type SalesCallStore interface {
	Create(ctx context.Context, c *SalesCall) error
	Find(ctx context.Context, id string) (*SalesCall, error)
	List(ctx context.Context, orgID string) ([]*SalesCall, error)
	Update(ctx context.Context, id string, upd SalesCallUpdate) (*SalesCall, error)
	Delete(ctx context.Context, id string) error
}
