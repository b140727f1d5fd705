package cargo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"freightdesk.org/internal/audit"
	"freightdesk.org/internal/auth"
)

// Service executes tenant-scoped CRUD over the cargo records. The HTTP layer
// admits any authenticated role here; scope enforcement happens per record:
// non-root callers stay inside their own organization and get AccessDenied
// otherwise.
type Service struct {
	store Store
	rec   *audit.Recorder
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the cargo service.
func NewService(store Store, rec *audit.Recorder, opts ...ServiceOption) *Service {
	s := &Service{store: store, rec: rec, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) actorOf(identity auth.Identity) audit.Actor {
	return audit.Actor{UserID: identity.UserID, OrgID: identity.OrganizationID}
}

// resolveOrg decides which organization a new record belongs to. Non-root
// callers always write into their own tenant; root must name one.
func resolveOrg(actor auth.Identity, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if actor.Role == auth.RoleRoot {
		if requested == "" {
			return "", fmt.Errorf("%w: organization id is required", auth.ErrInvalidInput)
		}
		return requested, nil
	}
	if requested != "" && requested != actor.OrganizationID {
		return "", auth.ErrAccessDenied
	}
	return actor.OrganizationID, nil
}

// checkScope rejects access to records outside the caller's tenant.
func checkScope(actor auth.Identity, recordOrg string) error {
	if actor.Role == auth.RoleRoot {
		return nil
	}
	if recordOrg != actor.OrganizationID {
		return auth.ErrAccessDenied
	}
	return nil
}

// listOrg is the List restriction for the caller: root sees everything.
func listOrg(actor auth.Identity) string {
	if actor.Role == auth.RoleRoot {
		return ""
	}
	return actor.OrganizationID
}

// Inquiries -----------------------------------------------------------------

// CreateInquiryInput describes a new freight inquiry.
type CreateInquiryInput struct {
	OrganizationID   string     `json:"organization_id"`
	CustomerName     string     `json:"customer_name"`
	OriginPort       string     `json:"origin_port"`
	DestinationPort  string     `json:"destination_port"`
	CargoDescription string     `json:"cargo_description"`
	WeightKg         float64    `json:"weight_kg"`
	TargetDate       *time.Time `json:"target_date"`
	Notes            string     `json:"notes"`
}

func (s *Service) CreateInquiry(ctx context.Context, actor auth.Identity, in CreateInquiryInput) (*Inquiry, error) {
	orgID, err := resolveOrg(actor, in.OrganizationID)
	if err != nil {
		return nil, err
	}
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.OriginPort = strings.TrimSpace(in.OriginPort)
	in.DestinationPort = strings.TrimSpace(in.DestinationPort)
	if in.CustomerName == "" || in.OriginPort == "" || in.DestinationPort == "" {
		return nil, fmt.Errorf("%w: customer name and both ports are required", auth.ErrInvalidInput)
	}
	if in.WeightKg < 0 {
		return nil, fmt.Errorf("%w: weight cannot be negative", auth.ErrInvalidInput)
	}
	inquiry := &Inquiry{
		OrganizationID:   orgID,
		CreatedBy:        actor.UserID,
		CustomerName:     in.CustomerName,
		OriginPort:       in.OriginPort,
		DestinationPort:  in.DestinationPort,
		CargoDescription: in.CargoDescription,
		WeightKg:         in.WeightKg,
		TargetDate:       in.TargetDate,
		Status:           InquiryStatusOpen,
		Notes:            in.Notes,
	}
	if err := s.store.Inquiries(ctx).Create(ctx, inquiry); err != nil {
		return nil, err
	}
	s.rec.InquiryEvent(ctx, audit.ActionInquiryCreate, s.actorOf(actor), inquiry.ID,
		"inquiry created", map[string]any{"customer": inquiry.CustomerName})
	return inquiry, nil
}

func (s *Service) ListInquiries(ctx context.Context, actor auth.Identity) ([]*Inquiry, error) {
	return s.store.Inquiries(ctx).List(ctx, listOrg(actor))
}

func (s *Service) GetInquiry(ctx context.Context, actor auth.Identity, id string) (*Inquiry, error) {
	inquiry, err := s.store.Inquiries(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkScope(actor, inquiry.OrganizationID); err != nil {
		return nil, err
	}
	return inquiry, nil
}

func (s *Service) UpdateInquiry(ctx context.Context, actor auth.Identity, id string, upd InquiryUpdate) (*Inquiry, error) {
	if _, err := s.GetInquiry(ctx, actor, id); err != nil {
		return nil, err
	}
	if upd.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*upd.Status))
		if !ValidInquiryStatus(status) {
			return nil, fmt.Errorf("%w: unknown inquiry status %q", auth.ErrInvalidInput, *upd.Status)
		}
		upd.Status = &status
	}
	inquiry, err := s.store.Inquiries(ctx).Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.rec.InquiryEvent(ctx, audit.ActionInquiryUpdate, s.actorOf(actor), inquiry.ID,
		"inquiry updated", nil)
	return inquiry, nil
}

func (s *Service) DeleteInquiry(ctx context.Context, actor auth.Identity, id string) error {
	if _, err := s.GetInquiry(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.Inquiries(ctx).Delete(ctx, id); err != nil {
		return err
	}
	s.rec.InquiryEvent(ctx, audit.ActionInquiryDelete, s.actorOf(actor), id, "inquiry deleted", nil)
	return nil
}

// Rates ---------------------------------------------------------------------

// CreateRateInput describes a new carrier rate.
type CreateRateInput struct {
	OrganizationID  string     `json:"organization_id"`
	OriginPort      string     `json:"origin_port"`
	DestinationPort string     `json:"destination_port"`
	Carrier         string     `json:"carrier"`
	ContainerType   string     `json:"container_type"`
	AmountMinor     int64      `json:"amount_minor"`
	Currency        string     `json:"currency"`
	ValidFrom       *time.Time `json:"valid_from"`
	ValidUntil      *time.Time `json:"valid_until"`
	Notes           string     `json:"notes"`
}

func (s *Service) CreateRate(ctx context.Context, actor auth.Identity, in CreateRateInput) (*Rate, error) {
	orgID, err := resolveOrg(actor, in.OrganizationID)
	if err != nil {
		return nil, err
	}
	in.OriginPort = strings.TrimSpace(in.OriginPort)
	in.DestinationPort = strings.TrimSpace(in.DestinationPort)
	in.Carrier = strings.TrimSpace(in.Carrier)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.OriginPort == "" || in.DestinationPort == "" || in.Carrier == "" {
		return nil, fmt.Errorf("%w: carrier and both ports are required", auth.ErrInvalidInput)
	}
	if in.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", auth.ErrInvalidInput)
	}
	if len(in.Currency) != 3 {
		return nil, fmt.Errorf("%w: currency must be a 3-letter code", auth.ErrInvalidInput)
	}
	rate := &Rate{
		OrganizationID:  orgID,
		CreatedBy:       actor.UserID,
		OriginPort:      in.OriginPort,
		DestinationPort: in.DestinationPort,
		Carrier:         in.Carrier,
		ContainerType:   in.ContainerType,
		AmountMinor:     in.AmountMinor,
		Currency:        in.Currency,
		ValidFrom:       in.ValidFrom,
		ValidUntil:      in.ValidUntil,
		Notes:           in.Notes,
	}
	if err := s.store.Rates(ctx).Create(ctx, rate); err != nil {
		return nil, err
	}
	s.rec.RateEvent(ctx, audit.ActionRateCreate, s.actorOf(actor), rate.ID,
		"rate created", map[string]any{"carrier": rate.Carrier, "lane": rate.OriginPort + "-" + rate.DestinationPort})
	return rate, nil
}

func (s *Service) ListRates(ctx context.Context, actor auth.Identity) ([]*Rate, error) {
	return s.store.Rates(ctx).List(ctx, listOrg(actor))
}

func (s *Service) GetRate(ctx context.Context, actor auth.Identity, id string) (*Rate, error) {
	rate, err := s.store.Rates(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkScope(actor, rate.OrganizationID); err != nil {
		return nil, err
	}
	return rate, nil
}

func (s *Service) UpdateRate(ctx context.Context, actor auth.Identity, id string, upd RateUpdate) (*Rate, error) {
	if _, err := s.GetRate(ctx, actor, id); err != nil {
		return nil, err
	}
	if upd.AmountMinor != nil && *upd.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", auth.ErrInvalidInput)
	}
	if upd.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*upd.Currency))
		if len(currency) != 3 {
			return nil, fmt.Errorf("%w: currency must be a 3-letter code", auth.ErrInvalidInput)
		}
		upd.Currency = &currency
	}
	rate, err := s.store.Rates(ctx).Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.rec.RateEvent(ctx, audit.ActionRateUpdate, s.actorOf(actor), rate.ID, "rate updated", nil)
	return rate, nil
}

func (s *Service) DeleteRate(ctx context.Context, actor auth.Identity, id string) error {
	if _, err := s.GetRate(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.Rates(ctx).Delete(ctx, id); err != nil {
		return err
	}
	s.rec.RateEvent(ctx, audit.ActionRateDelete, s.actorOf(actor), id, "rate deleted", nil)
	return nil
}

// Sales calls ---------------------------------------------------------------

// CreateSalesCallInput describes a logged customer contact.
type CreateSalesCallInput struct {
	OrganizationID string     `json:"organization_id"`
	Company        string     `json:"company"`
	ContactName    string     `json:"contact_name"`
	ContactPhone   string     `json:"contact_phone"`
	ContactEmail   string     `json:"contact_email"`
	CallDate       *time.Time `json:"call_date"`
	Summary        string     `json:"summary"`
	FollowUpDate   *time.Time `json:"follow_up_date"`
}

func (s *Service) CreateSalesCall(ctx context.Context, actor auth.Identity, in CreateSalesCallInput) (*SalesCall, error) {
	orgID, err := resolveOrg(actor, in.OrganizationID)
	if err != nil {
		return nil, err
	}
	in.Company = strings.TrimSpace(in.Company)
	if in.Company == "" {
		return nil, fmt.Errorf("%w: company is required", auth.ErrInvalidInput)
	}
	call := &SalesCall{
		OrganizationID: orgID,
		CreatedBy:      actor.UserID,
		Company:        in.Company,
		ContactName:    strings.TrimSpace(in.ContactName),
		ContactPhone:   strings.TrimSpace(in.ContactPhone),
		ContactEmail:   strings.ToLower(strings.TrimSpace(in.ContactEmail)),
		CallDate:       in.CallDate,
		Summary:        in.Summary,
		FollowUpDate:   in.FollowUpDate,
	}
	if err := s.store.SalesCalls(ctx).Create(ctx, call); err != nil {
		return nil, err
	}
	s.rec.SalesCallEvent(ctx, audit.ActionSalesCallCreate, s.actorOf(actor), call.ID,
		"sales call logged", map[string]any{"company": call.Company})
	return call, nil
}

func (s *Service) ListSalesCalls(ctx context.Context, actor auth.Identity) ([]*SalesCall, error) {
	return s.store.SalesCalls(ctx).List(ctx, listOrg(actor))
}

func (s *Service) GetSalesCall(ctx context.Context, actor auth.Identity, id string) (*SalesCall, error) {
	call, err := s.store.SalesCalls(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkScope(actor, call.OrganizationID); err != nil {
		return nil, err
	}
	return call, nil
}

func (s *Service) UpdateSalesCall(ctx context.Context, actor auth.Identity, id string, upd SalesCallUpdate) (*SalesCall, error) {
	if _, err := s.GetSalesCall(ctx, actor, id); err != nil {
		return nil, err
	}
	call, err := s.store.SalesCalls(ctx).Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.rec.SalesCallEvent(ctx, audit.ActionSalesCallUpdate, s.actorOf(actor), call.ID,
		"sales call updated", nil)
	return call, nil
}

func (s *Service) DeleteSalesCall(ctx context.Context, actor auth.Identity, id string) error {
	if _, err := s.GetSalesCall(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.SalesCalls(ctx).Delete(ctx, id); err != nil {
		return err
	}
	s.rec.SalesCallEvent(ctx, audit.ActionSalesCallDelete, s.actorOf(actor), id,
		"sales call deleted", nil)
	return nil
}
