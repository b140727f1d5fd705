package cargo

import (
	"context"
	"sort"
	"sync"
	"time"

	"freightdesk.org/internal/auth"
	"freightdesk.org/internal/ids"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store used by tests and DSN-less runs.
type MemoryStore struct {
	mu        sync.RWMutex
	inquiries map[string]*Inquiry
	rates     map[string]*Rate
	calls     map[string]*SalesCall
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		inquiries: map[string]*Inquiry{},
		rates:     map[string]*Rate{},
		calls:     map[string]*SalesCall{},
		now:       time.Now,
	}
}

func (s *MemoryStore) Inquiries(context.Context) InquiryStore   { return &memInquiryStore{s} }
func (s *MemoryStore) Rates(context.Context) RateStore          { return &memRateStore{s} }
func (s *MemoryStore) SalesCalls(context.Context) SalesCallStore { return &memSalesCallStore{s} }

// Inquiries -----------------------------------------------------------------

type memInquiryStore struct{ s *MemoryStore }

func (m *memInquiryStore) Create(ctx context.Context, in *Inquiry) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if in.ID == "" {
		in.ID = ids.New()
	}
	now := m.s.now().UTC()
	in.CreatedAt = now
	in.UpdatedAt = now
	copied := *in
	m.s.inquiries[in.ID] = &copied
	return nil
}

func (m *memInquiryStore) Find(ctx context.Context, id string) (*Inquiry, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	in, ok := m.s.inquiries[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	copied := *in
	return &copied, nil
}

func (m *memInquiryStore) List(ctx context.Context, orgID string) ([]*Inquiry, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var result []*Inquiry
	for _, in := range m.s.inquiries {
		if orgID != "" && in.OrganizationID != orgID {
			continue
		}
		copied := *in
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (m *memInquiryStore) Update(ctx context.Context, id string, upd InquiryUpdate) (*Inquiry, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	in, ok := m.s.inquiries[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	if upd.CustomerName != nil {
		in.CustomerName = *upd.CustomerName
	}
	if upd.OriginPort != nil {
		in.OriginPort = *upd.OriginPort
	}
	if upd.DestinationPort != nil {
		in.DestinationPort = *upd.DestinationPort
	}
	if upd.CargoDescription != nil {
		in.CargoDescription = *upd.CargoDescription
	}
	if upd.WeightKg != nil {
		in.WeightKg = *upd.WeightKg
	}
	if upd.TargetDate != nil {
		t := *upd.TargetDate
		in.TargetDate = &t
	}
	if upd.Status != nil {
		in.Status = *upd.Status
	}
	if upd.Notes != nil {
		in.Notes = *upd.Notes
	}
	in.UpdatedAt = m.s.now().UTC()
	copied := *in
	return &copied, nil
}

func (m *memInquiryStore) Delete(ctx context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.inquiries[id]; !ok {
		return auth.ErrNotFound
	}
	delete(m.s.inquiries, id)
	return nil
}

// Rates ---------------------------------------------------------------------

type memRateStore struct{ s *MemoryStore }

func (m *memRateStore) Create(ctx context.Context, r *Rate) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if r.ID == "" {
		r.ID = ids.New()
	}
	now := m.s.now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	copied := *r
	m.s.rates[r.ID] = &copied
	return nil
}

func (m *memRateStore) Find(ctx context.Context, id string) (*Rate, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	r, ok := m.s.rates[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *memRateStore) List(ctx context.Context, orgID string) ([]*Rate, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var result []*Rate
	for _, r := range m.s.rates {
		if orgID != "" && r.OrganizationID != orgID {
			continue
		}
		copied := *r
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (m *memRateStore) Update(ctx context.Context, id string, upd RateUpdate) (*Rate, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.rates[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	if upd.OriginPort != nil {
		r.OriginPort = *upd.OriginPort
	}
	if upd.DestinationPort != nil {
		r.DestinationPort = *upd.DestinationPort
	}
	if upd.Carrier != nil {
		r.Carrier = *upd.Carrier
	}
	if upd.ContainerType != nil {
		r.ContainerType = *upd.ContainerType
	}
	if upd.AmountMinor != nil {
		r.AmountMinor = *upd.AmountMinor
	}
	if upd.Currency != nil {
		r.Currency = *upd.Currency
	}
	if upd.ValidFrom != nil {
		t := *upd.ValidFrom
		r.ValidFrom = &t
	}
	if upd.ValidUntil != nil {
		t := *upd.ValidUntil
		r.ValidUntil = &t
	}
	if upd.Notes != nil {
		r.Notes = *upd.Notes
	}
	r.UpdatedAt = m.s.now().UTC()
	copied := *r
	return &copied, nil
}

func (m *memRateStore) Delete(ctx context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.rates[id]; !ok {
		return auth.ErrNotFound
	}
	delete(m.s.rates, id)
	return nil
}

// Sales calls ---------------------------------------------------------------

type memSalesCallStore struct{ s *MemoryStore }

func (m *memSalesCallStore) Create(ctx context.Context, c *SalesCall) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if c.ID == "" {
		c.ID = ids.New()
	}
	now := m.s.now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	copied := *c
	m.s.calls[c.ID] = &copied
	return nil
}

func (m *memSalesCallStore) Find(ctx context.Context, id string) (*SalesCall, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	c, ok := m.s.calls[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *memSalesCallStore) List(ctx context.Context, orgID string) ([]*SalesCall, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var result []*SalesCall
	for _, c := range m.s.calls {
		if orgID != "" && c.OrganizationID != orgID {
			continue
		}
		copied := *c
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (m *memSalesCallStore) Update(ctx context.Context, id string, upd SalesCallUpdate) (*SalesCall, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.calls[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	if upd.Company != nil {
		c.Company = *upd.Company
	}
	if upd.ContactName != nil {
		c.ContactName = *upd.ContactName
	}
	if upd.ContactPhone != nil {
		c.ContactPhone = *upd.ContactPhone
	}
	if upd.ContactEmail != nil {
		c.ContactEmail = *upd.ContactEmail
	}
	if upd.CallDate != nil {
		t := *upd.CallDate
		c.CallDate = &t
	}
	if upd.Summary != nil {
		c.Summary = *upd.Summary
	}
	if upd.FollowUpDate != nil {
		t := *upd.FollowUpDate
		c.FollowUpDate = &t
	}
	c.UpdatedAt = m.s.now().UTC()
	copied := *c
	return &copied, nil
}

func (m *memSalesCallStore) Delete(ctx context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.calls[id]; !ok {
		return auth.ErrNotFound
	}
	delete(m.s.calls, id)
	return nil
}
