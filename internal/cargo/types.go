// Package cargo holds the tenant business records of the platform: freight
// inquiries, carrier rates and sales calls. Records live in the cargo
// database, separate from identity and audit data; organization and creator
// references are weak ids, not enforced foreign keys across databases.
package cargo

import "time"

// Inquiry statuses. Free-form beyond these well-known values is rejected.
const (
	InquiryStatusOpen   = "open"
	InquiryStatusQuoted = "quoted"
	InquiryStatusWon    = "won"
	InquiryStatusLost   = "lost"
)

// ValidInquiryStatus reports whether the value is a known inquiry status.
func ValidInquiryStatus(s string) bool {
	switch s {
	case InquiryStatusOpen, InquiryStatusQuoted, InquiryStatusWon, InquiryStatusLost:
		return true
	}
	return false
}

// Inquiry is a customer's freight request.
type Inquiry struct {
	ID               string     `json:"id"`
	OrganizationID   string     `json:"organization_id"`
	CreatedBy        string     `json:"created_by"`
	CustomerName     string     `json:"customer_name"`
	OriginPort       string     `json:"origin_port"`
	DestinationPort  string     `json:"destination_port"`
	CargoDescription string     `json:"cargo_description"`
	WeightKg         float64    `json:"weight_kg"`
	TargetDate       *time.Time `json:"target_date,omitempty"`
	Status           string     `json:"status"`
	Notes            string     `json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Rate is a carrier price quote for a lane. AmountMinor holds the price in
// the currency's minor unit.
type Rate struct {
	ID              string     `json:"id"`
	OrganizationID  string     `json:"organization_id"`
	CreatedBy       string     `json:"created_by"`
	OriginPort      string     `json:"origin_port"`
	DestinationPort string     `json:"destination_port"`
	Carrier         string     `json:"carrier"`
	ContainerType   string     `json:"container_type"`
	AmountMinor     int64      `json:"amount_minor"`
	Currency        string     `json:"currency"`
	ValidFrom       *time.Time `json:"valid_from,omitempty"`
	ValidUntil      *time.Time `json:"valid_until,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// SalesCall is a logged customer contact.
type SalesCall struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	CreatedBy      string     `json:"created_by"`
	Company        string     `json:"company"`
	ContactName    string     `json:"contact_name"`
	ContactPhone   string     `json:"contact_phone,omitempty"`
	ContactEmail   string     `json:"contact_email,omitempty"`
	CallDate       *time.Time `json:"call_date,omitempty"`
	Summary        string     `json:"summary"`
	FollowUpDate   *time.Time `json:"follow_up_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
