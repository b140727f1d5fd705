package audit

import (
	"errors"
	"time"
)

// Action identifies what happened. Values group into user / organization /
// inquiry / salescall / rate / system categories.
type Action string

const (
	ActionUserCreate         Action = "user.create"
	ActionUserUpdate         Action = "user.update"
	ActionUserDelete         Action = "user.delete"
	ActionUserStatusChange   Action = "user.status_change"
	ActionUserRoleChange     Action = "user.role_change"
	ActionUserLogin          Action = "user.login"
	ActionUserLoginFailed    Action = "user.login_failed"
	ActionUserLogout         Action = "user.logout"
	ActionUserProfileUpdate  Action = "user.profile_update"
	ActionUserPasswordChange Action = "user.password_change"

	ActionOrgCreate       Action = "organization.create"
	ActionOrgUpdate       Action = "organization.update"
	ActionOrgDelete       Action = "organization.delete"
	ActionOrgStatusChange Action = "organization.status_change"
	ActionOrgRegister     Action = "organization.register"

	ActionInquiryCreate Action = "inquiry.create"
	ActionInquiryUpdate Action = "inquiry.update"
	ActionInquiryDelete Action = "inquiry.delete"

	ActionSalesCallCreate Action = "salescall.create"
	ActionSalesCallUpdate Action = "salescall.update"
	ActionSalesCallDelete Action = "salescall.delete"

	ActionRateCreate Action = "rate.create"
	ActionRateUpdate Action = "rate.update"
	ActionRateDelete Action = "rate.delete"

	ActionSystemStartup      Action = "system.startup"
	ActionSystemTokenRefresh Action = "system.token_refresh"
	ActionSystemTokenRevoke  Action = "system.token_revoke"
)

// Resource type values pre-bound by the per-category wrappers.
const (
	ResourceUser         = "user"
	ResourceOrganization = "organization"
	ResourceInquiry      = "inquiry"
	ResourceSalesCall    = "salescall"
	ResourceRate         = "rate"
	ResourceSystem       = "system"
)

// UnknownMeta is the sentinel stored when no request metadata is available.
const UnknownMeta = "unknown"

// ErrNotFoundOrDenied is returned by the read path when an entry does not
// exist or sits outside the caller's visibility. The two cases are
// deliberately indistinguishable so existence does not leak across tenants.
var ErrNotFoundOrDenied = errors.New("audit: entry not found")

// Entry is one immutable audit record. It is never updated or deleted.
type Entry struct {
	ID             string         `json:"id"`
	Action         Action         `json:"action"`
	ResourceType   string         `json:"resource_type"`
	ResourceID     string         `json:"resource_id,omitempty"`
	Description    string         `json:"description"`
	Details        map[string]any `json:"details,omitempty"`
	UserID         string         `json:"user_id,omitempty"`
	OrganizationID string         `json:"organization_id,omitempty"`
	IPAddress      string         `json:"ip_address"`
	UserAgent      string         `json:"user_agent"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Scope carries the caller identity for role-scoped reads. Role values match
// the identity subsystem's role names.
type Scope struct {
	UserID string
	OrgID  string
	Role   string
}

const (
	scopeRoleRoot  = "root"
	scopeRoleAdmin = "admin"
)

// Filter narrows List results. Zero values mean "no restriction". Page is
// 1-indexed; PageSize defaults to 50.
type Filter struct {
	Action         Action
	ResourceType   string
	UserID         string
	OrganizationID string
	From           *time.Time
	To             *time.Time
	Page           int
	PageSize       int
}

// PageInfo accompanies a List result.
type PageInfo struct {
	Total     int64 `json:"total"`
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	PageCount int   `json:"page_count"`
}

// Stats summarises visible entries for the caller.
type Stats struct {
	Total          int64            `json:"total"`
	Today          int64            `json:"today"`
	ByAction       map[string]int64 `json:"by_action"`
	ByResourceType map[string]int64 `json:"by_resource_type"`
}
