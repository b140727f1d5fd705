package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"freightdesk.org/internal/audit"
	"freightdesk.org/internal/auth"
)

var auditRoles = []auth.Role{auth.RoleAdmin, auth.RoleRoot}

func (a *API) handleAuditList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, ok := a.requireRoles(w, r, auditRoles...)
	if !ok {
		return
	}
	filter, err := auditFilterFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	entries, page, err := a.rec.List(r.Context(), auditScope(identity), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": entries, "page": page})
}

func (a *API) handleAuditStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, ok := a.requireRoles(w, r, auditRoles...)
	if !ok {
		return
	}
	stats, err := a.rec.StatsFor(r.Context(), auditScope(identity))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleAuditEntry(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/audit/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, ok := a.requireRoles(w, r, auditRoles...)
	if !ok {
		return
	}
	entry, err := a.rec.GetByID(r.Context(), auditScope(identity), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type queryError string

func (e queryError) Error() string { return string(e) }

func auditFilterFromQuery(r *http.Request) (audit.Filter, error) {
	q := r.URL.Query()
	filter := audit.Filter{
		Action:         audit.Action(q.Get("action")),
		ResourceType:   q.Get("resource_type"),
		UserID:         q.Get("user_id"),
		OrganizationID: q.Get("organization_id"),
	}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return audit.Filter{}, queryError("page must be a positive integer")
		}
		filter.Page = page
	}
	if v := q.Get("page_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 || size > 500 {
			return audit.Filter{}, queryError("page_size must be between 1 and 500")
		}
		filter.PageSize = size
	}
	if v := q.Get("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return audit.Filter{}, queryError("from must be RFC3339")
		}
		filter.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return audit.Filter{}, queryError("to must be RFC3339")
		}
		filter.To = &to
	}
	return filter, nil
}
