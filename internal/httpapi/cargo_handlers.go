package httpapi

import (
	"net/http"
	"strings"
	"time"

	"freightdesk.org/internal/auth"
	"freightdesk.org/internal/cargo"
)

var anyRole = []auth.Role{auth.RoleEmployee, auth.RoleManager, auth.RoleAdmin, auth.RoleRoot}

// Inquiries -----------------------------------------------------------------

func (a *API) handleInquiriesCollection(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRoles(w, r, anyRole...)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		items, err := a.cargo.ListInquiries(r.Context(), identity)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		var req cargo.CreateInquiryInput
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		inquiry, err := a.cargo.CreateInquiry(r.Context(), identity, req)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		w.Header().Set("Location", "/v1/inquiries/"+inquiry.ID)
		writeJSON(w, http.StatusCreated, inquiry)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

type updateInquiryRequest struct {
	CustomerName     *string    `json:"customer_name"`
	OriginPort       *string    `json:"origin_port"`
	DestinationPort  *string    `json:"destination_port"`
	CargoDescription *string    `json:"cargo_description"`
	WeightKg         *float64   `json:"weight_kg"`
	TargetDate       *time.Time `json:"target_date"`
	Status           *string    `json:"status"`
	Notes            *string    `json:"notes"`
}

func (a *API) handleInquiryResource(w http.ResponseWriter, r *http.Request) {
	id := resourceID(r.URL.Path, "/v1/inquiries/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	identity, ok := a.requireRoles(w, r, anyRole...)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		inquiry, err := a.cargo.GetInquiry(r.Context(), identity, id)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, inquiry)
	case http.MethodPatch:
		var req updateInquiryRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		inquiry, err := a.cargo.UpdateInquiry(r.Context(), identity, id, cargo.InquiryUpdate{
			CustomerName:     req.CustomerName,
			OriginPort:       req.OriginPort,
			DestinationPort:  req.DestinationPort,
			CargoDescription: req.CargoDescription,
			WeightKg:         req.WeightKg,
			TargetDate:       req.TargetDate,
			Status:           req.Status,
			Notes:            req.Notes,
		})
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, inquiry)
	case http.MethodDelete:
		if err := a.cargo.DeleteInquiry(r.Context(), identity, id); err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

// Rates ---------------------------------------------------------------------

func (a *API) handleRatesCollection(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRoles(w, r, anyRole...)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		items, err := a.cargo.ListRates(r.Context(), identity)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		var req cargo.CreateRateInput
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		rate, err := a.cargo.CreateRate(r.Context(), identity, req)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		w.Header().Set("Location", "/v1/rates/"+rate.ID)
		writeJSON(w, http.StatusCreated, rate)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

type updateRateRequest struct {
	OriginPort      *string    `json:"origin_port"`
	DestinationPort *string    `json:"destination_port"`
	Carrier         *string    `json:"carrier"`
	ContainerType   *string    `json:"container_type"`
	AmountMinor     *int64     `json:"amount_minor"`
	Currency        *string    `json:"currency"`
	ValidFrom       *time.Time `json:"valid_from"`
	ValidUntil      *time.Time `json:"valid_until"`
	Notes           *string    `json:"notes"`
}

func (a *API) handleRateResource(w http.ResponseWriter, r *http.Request) {
	id := resourceID(r.URL.Path, "/v1/rates/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	identity, ok := a.requireRoles(w, r, anyRole...)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		rate, err := a.cargo.GetRate(r.Context(), identity, id)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rate)
	case http.MethodPatch:
		var req updateRateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		rate, err := a.cargo.UpdateRate(r.Context(), identity, id, cargo.RateUpdate{
			OriginPort:      req.OriginPort,
			DestinationPort: req.DestinationPort,
			Carrier:         req.Carrier,
			ContainerType:   req.ContainerType,
			AmountMinor:     req.AmountMinor,
			Currency:        req.Currency,
			ValidFrom:       req.ValidFrom,
			ValidUntil:      req.ValidUntil,
			Notes:           req.Notes,
		})
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rate)
	case http.MethodDelete:
		if err := a.cargo.DeleteRate(r.Context(), identity, id); err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

// Sales calls ---------------------------------------------------------------

func (a *API) handleSalesCallsCollection(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRoles(w, r, anyRole...)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		items, err := a.cargo.ListSalesCalls(r.Context(), identity)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		var req cargo.CreateSalesCallInput
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		call, err := a.cargo.CreateSalesCall(r.Context(), identity, req)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		w.Header().Set("Location", "/v1/salescalls/"+call.ID)
		writeJSON(w, http.StatusCreated, call)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

type updateSalesCallRequest struct {
	Company      *string    `json:"company"`
	ContactName  *string    `json:"contact_name"`
	ContactPhone *string    `json:"contact_phone"`
	ContactEmail *string    `json:"contact_email"`
	CallDate     *time.Time `json:"call_date"`
	Summary      *string    `json:"summary"`
	FollowUpDate *time.Time `json:"follow_up_date"`
}

func (a *API) handleSalesCallResource(w http.ResponseWriter, r *http.Request) {
	id := resourceID(r.URL.Path, "/v1/salescalls/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	identity, ok := a.requireRoles(w, r, anyRole...)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		call, err := a.cargo.GetSalesCall(r.Context(), identity, id)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, call)
	case http.MethodPatch:
		var req updateSalesCallRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		call, err := a.cargo.UpdateSalesCall(r.Context(), identity, id, cargo.SalesCallUpdate{
			Company:      req.Company,
			ContactName:  req.ContactName,
			ContactPhone: req.ContactPhone,
			ContactEmail: req.ContactEmail,
			CallDate:     req.CallDate,
			Summary:      req.Summary,
			FollowUpDate: req.FollowUpDate,
		})
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, call)
	case http.MethodDelete:
		if err := a.cargo.DeleteSalesCall(r.Context(), identity, id); err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

// resourceID extracts the trailing id segment; empty means no match.
func resourceID(path, prefix string) string {
	id := strings.TrimPrefix(path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
