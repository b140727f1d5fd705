package httpapi

import (
	"net/http"
	"strings"

	"freightdesk.org/internal/auth"
	"freightdesk.org/internal/directory"
)

// Organizations -------------------------------------------------------------

func (a *API) handleOrganizationsCollection(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRoles(w, r, auth.RoleRoot)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		orgs, err := a.dir.ListOrganizations(r.Context(), identity)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": orgs})
	case http.MethodPost:
		a.createOrganization(w, r, identity)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) createOrganization(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	var req directory.CreateOrganizationInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	org, admin, err := a.dir.CreateOrganization(r.Context(), identity, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/organizations/"+org.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"organization": org, "admin": admin})
}

// handlePublicRegister is the unauthenticated self-service registration.
func (a *API) handlePublicRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req directory.CreateOrganizationInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	org, admin, err := a.dir.PublicRegister(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"organization": org,
		"admin":        admin,
		"status":       "pending_approval",
	})
}

func (a *API) handleOrganizationResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/organizations/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	identity, ok := a.requireRoles(w, r, auth.RoleRoot)
	if !ok {
		return
	}

	if strings.HasSuffix(path, "/status") {
		id := strings.TrimSuffix(strings.TrimSuffix(path, "/status"), "/")
		if id == "" {
			writeError(w, r, http.StatusNotFound, "not found")
			return
		}
		if r.Method != http.MethodPatch {
			methodNotAllowed(w, r, http.MethodPatch)
			return
		}
		a.updateOrganizationStatus(w, r, identity, id)
		return
	}
	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		org, err := a.dir.GetOrganization(r.Context(), identity, path)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, org)
	case http.MethodPatch:
		var req directory.UpdateOrganizationInput
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		org, err := a.dir.UpdateOrganization(r.Context(), identity, path, req)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, org)
	case http.MethodDelete:
		if err := a.dir.DeleteOrganization(r.Context(), identity, path); err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

func (a *API) updateOrganizationStatus(w http.ResponseWriter, r *http.Request, identity auth.Identity, id string) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	org, err := a.dir.UpdateOrganizationStatus(r.Context(), identity, id, req.Status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

// Users ---------------------------------------------------------------------

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRoles(w, r, auth.RoleManager, auth.RoleAdmin, auth.RoleRoot)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		users, err := a.dir.ListUsers(r.Context(), identity)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": users})
	case http.MethodPost:
		a.createUser(w, r, identity)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	var req directory.CreateUserInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.dir.CreateUser(r.Context(), identity, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/users/"+user.ID)
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	identity, ok := a.requireRoles(w, r, auth.RoleManager, auth.RoleAdmin, auth.RoleRoot)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := a.dir.GetUser(r.Context(), identity, id)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPatch:
		var req directory.UpdateUserInput
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		user, err := a.dir.UpdateUser(r.Context(), identity, id, req)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodDelete:
		if err := a.dir.DeleteUser(r.Context(), identity, id); err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}
