package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

const healthCheckTimeout = 5 * time.Second

func pingDB(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return db.PingContext(ctx)
}

// checkFrontend verifies the configured SPA origin answers at all. Any HTTP
// response counts as reachable.
func (a *API) checkFrontend(ctx context.Context) error {
	if a.frontendOrigin == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.frontendOrigin, nil)
	if err != nil {
		return err
	}
	resp, err := a.healthClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "freightdesk-api",
		"version": a.version,
	})
}

func (a *API) handleHealthLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "alive"})
}

func (a *API) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if err := pingDB(r.Context(), a.authDB); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready", "failing": "auth_db"})
		return
	}
	if err := pingDB(r.Context(), a.cargoDB); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready", "failing": "cargo_db"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	checks := map[string]string{
		"auth_db":  "ok",
		"cargo_db": "ok",
		"frontend": "ok",
	}
	status := http.StatusOK
	if err := pingDB(r.Context(), a.authDB); err != nil {
		checks["auth_db"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := pingDB(r.Context(), a.cargoDB); err != nil {
		checks["cargo_db"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	// Frontend reachability is informational; it does not fail the probe.
	if err := a.checkFrontend(r.Context()); err != nil {
		checks["frontend"] = err.Error()
	}
	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	writeJSON(w, status, map[string]any{
		"status":  overall,
		"version": a.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"checks":  checks,
	})
}
