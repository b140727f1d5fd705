// Package httpapi is the HTTP surface of the service: routing, middleware,
// bearer authentication, per-route role gating and the JSON contract. Domain
// decisions live in the services; this layer translates between HTTP and the
// error taxonomy.
package httpapi

import (
	"database/sql"
	"net/http"
	"time"

	"freightdesk.org/internal/audit"
	"freightdesk.org/internal/auth"
	"freightdesk.org/internal/cargo"
	"freightdesk.org/internal/directory"
	"freightdesk.org/internal/obs"
)

// Options wires the API to its services and health-check targets.
type Options struct {
	Auth      *auth.Service
	Directory *directory.Service
	Cargo     *cargo.Service
	Audit     *audit.Recorder

	// AuthDB and CargoDB are pinged by the health probes; nil means the
	// corresponding store is in-memory and always healthy.
	AuthDB  *sql.DB
	CargoDB *sql.DB

	FrontendOrigin string
	RateBurst      int
	RatePerSecond  int
	Version        string
}

// API is the HTTP layer.
type API struct {
	mux *http.ServeMux

	auth  *auth.Service
	dir   *directory.Service
	cargo *cargo.Service
	rec   *audit.Recorder

	authDB  *sql.DB
	cargoDB *sql.DB

	frontendOrigin string
	rateBurst      int
	ratePerSecond  int
	version        string

	healthClient *http.Client
}

func New(opts Options) *API {
	a := &API{
		mux:            http.NewServeMux(),
		auth:           opts.Auth,
		dir:            opts.Directory,
		cargo:          opts.Cargo,
		rec:            opts.Audit,
		authDB:         opts.AuthDB,
		cargoDB:        opts.CargoDB,
		frontendOrigin: opts.FrontendOrigin,
		rateBurst:      opts.RateBurst,
		ratePerSecond:  opts.RatePerSecond,
		version:        opts.Version,
		healthClient:   &http.Client{Timeout: 5 * time.Second},
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 20
	}
	if a.ratePerSecond <= 0 {
		a.ratePerSecond = 10
	}

	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/auth/profile", a.handleProfile)
	a.mux.HandleFunc("/v1/auth/users", a.handleAuthUsers)
	a.mux.HandleFunc("/v1/auth/register/organization", a.handleRegisterOrganization)

	a.mux.HandleFunc("/v1/organizations", a.handleOrganizationsCollection)
	a.mux.HandleFunc("/v1/organizations/register", a.handlePublicRegister)
	a.mux.HandleFunc("/v1/organizations/", a.handleOrganizationResource)

	a.mux.HandleFunc("/v1/users", a.handleUsersCollection)
	a.mux.HandleFunc("/v1/users/", a.handleUserResource)

	a.mux.HandleFunc("/v1/inquiries", a.handleInquiriesCollection)
	a.mux.HandleFunc("/v1/inquiries/", a.handleInquiryResource)
	a.mux.HandleFunc("/v1/rates", a.handleRatesCollection)
	a.mux.HandleFunc("/v1/rates/", a.handleRateResource)
	a.mux.HandleFunc("/v1/salescalls", a.handleSalesCallsCollection)
	a.mux.HandleFunc("/v1/salescalls/", a.handleSalesCallResource)

	a.mux.HandleFunc("/v1/audit", a.handleAuditList)
	a.mux.HandleFunc("/v1/audit/stats", a.handleAuditStats)
	a.mux.HandleFunc("/v1/audit/", a.handleAuditEntry)

	a.mux.HandleFunc("/health", a.handleHealth)
	a.mux.HandleFunc("/health/detailed", a.handleHealthDetailed)
	a.mux.HandleFunc("/health/ready", a.handleHealthReady)
	a.mux.HandleFunc("/health/live", a.handleHealthLive)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = RateLimit(h, a.rateBurst, a.ratePerSecond)
	h = CORS(h, a.frontendOrigin)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}
