package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"freightdesk.org/internal/audit"
	"freightdesk.org/internal/auth"
	"freightdesk.org/internal/cargo"
	"freightdesk.org/internal/config"
	"freightdesk.org/internal/directory"
	"freightdesk.org/internal/httpapi"
	"freightdesk.org/internal/obs"
)

var version = "0.3.1"

const auditOutboxDepth = 1024

func main() {
	obs.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	authDB := openDB(cfg.AuthDSN)
	cargoDB := openDB(cfg.CargoDSN)

	var authStore auth.Store
	var auditStore audit.Store
	if authDB != nil {
		authStore = auth.NewPGStore(authDB)
		auditStore = audit.NewPGStore(authDB)
	} else {
		log.Println("no auth DSN configured, running on in-memory stores")
		authStore = auth.NewMemoryStore()
		auditStore = audit.NewMemoryStore()
	}

	var cargoStore cargo.Store
	if cargoDB != nil {
		cargoStore = cargo.NewPGStore(cargoDB)
	} else {
		cargoStore = cargo.NewMemoryStore()
	}

	outbox := audit.NewOutbox(auditStore, auditOutboxDepth)
	outbox.Start()
	rec := audit.NewRecorder(auditStore, audit.WithOutbox(outbox))

	authSvc, err := auth.NewService(authStore, cfg.TokenSecret,
		auth.WithAccessTTL(cfg.AccessTTL),
		auth.WithRefreshTTL(cfg.RefreshTTL),
		auth.WithRecorder(rec),
	)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	ctx := context.Background()
	if err := authSvc.EnsureRootUser(ctx, cfg.RootEmail, cfg.RootPassword); err != nil {
		log.Fatalf("bootstrap root user: %v", err)
	}

	api := httpapi.New(httpapi.Options{
		Auth:           authSvc,
		Directory:      directory.NewService(authStore, rec),
		Cargo:          cargo.NewService(cargoStore, rec),
		Audit:          rec,
		AuthDB:         authDB,
		CargoDB:        cargoDB,
		FrontendOrigin: cfg.FrontendOrigin,
		RateBurst:      cfg.RateBurst,
		RatePerSecond:  cfg.RatePerSec,
		Version:        version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting freightdesk-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	outbox.Close()
	if cargoDB != nil {
		_ = cargoDB.Close()
	}
	if authDB != nil {
		_ = authDB.Close()
	}
	log.Println("Stopped")
}

// openDB returns nil when no DSN is configured; the caller falls back to
// in-memory stores.
func openDB(dsn string) *sql.DB {
	if dsn == "" {
		return nil
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db
}
