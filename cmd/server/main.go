package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	_ "modernc.org/sqlite"

	emailPkg "bagsberry/internal/adapters/email"
	web "bagsberry/internal/adapters/http"
	"bagsberry/internal/adapters/http/perf"
	"bagsberry/internal/adapters/storage"
	accountStorePkg "bagsberry/internal/adapters/storage/account"
	brandStorePkg "bagsberry/internal/adapters/storage/brand"
	cartSessionStorePkg "bagsberry/internal/adapters/storage/cartsession"
	categoryStorePkg "bagsberry/internal/adapters/storage/category"
	orderStorePkg "bagsberry/internal/adapters/storage/order"
	outboxStorePkg "bagsberry/internal/adapters/storage/outbox"
	pageStorePkg "bagsberry/internal/adapters/storage/page"
	playlistStorePkg "bagsberry/internal/adapters/storage/playlist"
	productStorePkg "bagsberry/internal/adapters/storage/product"
	"bagsberry/internal/application/orchestrators"
	"bagsberry/internal/domain/outbox"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// staleCartAge is how long an untouched guest cart survives before the
// cleanup sweep removes it. Matches the cart cookie lifetime.
const staleCartAge = 30 * 24 * time.Hour

func main() {
	// Initialize database with WAL mode, foreign keys, and busy timeout
	dbPath := envOrDefault("BAGSBERRY_DB", "bagsberry.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	// Health check
	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	// Run database migrations
	if err := storage.MigrateDB(db, dbPath); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)

	// Create store instances (using timed DB for query instrumentation)
	acctStore := accountStorePkg.NewSQLiteStore(timedDB)
	catStore := categoryStorePkg.NewSQLiteStore(timedDB)
	brStore := brandStorePkg.NewSQLiteStore(timedDB)
	prodStore := productStorePkg.NewSQLiteStore(timedDB)
	cartStore := cartSessionStorePkg.NewSQLiteStore(timedDB)
	plStore := playlistStorePkg.NewSQLiteStore(timedDB)
	pgStore := pageStorePkg.NewSQLiteStore(timedDB)
	stores := &web.Stores{
		AccountStore:     acctStore,
		ProductStore:     prodStore,
		CategoryStore:    catStore,
		BrandStore:       brStore,
		OrderStore:       orderStorePkg.NewSQLiteStore(timedDB),
		CartSessionStore: cartStore,
		PlaylistStore:    plStore,
		PageStore:        pgStore,
		OutboxStore:      outboxStorePkg.NewSQLiteStore(timedDB),
	}

	// Seed default admin account if no admin exists
	adminEmail := envOrDefault("BAGSBERRY_ADMIN_EMAIL", "admin@bagsberry.com")
	adminPassword := envOrDefault("BAGSBERRY_ADMIN_PASSWORD", "Tote-ally secret")
	seedDeps := orchestrators.CreateAccountDeps{AccountStore: acctStore}
	if err := orchestrators.ExecuteSeedAdmin(context.Background(), seedDeps, adminEmail, adminPassword); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	// Seed the starter catalog when the store is empty
	catalogDeps := orchestrators.SeedCatalogDeps{
		CategoryStore: catStore,
		BrandStore:    brStore,
		ProductStore:  prodStore,
	}
	if err := orchestrators.ExecuteSeedCatalog(context.Background(), catalogDeps); err != nil {
		log.Fatalf("failed to seed catalog: %v", err)
	}

	// Seed default content pages and the in-store playlist
	contentDeps := orchestrators.SeedContentDeps{
		PageStore:     pgStore,
		PlaylistStore: plStore,
	}
	if err := orchestrators.ExecuteSeedContent(context.Background(), contentDeps); err != nil {
		log.Fatalf("failed to seed content: %v", err)
	}

	// Configure email sender
	resendKey := os.Getenv("BAGSBERRY_RESEND_KEY")
	emailFrom := envOrDefault("BAGSBERRY_RESEND_FROM", "Bagsberry <orders@bagsberry.com>")
	emailReply := envOrDefault("BAGSBERRY_REPLY_TO", "hello@bagsberry.com")
	var sender emailPkg.Sender
	if resendKey != "" {
		sender = emailPkg.NewResendSender(resendKey, emailFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		if os.Getenv("BAGSBERRY_ENV") == "production" {
			log.Println("WARNING: BAGSBERRY_RESEND_KEY is not set — email delivery is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop — set BAGSBERRY_RESEND_KEY for real delivery)")
		}
	}
	web.SetEmailSender(sender, emailFrom, emailReply)

	// Start outbox background worker for retrying failed order emails
	outboxStopCh := make(chan struct{})
	processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, map[string]orchestrators.ActionExecutor{
		outbox.ActionTypeOrderEmail: &orchestrators.EmailExecutor{
			Sender:      sender,
			FromAddress: emailFrom,
		},
	})
	orchestrators.StartBackgroundWorker(processor, 1*time.Minute, outboxStopCh)
	defer close(outboxStopCh)

	// Sweep abandoned guest carts once an hour
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := cartStore.DeleteStale(context.Background(), time.Now().Add(-staleCartAge)); err != nil {
					log.Printf("stale cart sweep failed: %v", err)
				} else if n > 0 {
					log.Printf("stale cart sweep removed %d sessions", n)
				}
			case <-outboxStopCh:
				return
			}
		}
	}()

	// Create HTTP handler with middleware (pass collector for timing + dashboard)
	mux := web.NewMux("static", stores, collector)

	// Start server
	addr := envOrDefault("BAGSBERRY_ADDR", ":8080")
	log.Printf("Bagsberry %s starting on %s (env=%s, schema=%d)", version, addr, envOrDefault("BAGSBERRY_ENV", "development"), storage.LatestSchemaVersion())

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
