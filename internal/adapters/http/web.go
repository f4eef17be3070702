package web

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"time"

	"bagsberry/internal/adapters/email"
	"bagsberry/internal/adapters/http/middleware"
	"bagsberry/internal/adapters/http/perf"
	accountStore "bagsberry/internal/adapters/storage/account"
	brandStore "bagsberry/internal/adapters/storage/brand"
	cartSessionStore "bagsberry/internal/adapters/storage/cartsession"
	categoryStore "bagsberry/internal/adapters/storage/category"
	orderStore "bagsberry/internal/adapters/storage/order"
	outboxStore "bagsberry/internal/adapters/storage/outbox"
	pageStore "bagsberry/internal/adapters/storage/page"
	playlistStore "bagsberry/internal/adapters/storage/playlist"
	productStore "bagsberry/internal/adapters/storage/product"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore     accountStore.Store
	ProductStore     productStore.Store
	CategoryStore    categoryStore.Store
	BrandStore       brandStore.Store
	OrderStore       orderStore.Store
	CartSessionStore cartSessionStore.Store
	PlaylistStore    playlistStore.Store
	PageStore        pageStore.Store
	OutboxStore      outboxStore.Store
}

// loadCSRFKey reads the CSRF secret from BAGSBERRY_CSRF_KEY (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("BAGSBERRY_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("BAGSBERRY_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if os.Getenv("BAGSBERRY_ENV") == "production" {
		log.Fatal("BAGSBERRY_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (sessions won't survive restart). Set BAGSBERRY_CSRF_KEY for production.")
	return key
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Global email sender instance (set by SetEmailSender)
var emailSender email.Sender

// Email configuration
var emailFromAddress string
var emailReplyTo string

// SetEmailSender sets the global email sender for the application.
func SetEmailSender(sender email.Sender, from, replyTo string) {
	emailSender = sender
	emailFromAddress = from
	emailReplyTo = replyTo
}

// NewMux wires HTTP handlers for the app.
func NewMux(staticDir string, s *Stores, collector *perf.Collector) http.Handler {
	stores = s
	perfCollector = collector
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = os.Getenv("BAGSBERRY_ENV") == "production"

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	registerRoutes(mux)

	// CSRF key: 32-byte hex-encoded secret from env var
	csrfKey := loadCSRFKey()

	// Rate limiter: configurable requests per second per IP
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> Auth -> CSRF -> SecurityHeaders -> RateLimit -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(collector),
	)
}
