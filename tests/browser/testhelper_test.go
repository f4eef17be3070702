package browser_test

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	web "bagsberry/internal/adapters/http"
	"bagsberry/internal/adapters/http/middleware"
	"bagsberry/internal/adapters/storage"
	accountStore "bagsberry/internal/adapters/storage/account"
	brandStore "bagsberry/internal/adapters/storage/brand"
	cartSessionStore "bagsberry/internal/adapters/storage/cartsession"
	categoryStore "bagsberry/internal/adapters/storage/category"
	orderStore "bagsberry/internal/adapters/storage/order"
	outboxStore "bagsberry/internal/adapters/storage/outbox"
	pageStore "bagsberry/internal/adapters/storage/page"
	playlistStore "bagsberry/internal/adapters/storage/playlist"
	productStore "bagsberry/internal/adapters/storage/product"
	"bagsberry/internal/application/orchestrators"
	categoryDomain "bagsberry/internal/domain/category"
	productDomain "bagsberry/internal/domain/product"
)

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL string
	DB      *sql.DB
	Server  *http.Server
	PW      *playwright.Playwright
	Browser playwright.Browser
	Stores  *web.Stores
	AdminID string
	tmpDir  string
}

// newTestApp creates a fully wired app with a temp SQLite DB and starts an HTTP server.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	// Create temp directory for the database
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	// Run migrations
	if err := storage.MigrateDB(db, dbPath); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	// Create stores
	acctStore := accountStore.NewSQLiteStore(db)
	stores := &web.Stores{
		AccountStore:     acctStore,
		ProductStore:     productStore.NewSQLiteStore(db),
		CategoryStore:    categoryStore.NewSQLiteStore(db),
		BrandStore:       brandStore.NewSQLiteStore(db),
		OrderStore:       orderStore.NewSQLiteStore(db),
		CartSessionStore: cartSessionStore.NewSQLiteStore(db),
		PlaylistStore:    playlistStore.NewSQLiteStore(db),
		PageStore:        pageStore.NewSQLiteStore(db),
		OutboxStore:      outboxStore.NewSQLiteStore(db),
	}

	// Seed admin
	ctx := context.Background()
	adminID, err := orchestrators.ExecuteCreateAccount(ctx, orchestrators.CreateAccountInput{
		Email:    "admin@test.com",
		Password: "TestPass123!",
		FullName: "Test Admin",
		Role:     "admin",
	}, orchestrators.CreateAccountDeps{AccountStore: acctStore})
	if err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	// Change to project root so relative static paths work
	projectRoot := findProjectRoot(t)
	origDir, _ := os.Getwd()
	if err := os.Chdir(projectRoot); err != nil {
		t.Fatalf("failed to chdir to project root: %v", err)
	}
	t.Cleanup(func() { os.Chdir(origDir) })

	// Add test port to CSRF trusted origins before creating mux
	middleware.ExtraTrustedOrigins = append(middleware.ExtraTrustedOrigins,
		fmt.Sprintf("127.0.0.1:%d", port),
		fmt.Sprintf("localhost:%d", port),
	)

	// Browser page loads burst well past the production per-IP limit
	web.RateLimitPerSecond = 1000

	// Start HTTP server
	mux := web.NewMux("static", stores, nil)
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	// Wait for server to be ready
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/api/products")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	// Start Playwright
	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	app := &testApp{
		BaseURL: baseURL,
		DB:      db,
		Server:  srv,
		PW:      pw,
		Browser: browser,
		Stores:  stores,
		AdminID: adminID,
		tmpDir:  tmpDir,
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		db.Close()
	})

	return app
}

// seedCatalog creates a deterministic two-category catalog for UI tests.
func (a *testApp) seedCatalog(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	for _, c := range []categoryDomain.Category{
		{ID: "cat-totes", Name: "Totes", CreatedAt: now},
		{ID: "cat-crossbody", Name: "Crossbody", CreatedAt: now},
	} {
		if err := a.Stores.CategoryStore.Save(ctx, c); err != nil {
			t.Fatalf("failed to seed category: %v", err)
		}
	}

	for _, p := range []productDomain.Product{
		{ID: uuid.New().String(), Name: "Canvas Tote", Description: "Everyday canvas carry", Price: 49.99, CategoryID: "cat-totes", StockQuantity: 10, CreatedAt: now},
		{ID: uuid.New().String(), Name: "Weekender Tote", Description: "Oversized travel tote", Price: 79.00, CategoryID: "cat-totes", StockQuantity: 4, CreatedAt: now},
		{ID: uuid.New().String(), Name: "Mini Crossbody", Description: "Compact leather crossbody", Price: 89.00, SalePrice: 59.00, CategoryID: "cat-crossbody", StockQuantity: 6, CreatedAt: now},
	} {
		if err := a.Stores.ProductStore.Save(ctx, p); err != nil {
			t.Fatalf("failed to seed product: %v", err)
		}
	}
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// findProjectRoot walks up from the working directory to find the project root (contains go.mod).
func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find project root (go.mod) from working directory")
		}
		dir = parent
	}
}
