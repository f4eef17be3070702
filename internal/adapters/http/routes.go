package web

import (
	"net/http"

	"bagsberry/internal/adapters/http/middleware"
	accountDomain "bagsberry/internal/domain/account"
)

// registerRoutes attaches all storefront and back-office handlers.
// Handlers check methods themselves; role enforcement happens here.
func registerRoutes(mux *http.ServeMux) {
	// Storefront catalog
	mux.HandleFunc("/api/products", handleProducts)
	mux.HandleFunc("/api/products/get", handleProductGet)
	mux.HandleFunc("/api/categories", handleCategories)
	mux.HandleFunc("/api/brands", handleBrands)

	// Cart (token cookie, no login required)
	mux.HandleFunc("/api/cart", handleCart)
	mux.HandleFunc("/api/cart/add", handleCartAdd)
	mux.HandleFunc("/api/cart/update", handleCartUpdate)
	mux.HandleFunc("/api/cart/remove", handleCartRemove)
	mux.HandleFunc("/api/cart/clear", handleCartClear)

	// Checkout is open to guests; history needs a signed-in customer.
	mux.HandleFunc("/api/orders/create", handleOrderCreate)
	mux.Handle("/api/orders", middleware.RequireAuth(http.HandlerFunc(handleOrders)))
	mux.Handle("/api/orders/get", middleware.RequireAuth(http.HandlerFunc(handleOrderGet)))

	// Accounts
	mux.HandleFunc("/api/signup", handleSignup)
	mux.HandleFunc("/api/login", handleLogin)
	mux.HandleFunc("/api/logout", handleLogout)
	mux.HandleFunc("/api/me", handleMe)

	// In-store music player
	mux.HandleFunc("/api/playlist", handlePlaylist)
	mux.HandleFunc("/api/playlist/report-error", handlePlaylistReportError)

	// Content pages
	mux.HandleFunc("/pages/", handlePage)

	// Back office
	admin := middleware.RequireRole(accountDomain.RoleAdmin)
	mux.Handle("/api/admin/products", admin(http.HandlerFunc(handleAdminProducts)))
	mux.Handle("/api/admin/categories", admin(http.HandlerFunc(handleAdminCategories)))
	mux.Handle("/api/admin/brands", admin(http.HandlerFunc(handleAdminBrands)))
	mux.Handle("/api/admin/orders", admin(http.HandlerFunc(handleAdminOrders)))
	mux.Handle("/api/admin/orders/status", admin(http.HandlerFunc(handleAdminOrderStatus)))
	mux.Handle("/api/admin/playlist", admin(http.HandlerFunc(handleAdminPlaylist)))
	mux.Handle("/api/admin/playlist/reorder", admin(http.HandlerFunc(handleAdminPlaylistReorder)))
	mux.Handle("/api/admin/pages", admin(http.HandlerFunc(handleAdminPages)))
	mux.Handle("/api/admin/dashboard", admin(http.HandlerFunc(handleAdminDashboard)))
	mux.Handle("/api/admin/perf", admin(http.HandlerFunc(handleAdminPerf)))
	mux.Handle("/api/admin/outbox", admin(http.HandlerFunc(handleAdminOutbox)))
	mux.Handle("/api/admin/outbox/", admin(http.HandlerFunc(handleAdminOutbox)))
}
