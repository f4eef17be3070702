package web

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	orderStore "bagsberry/internal/adapters/storage/order"
	productStore "bagsberry/internal/adapters/storage/product"
	"bagsberry/internal/application/listutil"
	"bagsberry/internal/application/orchestrators"
	"bagsberry/internal/application/projections"
	brandDomain "bagsberry/internal/domain/brand"
	categoryDomain "bagsberry/internal/domain/category"
	orderDomain "bagsberry/internal/domain/order"
	pageDomain "bagsberry/internal/domain/page"
	playlistDomain "bagsberry/internal/domain/playlist"
	productDomain "bagsberry/internal/domain/product"
)

// handleAdminProducts handles GET (list) / POST (upsert) / DELETE (?id=)
// on /api/admin/products.
func handleAdminProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case "GET":
		paging := listutil.ParsePagination(r.URL.Query())
		filter := productStore.ListFilter{
			CategoryID: r.URL.Query().Get("category"),
			Search:     r.URL.Query().Get("q"),
		}
		total, err := stores.ProductStore.Count(ctx, filter)
		if err != nil {
			internalError(w, err)
			return
		}
		info := listutil.NewPageInfo(paging.Page, paging.PerPage, total)
		filter.Limit = info.PerPage
		filter.Offset = info.Offset()
		products, err := stores.ProductStore.List(ctx, filter)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, map[string]any{"products": products, "page_info": info})

	case "POST":
		var body struct {
			ID            string  `json:"id"`
			Name          string  `json:"name"`
			Description   string  `json:"description"`
			Price         float64 `json:"price"`
			SalePrice     float64 `json:"sale_price"`
			CategoryID    string  `json:"category_id"`
			BrandID       string  `json:"brand_id"`
			StockQuantity int     `json:"stock_quantity"`
			ImageURL      string  `json:"image_url"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		now := timeNow()
		p := productDomain.Product{
			ID:            body.ID,
			Name:          body.Name,
			Description:   body.Description,
			Price:         body.Price,
			SalePrice:     body.SalePrice,
			CategoryID:    body.CategoryID,
			BrandID:       body.BrandID,
			StockQuantity: body.StockQuantity,
			ImageURL:      body.ImageURL,
			UpdatedAt:     now,
		}
		if p.ID == "" {
			p.ID = generateID()
			p.CreatedAt = now
		} else if existing, err := stores.ProductStore.GetByID(ctx, p.ID); err == nil {
			p.CreatedAt = existing.CreatedAt
		}
		if err := p.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := stores.ProductStore.Save(ctx, p); err != nil {
			internalError(w, err)
			return
		}
		slog.Info("catalog_event", "event", "product_saved", "product_id", p.ID)
		writeJSON(w, p)

	case "DELETE":
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		if err := stores.ProductStore.Delete(ctx, id); err != nil {
			internalError(w, err)
			return
		}
		slog.Info("catalog_event", "event", "product_deleted", "product_id", id)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleAdminCategories handles GET / POST / DELETE on /api/admin/categories.
func handleAdminCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case "GET":
		categories, err := stores.CategoryStore.List(ctx)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, categories)

	case "POST":
		var body struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		c := categoryDomain.Category{ID: body.ID, Name: body.Name}
		if c.ID == "" {
			c.ID = generateID()
			c.CreatedAt = timeNow()
		}
		if err := c.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := stores.CategoryStore.Save(ctx, c); err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, c)

	case "DELETE":
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		if err := stores.CategoryStore.Delete(ctx, id); err != nil {
			internalError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleAdminBrands handles GET / POST / DELETE on /api/admin/brands.
func handleAdminBrands(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case "GET":
		brands, err := stores.BrandStore.List(ctx)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, brands)

	case "POST":
		var body struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
			LogoURL     string `json:"logo_url"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		b := brandDomain.Brand{ID: body.ID, Name: body.Name, Description: body.Description, LogoURL: body.LogoURL}
		if b.ID == "" {
			b.ID = generateID()
			b.CreatedAt = timeNow()
		}
		if err := b.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := stores.BrandStore.Save(ctx, b); err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, b)

	case "DELETE":
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		if err := stores.BrandStore.Delete(ctx, id); err != nil {
			internalError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleAdminOrders handles GET /api/admin/orders with optional status
// filter and paging.
func handleAdminOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	paging := listutil.ParsePagination(r.URL.Query())
	filter := orderStore.ListFilter{Status: r.URL.Query().Get("status")}
	total, err := stores.OrderStore.Count(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	info := listutil.NewPageInfo(paging.Page, paging.PerPage, total)
	filter.Limit = info.PerPage
	filter.Offset = info.Offset()

	orders, err := stores.OrderStore.List(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, map[string]any{"orders": orders, "page_info": info})
}

// handleAdminOrderStatus handles POST /api/admin/orders/status: moves an
// order through its lifecycle, recording tracking info and emailing the
// customer for forward transitions.
func handleAdminOrderStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		OrderID           string `json:"order_id"`
		Status            string `json:"status"`
		TrackingNumber    string `json:"tracking_number"`
		EstimatedDelivery string `json:"estimated_delivery"`
	}
	if err := strictDecode(r, &body); err != nil || body.OrderID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	o, err := orchestrators.ExecuteUpdateOrderStatus(r.Context(), orchestrators.UpdateOrderStatusInput{
		OrderID:           body.OrderID,
		NewStatus:         body.Status,
		TrackingNumber:    body.TrackingNumber,
		EstimatedDelivery: body.EstimatedDelivery,
	}, orchestrators.UpdateOrderStatusDeps{
		OrderStore: stores.OrderStore,
		Email:      checkoutDeps(),
		Now:        timeNow,
	})
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err == orderDomain.ErrInvalidTransition || err == orderDomain.ErrTerminalStatus || err == orderDomain.ErrInvalidStatus {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, o)
}

// handleAdminPlaylist handles GET / POST / DELETE on /api/admin/playlist.
// Any mutation resets the shared player so rotation picks up the change.
func handleAdminPlaylist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case "GET":
		songs, err := stores.PlaylistStore.List(ctx, false)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, songs)

	case "POST":
		var body struct {
			ID         string `json:"id"`
			Title      string `json:"title"`
			Artist     string `json:"artist"`
			YouTubeURL string `json:"youtube_url"`
			IsActive   *bool  `json:"is_active"`
			PlayOrder  int    `json:"play_order"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		s := playlistDomain.Song{
			ID:         body.ID,
			Title:      body.Title,
			Artist:     body.Artist,
			YouTubeURL: body.YouTubeURL,
			IsActive:   true,
			PlayOrder:  body.PlayOrder,
		}
		if body.IsActive != nil {
			s.IsActive = *body.IsActive
		}
		if s.ID == "" {
			s.ID = generateID()
			s.CreatedAt = timeNow()
		}
		if err := s.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := stores.PlaylistStore.Save(ctx, s); err != nil {
			internalError(w, err)
			return
		}
		resetPlayer()
		writeJSON(w, s)

	case "DELETE":
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		if err := stores.PlaylistStore.Delete(ctx, id); err != nil {
			internalError(w, err)
			return
		}
		resetPlayer()
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleAdminPlaylistReorder handles POST /api/admin/playlist/reorder:
// the body lists song IDs in their new play order.
func handleAdminPlaylistReorder(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	var body struct {
		IDs []string `json:"ids"`
	}
	if err := strictDecode(r, &body); err != nil || len(body.IDs) == 0 {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	for i, id := range body.IDs {
		s, err := stores.PlaylistStore.GetByID(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "unknown song "+id, http.StatusBadRequest)
			return
		}
		if err != nil {
			internalError(w, err)
			return
		}
		s.PlayOrder = i + 1
		if err := stores.PlaylistStore.Save(ctx, s); err != nil {
			internalError(w, err)
			return
		}
	}
	resetPlayer()
	w.WriteHeader(http.StatusNoContent)
}

// handleAdminPages handles GET / POST / DELETE on /api/admin/pages.
func handleAdminPages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case "GET":
		pages, err := stores.PageStore.List(ctx)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, pages)

	case "POST":
		var body struct {
			ID    string `json:"id"`
			Slug  string `json:"slug"`
			Title string `json:"title"`
			Body  string `json:"body"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		p := pageDomain.Page{
			ID:        body.ID,
			Slug:      body.Slug,
			Title:     body.Title,
			Body:      body.Body,
			UpdatedAt: timeNow(),
		}
		if p.ID == "" {
			p.ID = generateID()
		}
		if err := p.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := stores.PageStore.Save(ctx, p); err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, p)

	case "DELETE":
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		if err := stores.PageStore.Delete(ctx, id); err != nil {
			internalError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleAdminDashboard handles GET /api/admin/dashboard.
func handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	result, err := projections.QueryGetDashboard(r.Context(), projections.GetDashboardDeps{
		ProductStore: stores.ProductStore,
		OrderStore:   stores.OrderStore,
		AccountStore: stores.AccountStore,
		OutboxStore:  stores.OutboxStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, result)
}

// handleAdminPerf handles GET /api/admin/perf: request/query timings from
// the ring-buffer collector.
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if perfCollector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}
	since := timeNow().Add(-time.Hour)
	writeJSON(w, perfCollector.Snapshot(since, 10))
}
