package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"bagsberry/internal/adapters/email"
	"bagsberry/internal/adapters/http/middleware"
	accountStore "bagsberry/internal/adapters/storage/account"
	cartSessionStore "bagsberry/internal/adapters/storage/cartsession"
	orderStore "bagsberry/internal/adapters/storage/order"
	productStore "bagsberry/internal/adapters/storage/product"
	"bagsberry/internal/application/listutil"
	accountDomain "bagsberry/internal/domain/account"
	brandDomain "bagsberry/internal/domain/brand"
	cartDomain "bagsberry/internal/domain/cart"
	categoryDomain "bagsberry/internal/domain/category"
	orderDomain "bagsberry/internal/domain/order"
	outboxDomain "bagsberry/internal/domain/outbox"
	pageDomain "bagsberry/internal/domain/page"
	playlistDomain "bagsberry/internal/domain/playlist"
	productDomain "bagsberry/internal/domain/product"
)

// --- Mock stores ---

type mockAccountStore struct {
	accounts map[string]accountDomain.Account
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (accountDomain.Account, error) {
	if a, ok := m.accounts[id]; ok {
		return a, nil
	}
	return accountDomain.Account{}, sql.ErrNoRows
}

func (m *mockAccountStore) GetByEmail(_ context.Context, emailAddr string) (accountDomain.Account, error) {
	for _, a := range m.accounts {
		if a.Email == emailAddr {
			return a, nil
		}
	}
	return accountDomain.Account{}, sql.ErrNoRows
}

func (m *mockAccountStore) Save(_ context.Context, a accountDomain.Account) error {
	if m.accounts == nil {
		m.accounts = make(map[string]accountDomain.Account)
	}
	m.accounts[a.ID] = a
	return nil
}

func (m *mockAccountStore) Delete(_ context.Context, id string) error {
	delete(m.accounts, id)
	return nil
}

func (m *mockAccountStore) List(_ context.Context, _ accountStore.ListFilter) ([]accountDomain.Account, error) {
	var list []accountDomain.Account
	for _, a := range m.accounts {
		list = append(list, a)
	}
	return list, nil
}

func (m *mockAccountStore) Count(_ context.Context) (int, error) {
	return len(m.accounts), nil
}

type mockProductStore struct {
	products map[string]productDomain.Product
}

func (m *mockProductStore) GetByID(_ context.Context, id string) (productDomain.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return productDomain.Product{}, sql.ErrNoRows
}

func (m *mockProductStore) Save(_ context.Context, p productDomain.Product) error {
	if m.products == nil {
		m.products = make(map[string]productDomain.Product)
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockProductStore) Delete(_ context.Context, id string) error {
	delete(m.products, id)
	return nil
}

func (m *mockProductStore) List(_ context.Context, filter productStore.ListFilter) ([]productDomain.Product, error) {
	var list []productDomain.Product
	for _, p := range m.products {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	if filter.Limit > 0 && filter.Limit < len(list) {
		list = list[:filter.Limit]
	}
	return list, nil
}

func (m *mockProductStore) Count(_ context.Context, _ productStore.ListFilter) (int, error) {
	return len(m.products), nil
}

func (m *mockProductStore) DecrementStock(_ context.Context, id string, qty int) error {
	p, ok := m.products[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.StockQuantity -= qty
	if p.StockQuantity < 0 {
		p.StockQuantity = 0
	}
	m.products[id] = p
	return nil
}

type mockCategoryStore struct {
	categories map[string]categoryDomain.Category
}

func (m *mockCategoryStore) GetByID(_ context.Context, id string) (categoryDomain.Category, error) {
	if c, ok := m.categories[id]; ok {
		return c, nil
	}
	return categoryDomain.Category{}, sql.ErrNoRows
}

func (m *mockCategoryStore) Save(_ context.Context, c categoryDomain.Category) error {
	if m.categories == nil {
		m.categories = make(map[string]categoryDomain.Category)
	}
	m.categories[c.ID] = c
	return nil
}

func (m *mockCategoryStore) Delete(_ context.Context, id string) error {
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryStore) List(_ context.Context) ([]categoryDomain.Category, error) {
	var list []categoryDomain.Category
	for _, c := range m.categories {
		list = append(list, c)
	}
	return list, nil
}

type mockBrandStore struct {
	brands map[string]brandDomain.Brand
}

func (m *mockBrandStore) GetByID(_ context.Context, id string) (brandDomain.Brand, error) {
	if b, ok := m.brands[id]; ok {
		return b, nil
	}
	return brandDomain.Brand{}, sql.ErrNoRows
}

func (m *mockBrandStore) Save(_ context.Context, b brandDomain.Brand) error {
	if m.brands == nil {
		m.brands = make(map[string]brandDomain.Brand)
	}
	m.brands[b.ID] = b
	return nil
}

func (m *mockBrandStore) Delete(_ context.Context, id string) error {
	delete(m.brands, id)
	return nil
}

func (m *mockBrandStore) List(_ context.Context) ([]brandDomain.Brand, error) {
	var list []brandDomain.Brand
	for _, b := range m.brands {
		list = append(list, b)
	}
	return list, nil
}

type mockOrderStore struct {
	orders map[string]orderDomain.Order
}

func (m *mockOrderStore) GetByID(_ context.Context, id string) (orderDomain.Order, error) {
	if o, ok := m.orders[id]; ok {
		return o, nil
	}
	return orderDomain.Order{}, sql.ErrNoRows
}

func (m *mockOrderStore) Save(_ context.Context, o orderDomain.Order) error {
	if m.orders == nil {
		m.orders = make(map[string]orderDomain.Order)
	}
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderStore) Delete(_ context.Context, id string) error {
	delete(m.orders, id)
	return nil
}

func (m *mockOrderStore) List(_ context.Context, filter orderStore.ListFilter) ([]orderDomain.Order, error) {
	var list []orderDomain.Order
	for _, o := range m.orders {
		if filter.AccountID != "" && o.AccountID != filter.AccountID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		list = append(list, o)
	}
	return list, nil
}

func (m *mockOrderStore) Count(ctx context.Context, filter orderStore.ListFilter) (int, error) {
	list, _ := m.List(ctx, filter)
	return len(list), nil
}

type mockCartSessionStore struct {
	sessions map[string]cartSessionStore.Session
}

func (m *mockCartSessionStore) Get(_ context.Context, token string) (cartSessionStore.Session, error) {
	if s, ok := m.sessions[token]; ok {
		return s, nil
	}
	return cartSessionStore.Session{}, cartSessionStore.ErrNotFound
}

func (m *mockCartSessionStore) Save(_ context.Context, s cartSessionStore.Session) error {
	if m.sessions == nil {
		m.sessions = make(map[string]cartSessionStore.Session)
	}
	m.sessions[s.Token] = s
	return nil
}

func (m *mockCartSessionStore) Delete(_ context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

func (m *mockCartSessionStore) DeleteStale(_ context.Context, cutoff time.Time) (int, error) {
	n := 0
	for token, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

type mockPlaylistStore struct {
	songs map[string]playlistDomain.Song
}

func (m *mockPlaylistStore) GetByID(_ context.Context, id string) (playlistDomain.Song, error) {
	if s, ok := m.songs[id]; ok {
		return s, nil
	}
	return playlistDomain.Song{}, sql.ErrNoRows
}

func (m *mockPlaylistStore) Save(_ context.Context, s playlistDomain.Song) error {
	if m.songs == nil {
		m.songs = make(map[string]playlistDomain.Song)
	}
	m.songs[s.ID] = s
	return nil
}

func (m *mockPlaylistStore) Delete(_ context.Context, id string) error {
	delete(m.songs, id)
	return nil
}

func (m *mockPlaylistStore) List(_ context.Context, activeOnly bool) ([]playlistDomain.Song, error) {
	var list []playlistDomain.Song
	for _, s := range m.songs {
		if activeOnly && !s.IsActive {
			continue
		}
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].PlayOrder < list[j].PlayOrder })
	return list, nil
}

type mockPageStore struct {
	pages map[string]pageDomain.Page
}

func (m *mockPageStore) GetByID(_ context.Context, id string) (pageDomain.Page, error) {
	if p, ok := m.pages[id]; ok {
		return p, nil
	}
	return pageDomain.Page{}, sql.ErrNoRows
}

func (m *mockPageStore) GetBySlug(_ context.Context, slug string) (pageDomain.Page, error) {
	for _, p := range m.pages {
		if p.Slug == slug {
			return p, nil
		}
	}
	return pageDomain.Page{}, sql.ErrNoRows
}

func (m *mockPageStore) Save(_ context.Context, p pageDomain.Page) error {
	if m.pages == nil {
		m.pages = make(map[string]pageDomain.Page)
	}
	m.pages[p.ID] = p
	return nil
}

func (m *mockPageStore) Delete(_ context.Context, id string) error {
	delete(m.pages, id)
	return nil
}

func (m *mockPageStore) List(_ context.Context) ([]pageDomain.Page, error) {
	var list []pageDomain.Page
	for _, p := range m.pages {
		list = append(list, p)
	}
	return list, nil
}

type mockOutboxStore struct {
	entries map[string]outboxDomain.Entry
}

func (m *mockOutboxStore) GetByID(_ context.Context, id string) (outboxDomain.Entry, error) {
	if e, ok := m.entries[id]; ok {
		return e, nil
	}
	return outboxDomain.Entry{}, sql.ErrNoRows
}

func (m *mockOutboxStore) Save(_ context.Context, e outboxDomain.Entry) error {
	if m.entries == nil {
		m.entries = make(map[string]outboxDomain.Entry)
	}
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutboxStore) ListPending(_ context.Context, limit int) ([]outboxDomain.Entry, error) {
	var list []outboxDomain.Entry
	for _, e := range m.entries {
		if e.Status == outboxDomain.StatusPending || e.Status == outboxDomain.StatusRetrying {
			list = append(list, e)
		}
		if len(list) >= limit {
			break
		}
	}
	return list, nil
}

func (m *mockOutboxStore) ListFailed(_ context.Context, limit int) ([]outboxDomain.Entry, error) {
	var list []outboxDomain.Entry
	for _, e := range m.entries {
		if e.Status == outboxDomain.StatusFailed {
			list = append(list, e)
		}
		if len(list) >= limit {
			break
		}
	}
	return list, nil
}

func (m *mockOutboxStore) Delete(_ context.Context, id string) error {
	delete(m.entries, id)
	return nil
}

type mockSender struct {
	sent []email.SendRequest
}

func (m *mockSender) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	m.sent = append(m.sent, req)
	return email.SendResult{MessageID: "msg_test"}, nil
}

// setupTestStores wires fresh mocks into the package globals.
func setupTestStores(t *testing.T) (*mockProductStore, *mockOrderStore, *mockCartSessionStore, *mockSender) {
	t.Helper()

	products := &mockProductStore{products: make(map[string]productDomain.Product)}
	orders := &mockOrderStore{orders: make(map[string]orderDomain.Order)}
	carts := &mockCartSessionStore{sessions: make(map[string]cartSessionStore.Session)}
	sender := &mockSender{}

	stores = &Stores{
		AccountStore:     &mockAccountStore{accounts: make(map[string]accountDomain.Account)},
		ProductStore:     products,
		CategoryStore:    &mockCategoryStore{categories: make(map[string]categoryDomain.Category)},
		BrandStore:       &mockBrandStore{brands: make(map[string]brandDomain.Brand)},
		OrderStore:       orders,
		CartSessionStore: carts,
		PlaylistStore:    &mockPlaylistStore{songs: make(map[string]playlistDomain.Song)},
		PageStore:        &mockPageStore{pages: make(map[string]pageDomain.Page)},
		OutboxStore:      &mockOutboxStore{entries: make(map[string]outboxDomain.Entry)},
	}
	sessions = middleware.NewSessionStore()
	SetEmailSender(sender, "Bagsberry <orders@bagsberry.test>", "hello@bagsberry.test")
	resetPlayer()
	return products, orders, carts, sender
}

func seedCatalog(products *mockProductStore) {
	products.products["p1"] = productDomain.Product{
		ID: "p1", Name: "Canvas Tote", Description: "Everyday carry",
		Price: 49.99, CategoryID: "c1", StockQuantity: 10,
	}
	products.products["p2"] = productDomain.Product{
		ID: "p2", Name: "Mini Crossbody", Description: "Compact leather bag",
		Price: 89.00, SalePrice: 59.00, CategoryID: "c2", StockQuantity: 5,
	}
}

// --- Catalog ---

// TestHandleProducts verifies the catalog endpoint applies the filter
// pipeline.
func TestHandleProducts(t *testing.T) {
	products, _, _, _ := setupTestStores(t)
	seedCatalog(products)

	req := httptest.NewRequest("GET", "/api/products?q=tote", nil)
	rec := httptest.NewRecorder()
	handleProducts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Products []productDomain.Product
		PageInfo listutil.PageInfo
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Products) != 1 || resp.Products[0].ID != "p1" {
		t.Errorf("products = %+v", resp.Products)
	}
	if resp.PageInfo.Total != 1 {
		t.Errorf("page info = %+v", resp.PageInfo)
	}
}

// TestHandleProductGet verifies single product lookup and 404s.
func TestHandleProductGet(t *testing.T) {
	products, _, _, _ := setupTestStores(t)
	seedCatalog(products)

	req := httptest.NewRequest("GET", "/api/products/get?id=p2", nil)
	rec := httptest.NewRecorder()
	handleProductGet(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/api/products/get?id=nope", nil)
	rec = httptest.NewRecorder()
	handleProductGet(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// --- Cart ---

func cartCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == CartCookieName {
			return c
		}
	}
	return nil
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) cartResponse {
	t.Helper()
	var resp cartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	return resp
}

// TestCartFlow walks add, update and remove through the HTTP surface,
// carrying the cart cookie between requests.
func TestCartFlow(t *testing.T) {
	products, _, carts, _ := setupTestStores(t)
	seedCatalog(products)

	// Add two totes. Price comes from the catalog, not the client.
	req := httptest.NewRequest("POST", "/api/cart/add",
		strings.NewReader(`{"product_id":"p1","quantity":2}`))
	rec := httptest.NewRecorder()
	handleCartAdd(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d, body %s", rec.Code, rec.Body.String())
	}
	cookie := cartCookie(rec)
	if cookie == nil {
		t.Fatal("no cart cookie set")
	}
	resp := decodeCart(t, rec)
	if resp.ItemCount != 2 || resp.Total != 99.98 {
		t.Errorf("cart after add = %+v", resp)
	}

	// Sale price is the effective unit price.
	req = httptest.NewRequest("POST", "/api/cart/add",
		strings.NewReader(`{"product_id":"p2","quantity":1}`))
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	handleCartAdd(rec, req)
	resp = decodeCart(t, rec)
	if resp.Total != 99.98+59.00 {
		t.Errorf("total = %v, want sale price applied", resp.Total)
	}

	// Clamp to zero removes the line.
	req = httptest.NewRequest("POST", "/api/cart/update",
		strings.NewReader(`{"product_id":"p1","quantity":0}`))
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	handleCartUpdate(rec, req)
	resp = decodeCart(t, rec)
	if len(resp.Items) != 1 || resp.Items[0].ProductID != "p2" {
		t.Errorf("items after clamp = %+v", resp.Items)
	}

	// The cart survives in the session store between requests.
	if len(carts.sessions) != 1 {
		t.Errorf("sessions = %d, want 1", len(carts.sessions))
	}

	// Unknown product is a 404, cart untouched.
	req = httptest.NewRequest("POST", "/api/cart/add",
		strings.NewReader(`{"product_id":"ghost","quantity":1}`))
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	handleCartAdd(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("ghost add status = %d", rec.Code)
	}
}

// --- Checkout ---

// TestHandleOrderCreate verifies checkout drains the server-side cart.
func TestHandleOrderCreate(t *testing.T) {
	products, orders, carts, sender := setupTestStores(t)
	seedCatalog(products)

	// Seed a persisted cart for the token.
	var c cartDomain.Cart
	c.AddItem(cartDomain.LineItem{ProductID: "p1", Name: "Canvas Tote", Price: 49.99, Quantity: 2})
	carts.sessions["tok-1"] = cartSessionStore.Session{Token: "tok-1", Payload: c.Encode(), UpdatedAt: time.Now()}

	body := `{"name":"Asha Patel","email":"asha@example.com","address":"1 High St","city":"Wellington"}`
	req := httptest.NewRequest("POST", "/api/orders/create", strings.NewReader(body))
	req.AddCookie(&http.Cookie{Name: CartCookieName, Value: "tok-1"})
	req = req.WithContext(middleware.ContextWithSession(req.Context(), middleware.Session{
		AccountID: "acct-1", Email: "asha@example.com", Role: accountDomain.RoleCustomer,
	}))
	rec := httptest.NewRecorder()
	handleOrderCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(orders.orders) != 1 {
		t.Fatalf("orders saved = %d, want 1", len(orders.orders))
	}
	for _, o := range orders.orders {
		if o.AccountID != "acct-1" || o.Subtotal != 99.98 {
			t.Errorf("order = %+v", o)
		}
	}
	if _, ok := carts.sessions["tok-1"]; ok {
		t.Error("cart session not cleared after checkout")
	}
	if len(sender.sent) != 1 {
		t.Errorf("emails sent = %d, want 1", len(sender.sent))
	}
	if products.products["p1"].StockQuantity != 8 {
		t.Errorf("stock = %d, want 8", products.products["p1"].StockQuantity)
	}
}

// TestHandleOrderCreate_EmptyCart verifies an empty cart is rejected.
func TestHandleOrderCreate_EmptyCart(t *testing.T) {
	setupTestStores(t)

	body := `{"name":"Asha Patel","email":"asha@example.com","address":"1 High St"}`
	req := httptest.NewRequest("POST", "/api/orders/create", strings.NewReader(body))
	req.AddCookie(&http.Cookie{Name: CartCookieName, Value: "tok-empty"})
	req = req.WithContext(middleware.ContextWithSession(req.Context(), middleware.Session{
		AccountID: "acct-1", Role: accountDomain.RoleCustomer,
	}))
	rec := httptest.NewRecorder()
	handleOrderCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// --- Accounts ---

// TestSignupAndLogin verifies the account endpoints end to end.
func TestSignupAndLogin(t *testing.T) {
	setupTestStores(t)

	req := httptest.NewRequest("POST", "/api/signup",
		strings.NewReader(`{"email":"asha@example.com","password":"correct horse battery","full_name":"Asha Patel"}`))
	rec := httptest.NewRecorder()
	handleSignup(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Duplicate email conflicts.
	req = httptest.NewRequest("POST", "/api/signup",
		strings.NewReader(`{"email":"asha@example.com","password":"other password","full_name":"A"}`))
	rec = httptest.NewRecorder()
	handleSignup(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want 409", rec.Code)
	}

	// Wrong password is a 401.
	req = httptest.NewRequest("POST", "/api/login",
		strings.NewReader(`{"email":"asha@example.com","password":"wrong"}`))
	rec = httptest.NewRecorder()
	handleLogin(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", rec.Code)
	}

	// Right password returns the profile and sets the session cookie.
	req = httptest.NewRequest("POST", "/api/login",
		strings.NewReader(`{"email":"asha@example.com","password":"correct horse battery"}`))
	rec = httptest.NewRecorder()
	handleLogin(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var profile map[string]string
	json.Unmarshal(rec.Body.Bytes(), &profile)
	if profile["full_name"] != "Asha Patel" || profile["role"] != accountDomain.RoleCustomer {
		t.Errorf("profile = %v", profile)
	}
	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("no session cookie set on login")
	}
}

// --- Music player ---

// TestHandlePlaylistReportError verifies a failing song is skipped in
// rotation.
func TestHandlePlaylistReportError(t *testing.T) {
	setupTestStores(t)
	playlists := stores.PlaylistStore.(*mockPlaylistStore)
	playlists.songs["s1"] = playlistDomain.Song{
		ID: "s1", Title: "Song One", YouTubeURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		IsActive: true, PlayOrder: 1,
	}
	playlists.songs["s2"] = playlistDomain.Song{
		ID: "s2", Title: "Song Two", YouTubeURL: "https://youtu.be/abcdefghijk",
		IsActive: true, PlayOrder: 2,
	}

	req := httptest.NewRequest("POST", "/api/playlist/report-error",
		strings.NewReader(`{"song_id":"s1"}`))
	rec := httptest.NewRecorder()
	handlePlaylistReportError(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Next playlistDomain.Song `json:"next"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Next.ID != "s2" {
		t.Errorf("next = %s, want the unreported song", resp.Next.ID)
	}
}

// --- Content pages ---

// TestHandlePage verifies markdown rendering with raw HTML escaped.
func TestHandlePage(t *testing.T) {
	setupTestStores(t)
	pages := stores.PageStore.(*mockPageStore)
	pages.pages["pg1"] = pageDomain.Page{
		ID: "pg1", Slug: "about", Title: "About Bagsberry",
		Body: "## Our story\n\n<script>alert(1)</script>",
	}

	req := httptest.NewRequest("GET", "/pages/about", nil)
	rec := httptest.NewRecorder()
	handlePage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	html := rec.Body.String()
	if !strings.Contains(html, "<h2>Our story</h2>") {
		t.Error("markdown heading not rendered")
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("raw HTML not escaped")
	}

	req = httptest.NewRequest("GET", "/pages/missing", nil)
	rec = httptest.NewRecorder()
	handlePage(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing page status = %d, want 404", rec.Code)
	}
}

// --- Admin ---

// TestHandleAdminOrderStatus verifies lifecycle enforcement over HTTP.
func TestHandleAdminOrderStatus(t *testing.T) {
	_, orders, _, sender := setupTestStores(t)
	orders.orders["o1"] = orderDomain.Order{
		ID:            "o1",
		Items:         []orderDomain.Item{{ID: "i1", ProductID: "p1", Name: "Tote", Price: 49.99, Quantity: 1}},
		Shipping:      orderDomain.ShippingInfo{Name: "Asha", Email: "asha@example.com", Address: "1 High St"},
		Status:        orderDomain.StatusPending,
		PaymentMethod: orderDomain.PaymentMethodCOD,
		PaymentStatus: orderDomain.PaymentStatusPending,
		Subtotal:      49.99,
	}

	req := httptest.NewRequest("POST", "/api/admin/orders/status",
		strings.NewReader(`{"order_id":"o1","status":"confirmed"}`))
	rec := httptest.NewRecorder()
	handleAdminOrderStatus(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if orders.orders["o1"].Status != orderDomain.StatusConfirmed {
		t.Error("order status not updated")
	}
	if len(sender.sent) != 1 {
		t.Errorf("emails = %d, want 1", len(sender.sent))
	}

	// Backward transition conflicts.
	req = httptest.NewRequest("POST", "/api/admin/orders/status",
		strings.NewReader(`{"order_id":"o1","status":"pending"}`))
	rec = httptest.NewRecorder()
	handleAdminOrderStatus(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("backward status = %d, want 409", rec.Code)
	}
}

// TestHandleAdminProducts verifies create + list + delete.
func TestHandleAdminProducts(t *testing.T) {
	products, _, _, _ := setupTestStores(t)

	req := httptest.NewRequest("POST", "/api/admin/products",
		strings.NewReader(`{"name":"Weekender","description":"Big","price":79,"category_id":"c1","stock_quantity":3}`))
	rec := httptest.NewRecorder()
	handleAdminProducts(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(products.products) != 1 {
		t.Fatalf("products = %d, want 1", len(products.products))
	}

	// Validation errors bubble as 400.
	req = httptest.NewRequest("POST", "/api/admin/products",
		strings.NewReader(`{"name":"","price":10,"category_id":"c1"}`))
	rec = httptest.NewRecorder()
	handleAdminProducts(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid create status = %d, want 400", rec.Code)
	}

	var id string
	for pid := range products.products {
		id = pid
	}
	req = httptest.NewRequest("DELETE", "/api/admin/products?id="+id, nil)
	rec = httptest.NewRecorder()
	handleAdminProducts(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if len(products.products) != 0 {
		t.Error("product not deleted")
	}
}

// TestRequireRole verifies the admin routes reject non-admin sessions.
func TestRequireRole(t *testing.T) {
	setupTestStores(t)
	handler := middleware.RequireRole(accountDomain.RoleAdmin)(http.HandlerFunc(handleAdminDashboard))

	req := httptest.NewRequest("GET", "/api/admin/dashboard", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest("GET", "/api/admin/dashboard", nil)
	req = req.WithContext(middleware.ContextWithSession(req.Context(), middleware.Session{
		AccountID: "a1", Role: accountDomain.RoleCustomer,
	}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("customer status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest("GET", "/api/admin/dashboard", nil)
	req = req.WithContext(middleware.ContextWithSession(req.Context(), middleware.Session{
		AccountID: "a2", Role: accountDomain.RoleAdmin,
	}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", rec.Code)
	}
}
