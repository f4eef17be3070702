package web

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"bagsberry/internal/adapters/http/middleware"
	cartSessionStore "bagsberry/internal/adapters/storage/cartsession"
	"bagsberry/internal/application/cartstore"
	"bagsberry/internal/application/listutil"
	"bagsberry/internal/application/orchestrators"
	"bagsberry/internal/application/projections"
	"bagsberry/internal/domain/cart"
	orderDomain "bagsberry/internal/domain/order"
)

// CartCookieName identifies the anonymous cart session.
const CartCookieName = "bagsberry_cart"

// cartCookieMaxAge keeps abandoned carts for 30 days.
const cartCookieMaxAge = 30 * 24 * 60 * 60

// cartToken returns the request's cart token, minting one (and setting the
// cookie) when absent.
func cartToken(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(CartCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	token := generateID()
	http.SetCookie(w, &http.Cookie{
		Name:     CartCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   middleware.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   cartCookieMaxAge,
	})
	return token
}

// cartEngine builds a hydrated cart engine bound to the request's token.
// Each request hydrates from the session row, so concurrent devices sharing
// a token converge on the last write.
func cartEngine(r *http.Request, token string) *cartstore.Store {
	accountID := ""
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		accountID = sess.AccountID
	}
	engine := cartstore.New(cartSessionStore.NewPersistence(stores.CartSessionStore, token, accountID), slog.Default())
	engine.Hydrate()
	return engine
}

// cartResponse is the JSON shape every cart endpoint returns.
type cartResponse struct {
	Items     []cart.LineItem `json:"items"`
	Total     float64         `json:"total"`
	ItemCount int             `json:"item_count"`
}

func writeCart(w http.ResponseWriter, engine *cartstore.Store) {
	snap := engine.Snapshot()
	items := snap.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	writeJSON(w, cartResponse{
		Items:     items,
		Total:     engine.Total(),
		ItemCount: engine.ItemCount(),
	})
}

// handleCart handles GET /api/cart.
func handleCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeCart(w, cartEngine(r, cartToken(w, r)))
}

// handleCartAdd handles POST /api/cart/add.
// Name, price and image are denormalized from the catalog at add time; the
// client only names the product and quantity.
func handleCartAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := strictDecode(r, &body); err != nil || body.ProductID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Quantity <= 0 {
		body.Quantity = 1
	}

	p, err := stores.ProductStore.GetByID(r.Context(), body.ProductID)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	engine := cartEngine(r, cartToken(w, r))
	engine.AddItem(cart.LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.EffectivePrice(),
		ImageURL:  p.ImageURL,
	}, body.Quantity)
	writeCart(w, engine)
}

// handleCartUpdate handles POST /api/cart/update. Quantity <= 0 removes
// the line.
func handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := strictDecode(r, &body); err != nil || body.ProductID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	engine := cartEngine(r, cartToken(w, r))
	engine.UpdateQuantity(body.ProductID, body.Quantity)
	writeCart(w, engine)
}

// handleCartRemove handles POST /api/cart/remove.
func handleCartRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		ProductID string `json:"product_id"`
	}
	if err := strictDecode(r, &body); err != nil || body.ProductID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	engine := cartEngine(r, cartToken(w, r))
	engine.RemoveItem(body.ProductID)
	writeCart(w, engine)
}

// handleCartClear handles POST /api/cart/clear.
func handleCartClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	engine := cartEngine(r, cartToken(w, r))
	engine.Clear()
	writeCart(w, engine)
}

// --- Checkout and order history ---

// checkoutDeps assembles the orchestrator dependencies from the globals.
func checkoutDeps() orchestrators.CheckoutDeps {
	return orchestrators.CheckoutDeps{
		OrderStore:   stores.OrderStore,
		ProductStore: stores.ProductStore,
		CartStore:    stores.CartSessionStore,
		OutboxStore:  stores.OutboxStore,
		EmailSender:  emailSender,
		GenerateID:   generateID,
		Now:          timeNow,
		FromAddress:  emailFromAddress,
		ReplyTo:      emailReplyTo,
	}
}

// handleOrderCreate handles POST /api/orders/create. The order's items come
// from the server-side cart, never the request body; the cart is cleared
// only when the order is persisted.
func handleOrderCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())

	var body struct {
		Name      string   `json:"name"`
		Email     string   `json:"email"`
		Phone     string   `json:"phone"`
		Address   string   `json:"address"`
		City      string   `json:"city"`
		State     string   `json:"state"`
		Zip       string   `json:"zip"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		MapURL    string   `json:"map_url"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token := cartToken(w, r)
	engine := cartEngine(r, token)

	var location *orderDomain.Location
	if body.Latitude != nil && body.Longitude != nil {
		location = &orderDomain.Location{
			Latitude:  *body.Latitude,
			Longitude: *body.Longitude,
			MapURL:    body.MapURL,
		}
	}

	input := orchestrators.CheckoutInput{
		Items: engine.Snapshot().Items,
		Shipping: orderDomain.ShippingInfo{
			Name:    body.Name,
			Email:   body.Email,
			Phone:   body.Phone,
			Address: body.Address,
			City:    body.City,
			State:   body.State,
			Zip:     body.Zip,
		},
		Location:  location,
		AccountID: sess.AccountID,
		CartToken: token,
	}

	o, err := orchestrators.ExecuteCheckout(r.Context(), input, checkoutDeps())
	if err == orchestrators.ErrEmptyCart {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		// Validation failures carry the domain message; anything else is internal.
		if orderValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		internalError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, o)
}

// orderValidationError reports whether err is one of the order model's
// sentinel validation errors.
func orderValidationError(err error) bool {
	for _, sentinel := range []error{
		orderDomain.ErrEmptyCustomerName,
		orderDomain.ErrEmptyCustomerEmail,
		orderDomain.ErrInvalidEmail,
		orderDomain.ErrEmptyAddress,
		orderDomain.ErrNoItems,
		orderDomain.ErrInvalidItem,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// handleOrders handles GET /api/orders: the signed-in customer's history.
func handleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())

	result, err := projections.QueryGetOrderHistory(r.Context(), projections.GetOrderHistoryQuery{
		AccountID: sess.AccountID,
		Paging:    listutil.ParsePagination(r.URL.Query()),
	}, projections.GetOrderHistoryDeps{OrderStore: stores.OrderStore})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, result)
}

// handleOrderGet handles GET /api/orders/get?id=. Customers see only their
// own orders; admins see all.
func handleOrderGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())

	o, err := stores.OrderStore.GetByID(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	if o.AccountID != sess.AccountID && !middleware.IsAdmin(r.Context()) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	writeJSON(w, o)
}
