package web

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"bagsberry/internal/adapters/http/middleware"
	"bagsberry/internal/application/listutil"
	"bagsberry/internal/application/orchestrators"
	"bagsberry/internal/application/projections"
	"bagsberry/internal/domain/catalog"
	playlistDomain "bagsberry/internal/domain/playlist"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is dropped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON encodes v as the JSON response body.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// --- Catalog ---

// handleProducts handles GET /api/products.
// Query params: q, category, sort (catalog pipeline), page, per_page.
func handleProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	result, err := projections.QueryGetCatalogPage(r.Context(), projections.GetCatalogPageQuery{
		Filter: catalog.ParseFilterState(q),
		Paging: listutil.ParsePagination(q),
	}, projections.GetCatalogPageDeps{
		ProductStore:  stores.ProductStore,
		CategoryStore: stores.CategoryStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, result)
}

// handleProductGet handles GET /api/products/get?id=
func handleProductGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	p, err := stores.ProductStore.GetByID(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, p)
}

// handleCategories handles GET /api/categories.
func handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	categories, err := stores.CategoryStore.List(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, categories)
}

// handleBrands handles GET /api/brands.
func handleBrands(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	brands, err := stores.BrandStore.List(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, brands)
}

// --- Accounts ---

// handleSignup handles POST /api/signup.
func handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	input := orchestrators.CreateAccountInput{
		Email:    body.Email,
		Password: body.Password,
		FullName: body.FullName,
	}
	id, err := orchestrators.ExecuteCreateAccount(r.Context(), input, orchestrators.CreateAccountDeps{
		AccountStore: stores.AccountStore,
	})
	if err == orchestrators.ErrEmailAlreadyExists {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Sign the new account in immediately.
	a, err := stores.AccountStore.GetByID(r.Context(), id)
	if err != nil {
		internalError(w, err)
		return
	}
	token, err := sessions.Create(a.ID, a.Email, a.FullName, a.Role)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]string{"id": id})
}

// handleLogin handles POST /api/login.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    body.Email,
		Password: body.Password,
	}, orchestrators.LoginDeps{AccountStore: stores.AccountStore})
	if err == orchestrators.ErrAccountLocked {
		http.Error(w, err.Error(), http.StatusTooManyRequests)
		return
	}
	if err != nil {
		http.Error(w, "invalid email or password", http.StatusUnauthorized)
		return
	}

	token, err := sessions.Create(result.AccountID, result.Email, result.FullName, result.Role)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)

	writeJSON(w, map[string]string{
		"id":        result.AccountID,
		"email":     result.Email,
		"full_name": result.FullName,
		"role":      result.Role,
	})
}

// handleLogout handles POST /api/logout.
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleMe handles GET /api/me.
func handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]string{
		"id":        sess.AccountID,
		"email":     sess.Email,
		"full_name": sess.FullName,
		"role":      sess.Role,
	})
}

// --- Music player ---

// player rotates through the active playlist, skipping songs reported as
// failing. It is rebuilt lazily after any admin playlist change.
var (
	playerMu sync.Mutex
	player   *playlistDomain.Player
)

// getPlayer returns the shared player, building it from the store on first use.
func getPlayer(r *http.Request) (*playlistDomain.Player, error) {
	playerMu.Lock()
	defer playerMu.Unlock()
	if player == nil {
		songs, err := stores.PlaylistStore.List(r.Context(), true)
		if err != nil {
			return nil, err
		}
		player = playlistDomain.NewPlayer(songs)
	}
	return player, nil
}

// resetPlayer drops the shared player so the next request rebuilds it.
func resetPlayer() {
	playerMu.Lock()
	player = nil
	playerMu.Unlock()
}

// handlePlaylist handles GET /api/playlist: active songs in play order plus
// the song the shared player is currently on.
func handlePlaylist(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	songs, err := stores.PlaylistStore.List(r.Context(), true)
	if err != nil {
		internalError(w, err)
		return
	}

	p, err := getPlayer(r)
	if err != nil {
		internalError(w, err)
		return
	}

	resp := map[string]any{"songs": songs}
	if current, ok := p.Current(); ok {
		resp["current"] = current
	}
	writeJSON(w, resp)
}

// handlePlaylistReportError handles POST /api/playlist/report-error.
// The reported song is skipped on future rotations until every song has
// failed, at which point the failed set resets.
func handlePlaylistReportError(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		SongID string `json:"song_id"`
	}
	if err := strictDecode(r, &body); err != nil || body.SongID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := getPlayer(r)
	if err != nil {
		internalError(w, err)
		return
	}
	p.ReportError(body.SongID)
	slog.Info("playlist_event", "event", "song_reported", "song_id", body.SongID)

	next, err := p.Next()
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"next": next})
}

// --- Content pages ---

// pageTmpl renders a markdown content page as a minimal HTML document.
var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} · Bagsberry</title>
<link rel="stylesheet" href="/storefront.css">
</head>
<body>
<main class="content-page">
<h1>{{.Title}}</h1>
{{.Body}}
</main>
</body>
</html>
`))

// handlePage handles GET /pages/{slug}: renders the stored markdown body.
func handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	slug := strings.TrimPrefix(r.URL.Path, "/pages/")
	slug = strings.Trim(slug, "/")
	if slug == "" || strings.Contains(slug, "/") {
		http.NotFound(w, r)
		return
	}

	p, err := stores.PageStore.GetBySlug(r.Context(), slug)
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(p.Body), &buf); err != nil {
		internalError(w, fmt.Errorf("render page %s: %w", slug, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	pageTmpl.Execute(w, map[string]any{
		"Title": p.Title,
		"Body":  template.HTML(buf.String()),
	})
}
