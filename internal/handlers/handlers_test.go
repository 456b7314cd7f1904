package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storebot-admin/internal/auth"
	"storebot-admin/internal/backend"
	"storebot-admin/internal/config"
	"storebot-admin/internal/middleware"
	"storebot-admin/internal/session"
)

const testPassword = "admin123"

const productsJSON = `{"success": true, "products": {
	"p1": {"name": "Netflix Premium", "desc": "4K, 1 month", "sold": 7, "variants": {"v1": {"name": "1 Month", "price": 9.5}}},
	"p2": {"name": "Spotify", "desc": "Family", "sold": 0, "variants": {}}
}}`

// fakeBackend отвечает как backend API и запоминает вызовы.
type fakeBackend struct {
	mu        sync.Mutex
	hits      map[string]int
	posted    map[string]map[string]any
	responses map[string]string
	statuses  map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		hits:   map[string]int{},
		posted: map[string]map[string]any{},
		responses: map[string]string{
			"/health":          `{"status": "ok", "service": "Store Bot API"}`,
			"/api/stats":       `{"success": true, "products": 4, "users": 17, "sold": 9, "stock": 120, "last_updated": "2026-10-18T10:00:00"}`,
			"/api/products":    productsJSON,
			"/api/stock":       `{"success": true, "stock": [{"product_id": "p1", "product_name": "Netflix Premium", "variant_id": "v1", "variant_name": "1 Month", "stock_count": 12}]}`,
			"/api/users":       `{"success": true, "users": [{"user_id": 5001, "username": "alice", "spent": 19, "joined_at": "2026-09-01"}], "count": 1}`,
			"/api/orders":      `{"success": true, "orders": [{"id": "o-1", "user_id": 5001, "username": "alice", "product_id": "p1", "product_name": "Netflix Premium", "variant_id": "v1", "quantity": 2, "total": 19, "trx_id": "TRX-77", "timestamp": "2026-10-01 12:00"}]}`,
			"/api/add_product": `{"success": true, "message": "Product added successfully"}`,
			"/api/add_stock":   `{"success": true, "message": "Added 2 items"}`,
		},
		statuses: map[string]int{},
	}
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.hits[r.URL.Path]++
	if r.Method == http.MethodPost {
		var fields map[string]any
		_ = json.NewDecoder(r.Body).Decode(&fields)
		f.posted[r.URL.Path] = fields
	}
	if status, ok := f.statuses[r.URL.Path]; ok {
		w.WriteHeader(status)
	}
	body, ok := f.responses[r.URL.Path]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		body = `{"error": "Not found"}`
	}
	io.WriteString(w, body)
}

func (f *fakeBackend) set(path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[path] = status
	f.responses[path] = body
}

func (f *fakeBackend) totalHits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.hits {
		n += c
	}
	return n
}

func (f *fakeBackend) hitsFor(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeBackend) postedTo(path string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posted[path]
}

type panel struct {
	t       *testing.T
	srv     *httptest.Server
	backend *fakeBackend
	client  *http.Client
}

type panelOption func(cfg *config.Config, limiter **middleware.LoginRateLimiter)

func withPassword(password string) panelOption {
	return func(cfg *config.Config, limiter **middleware.LoginRateLimiter) {
		cfg.Admin.Password = password
	}
}

func withLoginLimit(rps float64, burst int) panelOption {
	return func(cfg *config.Config, limiter **middleware.LoginRateLimiter) {
		*limiter = middleware.NewLoginRateLimiter(rps, burst)
	}
}

func newPanel(t *testing.T, opts ...panelOption) *panel {
	t.Helper()

	fb := newFakeBackend()
	backendSrv := httptest.NewServer(fb)
	t.Cleanup(backendSrv.Close)

	cfg := &config.Config{
		SiteName:      "Store Bot Admin",
		AppEnv:        "test",
		DatabaseLabel: "MongoDB Atlas",
		Backend:       config.BackendConfig{BaseURL: backendSrv.URL, TimeoutSeconds: 2},
		Session:       config.SessionConfig{CookieName: "test_session", LifetimeMinutes: 30},
		Admin:         config.AdminConfig{Password: testPassword},
	}
	limiter := middleware.NewLoginRateLimiter(1000, 1000)
	for _, opt := range opts {
		opt(cfg, &limiter)
	}

	client := backend.NewClient(cfg.Backend.BaseURL, "", 2*time.Second)
	h, err := NewAppHandlers(cfg, client, auth.NewChecker(cfg.Admin), limiter)
	require.NoError(t, err)

	sm := session.NewManager(cfg, nil)
	srv := httptest.NewServer(sm.LoadAndSave(middleware.InjectSession(sm)(h)))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &panel{
		t:       t,
		srv:     srv,
		backend: fb,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (p *panel) get(query string) (*http.Response, string) {
	p.t.Helper()
	resp, err := p.client.Get(p.srv.URL + "/" + query)
	require.NoError(p.t, err)
	return resp, readBody(p.t, resp)
}

func (p *panel) post(query string, form url.Values) (*http.Response, string) {
	p.t.Helper()
	resp, err := p.client.PostForm(p.srv.URL+"/"+query, form)
	require.NoError(p.t, err)
	return resp, readBody(p.t, resp)
}

func (p *panel) login() {
	p.t.Helper()
	resp, _ := p.post("?action=login", url.Values{"password": {testPassword}})
	require.Equal(p.t, http.StatusSeeOther, resp.StatusCode)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func isLoginPage(body string) bool {
	return strings.Contains(body, `name="password"`) && !strings.Contains(body, `class="nav-link`)
}

func TestGuardShowsLoginForEveryProtectedAction(t *testing.T) {
	p := newPanel(t)

	for _, query := range []string{"", "?action=dashboard", "?action=products", "?action=stock",
		"?action=users", "?action=orders", "?action=add_product", "?action=add_stock", "?action=bogus"} {
		resp, body := p.get(query)
		assert.Equal(t, http.StatusOK, resp.StatusCode, query)
		assert.True(t, isLoginPage(body), "ожидалась страница входа для %q", query)
		assert.NotContains(t, body, "Invalid password!", query)
	}

	resp, body := p.post("?action=add_product", url.Values{"name": {"Netflix"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, isLoginPage(body))

	assert.Zero(t, p.backend.totalHits(), "без входа backend не вызывается")
}

func TestLoginWithCorrectPassword(t *testing.T) {
	p := newPanel(t)

	resp, _ := p.post("?action=login", url.Values{"password": {testPassword}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/?action=dashboard", resp.Header.Get("Location"))

	resp, body := p.get("?action=dashboard")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<h1>Dashboard</h1>")
	assert.False(t, isLoginPage(body))
}

func TestLoginWithWrongPassword(t *testing.T) {
	p := newPanel(t)

	resp, body := p.post("?action=login", url.Values{"password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Invalid password!")
	assert.True(t, isLoginPage(body))

	_, body = p.get("?action=dashboard")
	assert.True(t, isLoginPage(body), "флаг не выставлен после неверного пароля")

	resp, body = p.post("?action=login", url.Values{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Invalid password!")
}

func TestLoginWithLongPassword(t *testing.T) {
	long := strings.Repeat("x", 300)
	p := newPanel(t, withPassword(long))

	resp, _ := p.post("?action=login", url.Values{"password": {long}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/?action=dashboard", resp.Header.Get("Location"))

	resp, _ = p.post("?action=login", url.Values{"password": {long[:299]}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginPageGetHasNoError(t *testing.T) {
	p := newPanel(t)

	resp, body := p.get("?action=login")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, isLoginPage(body))
	assert.NotContains(t, body, "Invalid password!")
}

func TestLoginPageRedirectsWhenAlreadyLoggedIn(t *testing.T) {
	p := newPanel(t)
	p.login()

	resp, _ := p.get("?action=login")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/?action=dashboard", resp.Header.Get("Location"))
}

func TestLoginIsThrottled(t *testing.T) {
	p := newPanel(t, withLoginLimit(0.001, 1))

	resp, _ := p.post("?action=login", url.Values{"password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := p.post("?action=login", url.Values{"password": {testPassword}})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body, "Too many login attempts")

	_, body = p.get("?action=dashboard")
	assert.True(t, isLoginPage(body))
}

func TestLogoutClearsSession(t *testing.T) {
	p := newPanel(t)
	p.login()

	resp, _ := p.get("?action=logout")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/?action=login", resp.Header.Get("Location"))

	_, body := p.get("?action=dashboard")
	assert.True(t, isLoginPage(body))

	// Выход без сессии тоже перенаправляет на вход.
	resp, _ = p.get("?action=logout")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestUnknownActionRendersDashboard(t *testing.T) {
	p := newPanel(t)
	p.login()

	_, dashboard := p.get("?action=dashboard")
	_, unknown := p.get("?action=bogus")
	_, empty := p.get("")

	assert.Equal(t, dashboard, unknown)
	assert.Equal(t, dashboard, empty)
	assert.Contains(t, dashboard, `class="nav-link active" href="/?action=dashboard"`)
}

func TestDashboardShowsStatsAndConnection(t *testing.T) {
	p := newPanel(t)
	p.login()

	_, body := p.get("?action=dashboard")
	assert.Contains(t, body, `<h3 data-stat="products">4</h3>`)
	assert.Contains(t, body, `<h3 data-stat="users">17</h3>`)
	assert.Contains(t, body, `<h3 data-stat="sold">9</h3>`)
	assert.Contains(t, body, `<h3 data-stat="stock">120</h3>`)
	assert.Contains(t, body, "MongoDB Atlas")
	assert.Contains(t, body, `<span class="badge bg-success">Active</span>`)
	assert.Equal(t, 1, p.backend.hitsFor("/api/stats"))
	assert.Equal(t, 1, p.backend.hitsFor("/health"))
}

func TestDashboardShowsFractionalCounters(t *testing.T) {
	p := newPanel(t)
	p.login()
	p.backend.set("/api/stats", http.StatusOK, `{"success": true, "products": 4, "users": 17, "sold": 9.0, "stock": 120}`)

	_, body := p.get("?action=dashboard")
	assert.Contains(t, body, `<h3 data-stat="products">4</h3>`)
	assert.Contains(t, body, `<h3 data-stat="users">17</h3>`)
	assert.Contains(t, body, `<h3 data-stat="sold">9</h3>`)
	assert.Contains(t, body, `<h3 data-stat="stock">120</h3>`)
	assert.NotContains(t, body, "Backend API is not responding")
}

func TestDashboardFallsBackToZeroCounters(t *testing.T) {
	cases := map[string]func(f *fakeBackend){
		"status 500": func(f *fakeBackend) { f.set("/api/stats", http.StatusInternalServerError, `{"error": "boom"}`) },
		"not json":   func(f *fakeBackend) { f.set("/api/stats", http.StatusOK, `<html>`) },
	}
	for name, breakBackend := range cases {
		t.Run(name, func(t *testing.T) {
			p := newPanel(t)
			p.login()
			breakBackend(p.backend)
			p.backend.set("/health", http.StatusServiceUnavailable, `{}`)

			resp, body := p.get("?action=dashboard")
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			for _, stat := range []string{"products", "users", "sold", "stock"} {
				assert.Contains(t, body, `<h3 data-stat="`+stat+`">0</h3>`)
			}
			assert.Contains(t, body, `<span class="badge bg-danger">Unavailable</span>`)
		})
	}
}

func TestDashboardWithBackendDown(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	cfg := &config.Config{SiteName: "Store Bot Admin", DatabaseLabel: "MongoDB Atlas", Backend: config.BackendConfig{BaseURL: deadURL}}
	h, err := NewAppHandlers(cfg, backend.NewClient(deadURL, "", time.Second), auth.NewPlainChecker(testPassword), nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.DashboardPageHandler(rec, httptest.NewRequest(http.MethodGet, "/?action=dashboard", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	for _, stat := range []string{"products", "users", "sold", "stock"} {
		assert.Contains(t, rec.Body.String(), `<h3 data-stat="`+stat+`">0</h3>`)
	}
}

func TestProductsView(t *testing.T) {
	p := newPanel(t)
	p.login()

	_, body := p.get("?action=products")
	assert.Contains(t, body, "Netflix Premium")
	assert.Contains(t, body, "4K, 1 month")
	assert.Contains(t, body, "1 Month - $9.50")
	assert.Less(t, strings.Index(body, "Netflix Premium"), strings.Index(body, "Spotify"))
	assert.Contains(t, body, `class="nav-link active" href="/?action=products"`)

	p.backend.set("/api/products", http.StatusBadGateway, `{"error": "db down"}`)
	resp, body := p.get("?action=products")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "No products yet")
	assert.Contains(t, body, "Backend API is not responding")
}

func TestProductsViewEscapesBackendData(t *testing.T) {
	p := newPanel(t)
	p.login()
	p.backend.set("/api/products", http.StatusOK, `{"products": {"x": {"name": "<script>alert(1)</script>", "desc": "", "sold": 0, "variants": {}}}}`)

	_, body := p.get("?action=products")
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestStockUsersOrdersViews(t *testing.T) {
	p := newPanel(t)
	p.login()

	_, body := p.get("?action=stock")
	assert.Contains(t, body, "Stock Management")
	assert.Contains(t, body, `<span class="badge bg-success">12</span>`)

	_, body = p.get("?action=users")
	assert.Contains(t, body, "5001")
	assert.Contains(t, body, "@alice")
	assert.Contains(t, body, "$19.00")

	_, body = p.get("?action=orders")
	assert.Contains(t, body, "o-1")
	assert.Contains(t, body, "TRX-77")

	for _, path := range []string{"/api/stock", "/api/users", "/api/orders"} {
		p.backend.set(path, http.StatusInternalServerError, `{}`)
	}
	for _, q := range []string{"?action=stock", "?action=users", "?action=orders"} {
		resp, body := p.get(q)
		assert.Equal(t, http.StatusOK, resp.StatusCode, q)
		assert.Contains(t, body, "Backend API is not responding", q)
	}
}

func TestAddProductBanners(t *testing.T) {
	p := newPanel(t)
	p.login()

	_, body := p.get("?action=add_product")
	assert.Contains(t, body, "<h1>Add Product</h1>")
	assert.NotContains(t, body, "Product added successfully!")
	assert.Zero(t, p.backend.hitsFor("/api/add_product"))

	form := url.Values{
		"name":        {"Netflix"},
		"description": {"1 month"},
		"variants":    {`{"var_1": {"name": "Basic", "price": 10}}`},
		"csrf_token":  {"ignored"},
	}
	resp, body := p.post("?action=add_product", form)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `<div class="alert alert-success">Product added successfully!</div>`)
	assert.Equal(t, map[string]any{
		"name":        "Netflix",
		"description": "1 month",
		"variants":    `{"var_1": {"name": "Basic", "price": 10}}`,
	}, p.backend.postedTo("/api/add_product"))

	p.backend.set("/api/add_product", http.StatusOK, `{"success": false, "error": "Missing required fields"}`)
	_, body = p.post("?action=add_product", url.Values{"name": {"x"}})
	assert.Contains(t, body, `<div class="alert alert-danger">Error adding product.</div>`)
	assert.NotContains(t, body, "Product added successfully!")

	p.backend.set("/api/add_product", http.StatusInternalServerError, `oops`)
	_, body = p.post("?action=add_product", url.Values{"name": {"x"}})
	assert.Contains(t, body, "Error adding product.")
}

func TestAddProductForwardsRepeatedFields(t *testing.T) {
	p := newPanel(t)
	p.login()

	_, body := p.post("?action=add_product", url.Values{
		"name": {"A"},
		"tag":  {"x", "y"},
	})
	assert.Contains(t, body, "Product added successfully!")
	assert.Equal(t, map[string]any{
		"name": "A",
		"tag":  []any{"x", "y"},
	}, p.backend.postedTo("/api/add_product"))
}

func TestAddStockFormAndSubmit(t *testing.T) {
	p := newPanel(t)
	p.login()

	_, body := p.get("?action=add_stock")
	assert.Contains(t, body, `<option value="p1">Netflix Premium</option>`)
	assert.Contains(t, body, `<option value="v1">1 Month - $9.50</option>`)

	resp, body := p.post("?action=add_stock", url.Values{
		"product_id": {"p1"},
		"variant_id": {"v1"},
		"stock_data": {"acc1:pw1\nacc2:pw2"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Stock added successfully!")
	assert.Equal(t, "acc1:pw1\nacc2:pw2", p.backend.postedTo("/api/add_stock")["stock_data"])

	p.backend.set("/api/add_stock", http.StatusOK, `{"success": false, "error": "Variant not found"}`)
	_, body = p.post("?action=add_stock", url.Values{"product_id": {"p1"}})
	assert.Contains(t, body, "Error adding stock.")
}

func TestUnknownPathIsNotFound(t *testing.T) {
	p := newPanel(t)
	resp, _ := p.get("admin.php")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNavMarksResolvedAction(t *testing.T) {
	items := navFor(ActionOrders)
	active := 0
	for _, item := range items {
		if item.Active {
			active++
			assert.Equal(t, ActionOrders, item.Action)
		}
	}
	assert.Equal(t, 1, active)
	assert.False(t, navItems[4].Active, "navFor не меняет общий срез")
}
