// internal/handlers/pages.go
package handlers

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"github.com/justinas/nosurf"

	"storebot-admin/internal/auth"
	"storebot-admin/internal/config"
	"storebot-admin/internal/middleware"
	"storebot-admin/internal/models"
	"storebot-admin/templates"
)

const (
	adminBaseFile = "base_admin.html"
	loginFile     = "login.html"
)

// Backend: операции backend API, которые нужны видам панели.
type Backend interface {
	Stats(ctx context.Context) (*models.Stats, error)
	Products(ctx context.Context) ([]models.Product, error)
	Stock(ctx context.Context) ([]models.StockSummary, error)
	Users(ctx context.Context) ([]models.User, error)
	Orders(ctx context.Context) ([]models.Order, error)
	AddProduct(ctx context.Context, fields map[string]any) (*models.WriteResult, error)
	AddStock(ctx context.Context, fields map[string]any) (*models.WriteResult, error)
	Health(ctx context.Context) (*models.Health, error)
}

type NavItem struct {
	Action Action
	Label  string
	Icon   string
	Active bool
}

var navItems = []NavItem{
	{Action: ActionDashboard, Label: "Dashboard", Icon: "fa-chart-line"},
	{Action: ActionProducts, Label: "Products", Icon: "fa-box"},
	{Action: ActionStock, Label: "Stock", Icon: "fa-warehouse"},
	{Action: ActionUsers, Label: "Users", Icon: "fa-users"},
	{Action: ActionOrders, Label: "Orders", Icon: "fa-shopping-cart"},
}

func navFor(current Action) []NavItem {
	items := make([]NavItem, len(navItems))
	copy(items, navItems)
	for i := range items {
		items[i].Active = items[i].Action == current
	}
	return items
}

type PageData struct {
	SiteName      string
	PageTitle     string
	Action        Action
	Nav           []NavItem
	CSRFToken     string
	CSRFFieldName string
	BackendHost   string
	DatabaseLabel string

	LoginError   string
	FlashSuccess string
	FlashError   string

	// UpstreamError: backend не ответил, вид показывает пустое состояние.
	UpstreamError  bool
	BackendHealthy bool

	Stats    models.Stats
	Products []models.Product
	Stock    []models.StockSummary
	Users    []models.User
	Orders   []models.Order
}

type AppHandlers struct {
	Config  *config.Config
	Backend Backend
	Checker auth.PasswordChecker
	Limiter *middleware.LoginRateLimiter

	backendHost string
	loginTmpl   *template.Template
	pageTmpls   map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"money": func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
}

// parseBaseTemplates загружает базовый шаблон админки и все parts.
func parseBaseTemplates(fsys fs.FS) (*template.Template, error) {
	tmpl, err := template.New(adminBaseFile).Funcs(templateFuncs).ParseFS(fsys, path.Join("admin", adminBaseFile))
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга базового шаблона '%s': %w", adminBaseFile, err)
	}
	tmpl, err = tmpl.ParseFS(fsys, "admin/parts/*.html")
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга частичных шаблонов: %w", err)
	}
	return tmpl, nil
}

// NewAppHandlers разбирает все шаблоны сразу, ошибка любого из них возвращается.
func NewAppHandlers(cfg *config.Config, api Backend, checker auth.PasswordChecker, limiter *middleware.LoginRateLimiter) (*AppHandlers, error) {
	return newAppHandlers(cfg, api, checker, limiter, templates.FS)
}

func newAppHandlers(cfg *config.Config, api Backend, checker auth.PasswordChecker, limiter *middleware.LoginRateLimiter, fsys fs.FS) (*AppHandlers, error) {
	baseTmpl, err := parseBaseTemplates(fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base templates: %w", err)
	}

	pageFiles, err := fs.Glob(fsys, "admin/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска шаблонов страниц: %w", err)
	}
	pageTmpls := make(map[string]*template.Template, len(pageFiles))
	for _, pageFile := range pageFiles {
		tmpl, err := baseTmpl.Clone()
		if err != nil {
			return nil, fmt.Errorf("не удалось клонировать базовый шаблон: %w", err)
		}
		if _, err := tmpl.ParseFS(fsys, pageFile); err != nil {
			return nil, fmt.Errorf("не удалось загрузить шаблон страницы '%s': %w", pageFile, err)
		}
		pageTmpls[path.Base(pageFile)] = tmpl
	}

	loginTmpl, err := template.New(loginFile).Funcs(templateFuncs).ParseFS(fsys, loginFile)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга шаблона входа: %w", err)
	}

	backendHost := cfg.Backend.BaseURL
	if u, err := url.Parse(cfg.Backend.BaseURL); err == nil && u.Host != "" {
		backendHost = u.Host
	}

	slog.Info("Шаблоны панели загружены", "pages", len(pageTmpls))
	return &AppHandlers{
		Config:      cfg,
		Backend:     api,
		Checker:     checker,
		Limiter:     limiter,
		backendHost: backendHost,
		loginTmpl:   loginTmpl,
		pageTmpls:   pageTmpls,
	}, nil
}

func (h *AppHandlers) NewPageData(r *http.Request, action Action) *PageData {
	return &PageData{
		SiteName:      h.Config.SiteName,
		PageTitle:     h.Config.SiteName,
		Action:        action,
		Nav:           navFor(action),
		CSRFToken:     nosurf.Token(r),
		CSRFFieldName: nosurf.FormFieldName,
		BackendHost:   h.backendHost,
		DatabaseLabel: h.Config.DatabaseLabel,
	}
}

// RenderAdminPage рендерит страницу внутри base_admin.html.
func (h *AppHandlers) RenderAdminPage(w http.ResponseWriter, r *http.Request, status int, pageName string, data *PageData) {
	tmpl, ok := h.pageTmpls[pageName]
	if !ok {
		slog.ErrorContext(r.Context(), "Файл шаблона страницы не найден", "page", pageName)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.execute(w, r, tmpl, adminBaseFile, status, data)
}

// RenderLogin рендерит отдельную страницу входа, без меню админки.
func (h *AppHandlers) RenderLogin(w http.ResponseWriter, r *http.Request, status int, loginError string) {
	data := h.NewPageData(r, ActionLogin)
	data.PageTitle = "Admin Login"
	data.LoginError = loginError
	h.execute(w, r, h.loginTmpl, loginFile, status, data)
}

func (h *AppHandlers) execute(w http.ResponseWriter, r *http.Request, tmpl *template.Template, name string, status int, data *PageData) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Ошибка выполнения шаблона", "template", name, "action", data.Action, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.DebugContext(r.Context(), "Клиент закрыл соединение до конца ответа", "error", err)
	}
}
