// cmd/server/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"

	"storebot-admin/internal/auth"
	"storebot-admin/internal/backend"
	"storebot-admin/internal/config"
	"storebot-admin/internal/db"
	"storebot-admin/internal/handlers"
	"storebot-admin/internal/metrics"
	"storebot-admin/internal/middleware"
	"storebot-admin/internal/session"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	if configPath == "-" {
		configPath = ""
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Критическая ошибка: не удалось загрузить конфигурацию: %v\n", err)
		os.Exit(1)
	}

	config.InitLogger(cfg.AppEnv)
	slog.Info("Запуск панели администратора...", "app_env", cfg.AppEnv, "site_name", cfg.SiteName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sessionDB *sql.DB
	if cfg.Session.DSN != "" {
		sessionDB, err = db.Open(ctx, cfg.Session.DSN)
		if err != nil {
			slog.Error("Критическая ошибка: не удалось подключиться к MySQL для сессий", "error", err)
			os.Exit(1)
		}
		defer sessionDB.Close()

		if err := db.RunMigrations(sessionDB, cfg.Session.DBName); err != nil {
			slog.Error("Критическая ошибка: не удалось применить миграции", "error", err)
			os.Exit(1)
		}
	}
	sessionManager := session.NewManager(cfg, sessionDB)

	backendClient := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIKey, cfg.BackendTimeout())
	if err := middleware.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		slog.Error("Критическая ошибка: некорректный список доверенных прокси", "error", err)
		os.Exit(1)
	}
	limiter := middleware.NewLoginRateLimiter(cfg.Security.LoginRPS, cfg.Security.LoginBurst)

	appHandlers, err := handlers.NewAppHandlers(cfg, backendClient, auth.NewChecker(cfg.Admin), limiter)
	if err != nil {
		slog.Error("Критическая ошибка: не удалось инициализировать обработчики страниц", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      routes(cfg, sessionManager, appHandlers, sessionDB),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.BackendTimeout() + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Сервер запущен и слушает", "address", fmt.Sprintf("http://localhost%s", server.Addr))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Критическая ошибка: не удалось запустить HTTP-сервер", "address", server.Addr, "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("Получен сигнал остановки, завершаем запросы...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Ошибка при остановке сервера", "error", err)
		}
	}
	slog.Info("Сервер остановлен")
}

// routes собирает цепочку: request id -> recovery -> лог -> метрики -> CSRF ->
// сессия -> диспетчер панели.
func routes(cfg *config.Config, sm *scs.SessionManager, app *handlers.AppHandlers, sessionDB *sql.DB) http.Handler {
	var panel http.Handler = app
	panel = middleware.InjectSession(sm)(panel)
	panel = sm.LoadAndSave(panel)
	if cfg.CSRFEnabled() {
		panel = middleware.NoSurfMiddleware(panel, cfg.IsProduction())
	} else {
		slog.Warn("CSRF-защита отключена конфигурацией")
	}
	panel = middleware.Metrics(handlers.ActionLabel)(panel)

	mux := http.NewServeMux()
	mux.Handle("/", panel)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if sessionDB != nil {
			if err := db.Ping(r.Context(), sessionDB); err != nil {
				slog.WarnContext(r.Context(), "Проверка здоровья: MySQL недоступен", "error", err)
				http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsEnabled() {
		mux.Handle("/metrics", metrics.Handler())
	}

	logger := slog.Default()
	return middleware.RequestID(middleware.Recovery(logger)(middleware.Logger(logger)(mux)))
}
