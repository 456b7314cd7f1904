// internal/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AdminConfig struct {
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
}

type BackendConfig struct {
	BaseURL        string `yaml:"base_url" validate:"required,url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=1,lte=300"`
}

type SessionConfig struct {
	CookieName      string `yaml:"cookie_name" validate:"required"`
	LifetimeMinutes int    `yaml:"lifetime_minutes" validate:"gte=1"`
	// DSN MySQL-хранилища сессий. Пустой DSN: сессии в памяти процесса.
	DSN    string `yaml:"dsn"`
	DBName string `yaml:"db_name"`
}

type SecurityConfig struct {
	CSRFEnabled *bool   `yaml:"csrf_enabled"`
	LoginRPS    float64 `yaml:"login_rps" validate:"gt=0"`
	LoginBurst  int     `yaml:"login_burst" validate:"gte=1"`
	// Прокси, которым доверяем X-Forwarded-For (IP или CIDR).
	TrustedProxies []string `yaml:"trusted_proxies" validate:"dive,cidr|ip"`
}

type MetricsConfig struct {
	Enabled *bool `yaml:"enabled"`
}

type Config struct {
	SiteName      string         `yaml:"site_name"`
	Port          int            `yaml:"port" validate:"gte=1,lte=65535"`
	AppEnv        string         `yaml:"app_env" validate:"oneof=development production test"`
	DatabaseLabel string         `yaml:"database_label"`
	Admin         AdminConfig    `yaml:"admin"`
	Backend       BackendConfig  `yaml:"backend"`
	Session       SessionConfig  `yaml:"session"`
	Security      SecurityConfig `yaml:"security"`
	Metrics       MetricsConfig  `yaml:"metrics"`
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

// CSRFEnabled по умолчанию включена, отключается только явно.
func (c *Config) CSRFEnabled() bool {
	return c.Security.CSRFEnabled == nil || *c.Security.CSRFEnabled
}

func (c *Config) MetricsEnabled() bool {
	return c.Metrics.Enabled == nil || *c.Metrics.Enabled
}

func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

func (c *Config) SessionLifetime() time.Duration {
	return time.Duration(c.Session.LifetimeMinutes) * time.Minute
}

var validate = validator.New()

func getStringEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
		slog.Warn("Не удалось преобразовать переменную окружения в число, используется значение по умолчанию", "key", key, "value", valueStr)
	}
	return defaultValue
}

// LoadConfig читает YAML-файл (если filename не пуст) и накладывает переменные окружения.
func LoadConfig(filename string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load("configs/.env"); err != nil {
			slog.Debug("configs/.env не найден, используются только системные переменные", "error", err)
		} else {
			slog.Info("Переменные окружения загружены из configs/.env")
		}
	}

	var cfg Config
	if filename != "" {
		file, err := os.Open(filename)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("файл конфигурации не найден: %s", filename)
		}
		if err != nil {
			return nil, fmt.Errorf("ошибка открытия файла конфигурации '%s': %w", filename, err)
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("ошибка декодирования YAML из файла '%s': %w", filename, err)
		}
	}

	cfg.AppEnv = getStringEnvOrDefault("APP_ENV", cfg.AppEnv)
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	isProduction := cfg.IsProduction()

	cfg.Port = getIntEnvOrDefault("PORT", cfg.Port)
	cfg.DatabaseLabel = getStringEnvOrDefault("DATABASE_LABEL", cfg.DatabaseLabel)

	// Секреты администратора в production принимаются только из окружения.
	passwordFromEnv := getStringEnvOrDefault("ADMIN_PASSWORD", "")
	hashFromEnv := getStringEnvOrDefault("ADMIN_PASSWORD_HASH", "")
	if isProduction && passwordFromEnv == "" && hashFromEnv == "" {
		slog.Error("КРИТИЧЕСКАЯ ОШИБКА: ADMIN_PASSWORD или ADMIN_PASSWORD_HASH должен быть установлен в переменных окружения для production")
		return nil, fmt.Errorf("ADMIN_PASSWORD или ADMIN_PASSWORD_HASH должен быть установлен в переменных окружения для production")
	}
	if passwordFromEnv != "" {
		cfg.Admin.Password = passwordFromEnv
	}
	if hashFromEnv != "" {
		cfg.Admin.PasswordHash = hashFromEnv
	}
	if cfg.Admin.Password == "" && cfg.Admin.PasswordHash == "" {
		return nil, fmt.Errorf("пароль администратора не задан (admin.password, ADMIN_PASSWORD или ADMIN_PASSWORD_HASH)")
	}

	cfg.Backend.BaseURL = getStringEnvOrDefault("BACKEND_BASE_URL", cfg.Backend.BaseURL)
	cfg.Backend.BaseURL = strings.TrimSuffix(strings.TrimSpace(cfg.Backend.BaseURL), "/")
	cfg.Backend.APIKey = getStringEnvOrDefault("BACKEND_API_KEY", cfg.Backend.APIKey)
	cfg.Backend.TimeoutSeconds = getIntEnvOrDefault("BACKEND_TIMEOUT_SECONDS", cfg.Backend.TimeoutSeconds)
	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("backend.base_url (BACKEND_BASE_URL) не задан")
	}
	if !strings.HasPrefix(cfg.Backend.BaseURL, "http://") && !strings.HasPrefix(cfg.Backend.BaseURL, "https://") {
		return nil, fmt.Errorf("backend.base_url должен начинаться с http:// или https://: %s", cfg.Backend.BaseURL)
	}

	cfg.Session.DSN = getStringEnvOrDefault("SESSION_DSN", cfg.Session.DSN)
	cfg.Session.DBName = getStringEnvOrDefault("SESSION_DB_NAME", cfg.Session.DBName)
	cfg.Session.LifetimeMinutes = getIntEnvOrDefault("SESSION_LIFETIME_MINUTES", cfg.Session.LifetimeMinutes)

	if proxies := getStringEnvOrDefault("TRUSTED_PROXIES", ""); proxies != "" {
		cfg.Security.TrustedProxies = nil
		for _, p := range strings.Split(proxies, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Security.TrustedProxies = append(cfg.Security.TrustedProxies, p)
			}
		}
	}

	applyDefaults(&cfg)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("некорректная конфигурация: %w", err)
	}
	if cfg.Session.DSN != "" && cfg.Session.DBName == "" {
		return nil, fmt.Errorf("session.db_name (SESSION_DB_NAME) обязателен при заданном SESSION_DSN")
	}
	if isProduction && !cfg.CSRFEnabled() {
		slog.Warn("CSRF-защита отключена в production")
	}

	slog.Info("Конфигурация загружена",
		"app_env", cfg.AppEnv,
		"port", cfg.Port,
		"backend_base_url", cfg.Backend.BaseURL,
		"session_store", sessionStoreName(&cfg),
		"password_mode", passwordMode(&cfg))
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.SiteName == "" {
		cfg.SiteName = "Store Bot Admin"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.DatabaseLabel == "" {
		cfg.DatabaseLabel = "MongoDB Atlas"
	}
	if cfg.Backend.TimeoutSeconds <= 0 {
		cfg.Backend.TimeoutSeconds = 10
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "storebot_admin_session"
	}
	if cfg.Session.LifetimeMinutes <= 0 {
		cfg.Session.LifetimeMinutes = 12 * 60
	}
	if cfg.Security.LoginRPS <= 0 {
		cfg.Security.LoginRPS = 0.2
	}
	if cfg.Security.LoginBurst <= 0 {
		cfg.Security.LoginBurst = 5
	}
}

func sessionStoreName(cfg *Config) string {
	if cfg.Session.DSN != "" {
		return "mysqlstore"
	}
	return "memstore"
}

func passwordMode(cfg *Config) string {
	if cfg.Admin.PasswordHash != "" {
		return "bcrypt"
	}
	return "plain"
}

func InitLogger(appEnv string) {
	var logger *slog.Logger
	logLevel := slog.LevelInfo

	if appEnv == "development" {
		logLevel = slog.LevelDebug
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: false,
		}))
	}
	slog.SetDefault(logger)
}
