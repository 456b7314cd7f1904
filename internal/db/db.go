// internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Панель не хранит своих данных: MySQL нужен только как хранилище сессий.

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open подключается к MySQL по DSN и проверяет соединение.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DSN хранилища сессий не задан")
	}
	dsn = withParam(dsn, "parseTime=true")
	dsn = withParam(dsn, "multiStatements=true")

	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия соединения с MySQL: %w", err)
	}

	conn.SetConnMaxLifetime(time.Minute * 3)
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(10)

	if err := Ping(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	slog.Info("Подключение к MySQL для сессий установлено", "dsn", redactDSN(dsn))
	return conn, nil
}

// Ping проверяет соединение с таймаутом в пять секунд.
func Ping(ctx context.Context, conn *sql.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		return fmt.Errorf("не удалось проверить соединение с MySQL: %w", err)
	}
	return nil
}

// RunMigrations создает таблицу sessions, которую ожидает scs/mysqlstore.
func RunMigrations(conn *sql.DB, dbName string) error {
	driverInstance, err := mysql.WithInstance(conn, &mysql.Config{
		DatabaseName: dbName,
	})
	if err != nil {
		return fmt.Errorf("не удалось создать драйвер миграций mysql: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("не удалось открыть встроенные миграции: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "mysql", driverInstance)
	if err != nil {
		return fmt.Errorf("ошибка создания экземпляра migrate: %w", err)
	}

	slog.Info("Применение миграций хранилища сессий...")
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		version, dirty, verr := m.Version()
		if verr != nil {
			slog.Error("Ошибка получения статуса миграции после неудачного Up", "migration_error", err, "status_error", verr)
		} else {
			slog.Error("Ошибка применения миграций", "current_version", version, "dirty_state", dirty, "error_up", err)
		}
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("Миграции: нет изменений.")
	} else {
		slog.Info("Миграции успешно применены.")
	}
	return nil
}

func withParam(dsn, param string) string {
	key := strings.SplitN(param, "=", 2)[0] + "="
	if strings.Contains(dsn, key) {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}
	return dsn + "?" + param
}

// redactDSN прячет пароль: user:pass@tcp(...) -> user:****@tcp(...).
func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	creds := dsn[:at]
	colon := strings.Index(creds, ":")
	if colon < 0 {
		return dsn
	}
	return creds[:colon] + ":****" + dsn[at:]
}
