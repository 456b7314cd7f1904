// internal/session/session.go
package session

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"storebot-admin/internal/config"
)

// Ключ флага входа администратора в данных сессии.
const adminLoggedInKey = "admin_logged_in"

var ErrNoSession = errors.New("session: менеджер сессий не подключен к запросу")

type contextKey string

const sessionContextKey contextKey = "adminSession"

// NewManager создает менеджер сессий. conn == nil означает хранение в памяти
// процесса, иначе сессии лежат в таблице sessions MySQL.
func NewManager(cfg *config.Config, conn *sql.DB) *scs.SessionManager {
	sm := scs.New()
	storeName := "memstore"
	if conn != nil {
		sm.Store = mysqlstore.New(conn)
		storeName = "mysqlstore"
	} else {
		sm.Store = memstore.New()
	}
	sm.Lifetime = cfg.SessionLifetime()
	sm.Cookie.Name = cfg.Session.CookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Persist = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = cfg.IsProduction()
	sm.Cookie.Path = "/"

	slog.Info("Менеджер сессий инициализирован", "store", storeName, "lifetime", sm.Lifetime, "secure_cookie", sm.Cookie.Secure)
	return sm
}

// Session дает обработчикам доступ только к флагу администратора текущего
// запроса. Создается один раз на запрос внутри LoadAndSave.
type Session struct {
	sm  *scs.SessionManager
	ctx context.Context
}

func New(ctx context.Context, sm *scs.SessionManager) *Session {
	return &Session{sm: sm, ctx: ctx}
}

// IsAdmin сообщает, выставлен ли флаг входа в сессии этого клиента.
func (s *Session) IsAdmin() bool {
	if s == nil || s.sm == nil {
		return false
	}
	return s.sm.GetBool(s.ctx, adminLoggedInKey)
}

// LogIn меняет токен сессии и только потом выставляет флаг.
func (s *Session) LogIn() error {
	if s == nil || s.sm == nil {
		return ErrNoSession
	}
	if err := s.sm.RenewToken(s.ctx); err != nil {
		return err
	}
	s.sm.Put(s.ctx, adminLoggedInKey, true)
	return nil
}

// Destroy удаляет сессию целиком; повторный вызов безопасен.
func (s *Session) Destroy() error {
	if s == nil || s.sm == nil {
		return nil
	}
	return s.sm.Destroy(s.ctx)
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// FromContext возвращает сессию запроса. Без middleware вернется пустая
// сессия, для которой IsAdmin всегда false.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionContextKey).(*Session); ok && s != nil {
		return s
	}
	return &Session{}
}
