// internal/middleware/ratelimit.go
package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	clientIdleTTL   = 15 * time.Minute
	cleanupInterval = 10 * time.Minute
)

// clientLimiter хранит лимитер и время последнего обращения для одного IP.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginRateLimiter ограничивает попытки входа с одного IP.
// Старые записи вычищаются при обращениях, без фоновой горутины.
type LoginRateLimiter struct {
	rps   rate.Limit
	burst int
	now   func() time.Time

	mu          sync.Mutex
	clients     map[string]*clientLimiter
	lastCleanup time.Time
}

// NewLoginRateLimiter: rps - разрешенное число попыток в секунду,
// burst - сколько попыток можно сделать подряд.
func NewLoginRateLimiter(rps float64, burst int) *LoginRateLimiter {
	return &LoginRateLimiter{
		rps:         rate.Limit(rps),
		burst:       burst,
		now:         time.Now,
		clients:     make(map[string]*clientLimiter),
		lastCleanup: time.Now(),
	}
}

// Allow списывает одну попытку для IP клиента запроса.
func (l *LoginRateLimiter) Allow(r *http.Request) bool {
	clientIP := ClientIP(r)
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastCleanup) > cleanupInterval {
		for ip, c := range l.clients {
			if now.Sub(c.lastSeen) > clientIdleTTL {
				delete(l.clients, ip)
			}
		}
		l.lastCleanup = now
	}
	c, found := l.clients[clientIP]
	if !found {
		c = &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[clientIP] = c
		slog.Debug("Создан новый лимитер входа", "ip", clientIP, "rps", float64(l.rps), "burst", l.burst)
	}
	c.lastSeen = now
	limiter := c.limiter
	l.mu.Unlock()

	if !limiter.AllowN(now, 1) {
		slog.Warn("Превышен лимит попыток входа", "ip", clientIP)
		return false
	}
	return true
}

func (l *LoginRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

var trustedProxies atomic.Pointer[[]netip.Prefix]

// SetTrustedProxies задает адреса или подсети прокси, которым разрешено
// сообщать адрес клиента через X-Forwarded-For и X-Real-IP.
// Пустой список: заголовкам не верим, берем RemoteAddr.
func SetTrustedProxies(list []string) error {
	prefixes := make([]netip.Prefix, 0, len(list))
	for _, item := range list {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return fmt.Errorf("некорректная подсеть доверенного прокси %q: %w", item, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return fmt.Errorf("некорректный адрес доверенного прокси %q: %w", item, err)
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	trustedProxies.Store(&prefixes)
	return nil
}

func isTrustedProxy(ip string) bool {
	prefixes := trustedProxies.Load()
	if prefixes == nil || len(*prefixes) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range *prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP возвращает адрес клиента. Заголовки X-Forwarded-For и X-Real-IP
// учитываются, только если соединение пришло от доверенного прокси;
// в X-Forwarded-For берется самый правый адрес, не принадлежащий прокси.
func ClientIP(r *http.Request) string {
	remote, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remote = r.RemoteAddr
	}
	if !isTrustedProxy(remote) {
		return remote
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			ip := strings.TrimSpace(hops[i])
			if ip != "" && !isTrustedProxy(ip) {
				return ip
			}
		}
		if ip := strings.TrimSpace(hops[0]); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return remote
}
