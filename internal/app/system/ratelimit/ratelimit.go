// Package ratelimit counts requests per key in fixed windows. Limiter keeps
// the counters in process memory; RedisLimiter shares them across replicas.
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Checker is implemented by both limiters.
type Checker interface {
	Check(ctx context.Context, key string) (bool, error)
}

// Limiter is an in-memory fixed-window limiter, safe for concurrent use.
type Limiter struct {
	limit  int
	window time.Duration

	mu    sync.Mutex
	count map[string]int
	reset map[string]time.Time // when each key's window ends
}

// New allows limit hits per key per window. Expired keys are swept every
// two windows.
func New(limit int, window time.Duration) *Limiter {
	l := &Limiter{
		limit:  limit,
		window: window,
		count:  make(map[string]int),
		reset:  make(map[string]time.Time),
	}
	go l.sweep(2 * window)
	return l
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if end, ok := l.reset[key]; !ok || now.After(end) {
		l.count[key] = 0
		l.reset[key] = now.Add(l.window)
	}
	if l.count[key] >= l.limit {
		return false
	}
	l.count[key]++
	return true
}

// Check implements Checker.
func (l *Limiter) Check(_ context.Context, key string) (bool, error) {
	return l.Allow(key), nil
}

// Reset clears the counter for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.count, key)
	delete(l.reset, key)
	l.mu.Unlock()
}

func (l *Limiter) sweep(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for now := range t.C {
		l.mu.Lock()
		for key, end := range l.reset {
			if now.After(end) {
				delete(l.count, key)
				delete(l.reset, key)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// LoginLimiter throttles sign-in attempts per client IP and per email, so
// both spraying from many accounts and guessing one account are slowed.
type LoginLimiter struct {
	byIP    *Limiter
	byEmail *Limiter
}

// NewLoginLimiter allows 10 attempts per IP per minute and 5 per email per
// 5 minutes.
func NewLoginLimiter() *LoginLimiter {
	return NewLoginLimiterWithConfig(10, time.Minute, 5, 5*time.Minute)
}

// NewLoginLimiterWithConfig creates a login limiter with custom limits.
func NewLoginLimiterWithConfig(ipLimit int, ipWindow time.Duration, emailLimit int, emailWindow time.Duration) *LoginLimiter {
	return &LoginLimiter{
		byIP:    New(ipLimit, ipWindow),
		byEmail: New(emailLimit, emailWindow),
	}
}

// Check records an attempt. When it is refused, reason is a message safe
// to show the user.
func (ll *LoginLimiter) Check(r *http.Request, email string) (ok bool, reason string) {
	if !ll.byIP.Allow(ClientIP(r)) {
		return false, "Too many login attempts. Please wait a minute before trying again."
	}
	if key := emailKey(email); key != "" && !ll.byEmail.Allow(key) {
		return false, "Too many login attempts for this account. Please wait a few minutes."
	}
	return true, ""
}

// ResetEmail clears the per-email counter after a successful sign-in.
func (ll *LoginLimiter) ResetEmail(email string) {
	if key := emailKey(email); key != "" {
		ll.byEmail.Reset(key)
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
