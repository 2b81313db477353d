// Package ratelimit, chat servisinin iki in-memory rate limiter'ını barındırır:
// login brute-force koruması (IP bazlı) ve mesaj spam koruması (kullanıcı bazlı).
//
// Neden in-memory?
// Servis tek instance deploy edilir — sayaçları SQLite'a veya Redis'e taşımak
// her denemede ekstra I/O demekti, paylaşılacak ikinci bir instance da yok.
// Process restart'ında sayaçların sıfırlanması kabul edilebilir bir taviz.
//
// Paket bilinçli olarak leaf dependency'dir: proje içi hiçbir paketi import
// etmez, hem handlers hem ws katmanı cycle riski olmadan kullanabilir.
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// bucket, bir IP için deneme sayacı ve pencere başlangıcı tutar.
// Pencere dolunca sayaç sıfırdan başlar (fixed window).
type bucket struct {
	count       int
	windowStart time.Time
}

// LoginRateLimiter, POST /api/auth/login için IP bazlı deneme sınırı.
//
// Akış: her deneme Allow ile sayılır; pencere içinde maxAttempts aşılırsa
// handler 429 döner. Başarılı girişte handler Reset çağırır — doğru şifreyi
// bilen meşru kullanıcı bir sonraki oturumunda bloke olmaz.
type LoginRateLimiter struct {
	mu          sync.RWMutex
	buckets     map[string]*bucket
	maxAttempts int
	window      time.Duration
	stopCleanup chan struct{}
}

// NewLoginRateLimiter, limiter'ı oluşturur ve süresi dolan bucket'ları silen
// arka plan temizleyicisini başlatır (uzun çalışan süreçte map büyümesin).
func NewLoginRateLimiter(maxAttempts int, window time.Duration) *LoginRateLimiter {
	rl := &LoginRateLimiter{
		buckets:     make(map[string]*bucket),
		maxAttempts: maxAttempts,
		window:      window,
		stopCleanup: make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Allow, IP'nin yeni bir login denemesine izin verilip verilmediğini döner.
// Her çağrı sayacı artırır — deneme başarısız da olsa sayılır.
func (rl *LoginRateLimiter) Allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[ip]
	if !exists {
		rl.buckets[ip] = &bucket{count: 1, windowStart: now}
		return true
	}

	if now.Sub(b.windowStart) > rl.window {
		// Pencere doldu — sayaç sıfırdan başlar
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	return b.count <= rl.maxAttempts
}

// Reset, başarılı login sonrası IP'nin sayacını siler.
func (rl *LoginRateLimiter) Reset(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, ip)
}

// RetryAfterSeconds, limit aşan IP'nin kaç saniye beklemesi gerektiğini döner.
// Handler bunu Retry-After header'ı olarak yazar.
func (rl *LoginRateLimiter) RetryAfterSeconds(ip string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	b, exists := rl.buckets[ip]
	if !exists {
		return 0
	}

	remaining := rl.window - time.Since(b.windowStart)
	if remaining < 0 {
		return 0
	}
	// Yukarı yuvarla — client bir saniye eksik bekleyip yine 429 yememeli
	return int(remaining.Seconds()) + 1
}

// Stop, arka plan temizleyicisini durdurur (graceful shutdown).
func (rl *LoginRateLimiter) Stop() {
	close(rl.stopCleanup)
}

func (rl *LoginRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *LoginRateLimiter) cleanup() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, b := range rl.buckets {
		if now.Sub(b.windowStart) > rl.window {
			delete(rl.buckets, ip)
		}
	}
}

// ExtractIP, request'ten client IP'sini çıkarır.
//
// Servis production'da reverse proxy arkasında çalışır — RemoteAddr o durumda
// proxy'nin adresidir. Öncelik: X-Forwarded-For'un ilk değeri (asıl client),
// sonra X-Real-IP, en son doğrudan bağlantının RemoteAddr'ı.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// "client, proxy1, proxy2" — ilk eleman asıl client
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// FormatRetryMessage, saniye cinsinden bekleme süresini kullanıcıya
// gösterilecek metne çevirir ("45 second(s)", "2 minute(s)").
func FormatRetryMessage(seconds int) string {
	if seconds >= 60 {
		return fmt.Sprintf("%d minute(s)", seconds/60)
	}
	return fmt.Sprintf("%d second(s)", seconds)
}
