// MessageRateLimiter — message:send spam koruması.
//
// Login limiter'dan iki farkı vardır:
//   - Key userID'dir, IP değil: WS bağlantısı zaten authenticated'dır ve
//     aynı kullanıcının tüm tab'ları TEK bütçeden düşmelidir.
//   - Pencere ve ceza süresi ayrıdır: kısa pencere (5sn'de 5 mesaj) aşılınca
//     daha uzun bir cooldown (15sn) başlar ve bitene kadar hiçbir mesaj geçmez.
//     Login limiter'da ceza, kalan pencere süresinin kendisidir.
package ratelimit

import (
	"sync"
	"time"
)

// messageBucket iki durumludur: normal modda pencere sayacı işler,
// cooldown modunda (cooldownUntil dolu) her mesaj reddedilir.
type messageBucket struct {
	count         int
	windowStart   time.Time
	cooldownUntil time.Time // zero value = cooldown yok
}

// MessageRateLimiter, kullanıcı bazlı mesaj gönderim sınırı.
// Tüm WS client'ları aynı instance'ı paylaşır (wire-up'ta tek kez oluşturulur).
type MessageRateLimiter struct {
	mu          sync.RWMutex
	buckets     map[string]*messageBucket
	maxMessages int
	window      time.Duration
	cooldown    time.Duration
	stopCleanup chan struct{}
}

// NewMessageRateLimiter, limiter'ı oluşturur ve arka plan temizleyicisini başlatır.
//
// maxMessages/window: pencere bütçesi (ör: 5 mesaj / 5 saniye).
// cooldown: bütçe aşılınca uygulanan ceza süresi (ör: 15 saniye).
func NewMessageRateLimiter(maxMessages int, window, cooldown time.Duration) *MessageRateLimiter {
	rl := &MessageRateLimiter{
		buckets:     make(map[string]*messageBucket),
		maxMessages: maxMessages,
		window:      window,
		cooldown:    cooldown,
		stopCleanup: make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Allow, kullanıcının mesaj göndermesine izin verilip verilmediğini döner.
// false dönerse çağıran taraf CooldownSeconds ile bekleme süresini alıp
// message:error üretir.
func (rl *MessageRateLimiter) Allow(userID string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[userID]
	if !exists {
		rl.buckets[userID] = &messageBucket{count: 1, windowStart: now}
		return true
	}

	// Cooldown sürüyor — pencereye bakılmaz, direkt reddet
	if !b.cooldownUntil.IsZero() && now.Before(b.cooldownUntil) {
		return false
	}

	// Cooldown bitti — temiz pencereyle devam
	if !b.cooldownUntil.IsZero() {
		b.count = 1
		b.windowStart = now
		b.cooldownUntil = time.Time{}
		return true
	}

	if now.Sub(b.windowStart) > rl.window {
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	if b.count > rl.maxMessages {
		b.cooldownUntil = now.Add(rl.cooldown)
		return false
	}

	return true
}

// CooldownSeconds, kullanıcının kalan cooldown süresini saniye olarak döner.
// Cooldown yoksa 0.
func (rl *MessageRateLimiter) CooldownSeconds(userID string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	b, exists := rl.buckets[userID]
	if !exists || b.cooldownUntil.IsZero() {
		return 0
	}

	remaining := time.Until(b.cooldownUntil)
	if remaining <= 0 {
		return 0
	}

	// Yukarı yuvarla — client süreyi eksik bekleyip tekrar reddedilmesin
	return int(remaining.Seconds()) + 1
}

// Stop, arka plan temizleyicisini durdurur (graceful shutdown).
func (rl *MessageRateLimiter) Stop() {
	close(rl.stopCleanup)
}

// cleanupLoop her 30 saniyede çalışır — mesaj bucket'ları kısa ömürlüdür
// (pencere + cooldown en çok ~20sn), login temizleyicisinden sık tarar.
func (rl *MessageRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(30 * time.Second)
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

// cleanup, hem penceresi hem cooldown'u dolmuş bucket'ları siler —
// cooldown'daki bir kullanıcının cezası silinerek sıfırlanmamalı.
func (rl *MessageRateLimiter) cleanup() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for userID, b := range rl.buckets {
		windowExpired := now.Sub(b.windowStart) > rl.window
		cooldownExpired := b.cooldownUntil.IsZero() || now.After(b.cooldownUntil)

		if windowExpired && cooldownExpired {
			delete(rl.buckets, userID)
		}
	}
}
