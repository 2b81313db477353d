// Package main — Service katmanı başlatma.
//
// initServices, tüm service implementasyonlarını oluşturur.
// Her service, ihtiyaç duyduğu repository interface'lerini ve diğer
// dependency'leri constructor injection ile alır.
package main

import (
	"log"
	"time"

	"github.com/lostal/creative-hands-sub001/config"
	"github.com/lostal/creative-hands-sub001/pkg/email"
	"github.com/lostal/creative-hands-sub001/pkg/ratelimit"
	"github.com/lostal/creative-hands-sub001/services"
	"github.com/lostal/creative-hands-sub001/ws"
)

// Services, tüm service instance'larını tutan container struct.
type Services struct {
	Auth        services.AuthService
	Chat        services.ChatService
	ReadReceipt services.ReadReceiptService
}

// RateLimiters, tüm rate limiter instance'larını tutan container.
type RateLimiters struct {
	// Login: IP bazlı brute-force koruması — 2 dakikada 5 deneme.
	Login *ratelimit.LoginRateLimiter
	// Message: kullanıcı bazlı spam koruması — 5 saniyede 5 mesaj,
	// aşımda 15 saniye cooldown.
	Message *ratelimit.MessageRateLimiter
}

// initServices, tüm service'leri ve rate limiter'ları oluşturur.
//
// hub, service'ler arası paylaşılan dependency'dir — EventPublisher
// interface'i olarak geçilir, concrete Hub değil.
func initServices(repos *Repositories, hub ws.EventPublisher, cfg *config.Config) (*Services, *RateLimiters) {
	// ─── Email service (opsiyonel) ───
	// API key yoksa mailer nil kalır — offline bildirimleri sessizce atlanır.
	var emailSender email.EmailSender
	if cfg.Email.ResendAPIKey != "" {
		emailSender = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromEmail, cfg.Email.AppURL)
		log.Printf("[main] email notifications enabled (from=%s)", cfg.Email.FromEmail)
	} else {
		log.Println("[main] email notifications disabled (no RESEND_API_KEY)")
	}

	svcs := &Services{
		Auth: services.NewAuthService(
			repos.User,
			repos.Session,
			cfg.JWT.Secret,
			cfg.JWT.AccessTokenExpiry,
			cfg.JWT.RefreshTokenExpiry,
		),
		Chat:        services.NewChatService(repos.User, repos.Message, hub, emailSender),
		ReadReceipt: services.NewReadReceiptService(repos.Message, hub),
	}

	limiters := &RateLimiters{
		Login:   ratelimit.NewLoginRateLimiter(5, 2*time.Minute),
		Message: ratelimit.NewMessageRateLimiter(5, 5*time.Second, 15*time.Second),
	}

	return svcs, limiters
}
