// Package main — Handler katmanı başlatma.
//
// initHandlers, tüm HTTP handler'larını oluşturur.
// Her handler, ihtiyaç duyduğu service interface'lerini constructor'dan alır.
// Handler'lar "thin" dir — sadece HTTP parse + service call + response write.
package main

import (
	"github.com/lostal/creative-hands-sub001/config"
	"github.com/lostal/creative-hands-sub001/handlers"
	"github.com/lostal/creative-hands-sub001/ws"
)

// Handlers, tüm handler instance'larını tutan container struct.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Conversation *handlers.ConversationHandler
	WS           *ws.Handler
}

// initHandlers, tüm handler'ları service ve rate limiter dependency'leri ile oluşturur.
//
// ws.Handler'a authService, IdentityResolver interface'i olarak geçer —
// Go'da implicit interface sayesinde ekstra adapter gerekmez.
func initHandlers(svcs *Services, limiters *RateLimiters, hub *ws.Hub, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:         handlers.NewAuthHandler(svcs.Auth, limiters.Login, cfg.JWT.AccessTokenExpiry),
		Conversation: handlers.NewConversationHandler(svcs.Chat),
		WS:           ws.NewHandler(hub, svcs.Auth, limiters.Message),
	}
}
