// Package main — HTTP route registration.
//
// initRoutes, tüm API endpoint'lerini mux'a bağlar.
// Middleware chain helper'ı burada tanımlıdır:
//   - auth: JWT token doğrulaması (cookie veya Bearer header)
package main

import (
	"fmt"
	"net/http"

	"github.com/lostal/creative-hands-sub001/middleware"
	"github.com/lostal/creative-hands-sub001/repository"
	"github.com/lostal/creative-hands-sub001/services"
)

// initRoutes, middleware chain'i kurar ve tüm endpoint'leri mux'a bağlar.
func initRoutes(
	mux *http.ServeMux,
	h *Handlers,
	authService services.AuthService,
	userRepo repository.UserRepository,
) {
	// ─── Middleware ───
	authMw := middleware.NewAuthMiddleware(authService, userRepo)

	// ─── Middleware Chain Helper ───
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(http.HandlerFunc(handler))
	}

	// Health check
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"creative-hands-chat"}`)
	})

	// Auth — public endpoint'ler (token gerekmez)
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.HandleFunc("POST /api/auth/logout", h.Auth.Logout)

	// User
	mux.Handle("GET /api/users/me", auth(h.Auth.Me))

	// Conversations — konuşma listesi (unread sayılarıyla) ve mesaj geçmişi.
	// Mesaj GÖNDERME REST'te yoktur — WebSocket üzerinden yapılır.
	mux.Handle("GET /api/conversations", auth(h.Conversation.List))
	mux.Handle("GET /api/messages/{counterpartId}", auth(h.Conversation.Messages))

	// WebSocket — handler kendi içinde kimlik doğrular (cookie veya ?token=).
	//
	// Neden auth middleware kullanmıyoruz?
	// Upgrade öncesi 401 düz HTTP olarak dönmeli ve handler, doğrulanmış
	// kullanıcı kaydının tamamına (sadece claims'e değil) ihtiyaç duyar.
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}
