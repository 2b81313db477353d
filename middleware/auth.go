// Package middleware, HTTP request pipeline'ına eklenen ara katmanları barındırır.
//
// Middleware Pattern nedir?
// Her HTTP request, handler'a ulaşmadan önce bir veya daha fazla middleware'dan geçer.
// Middleware'lar zincir şeklinde çalışır: Auth → Handler
//
// Go'da middleware bir fonksiyondur:
//   func(next http.Handler) http.Handler
//
// "next" parametresi zincirdeki bir sonraki handler'dır.
// Middleware kendi işini yapar (ör: token doğrula), sonra next'i çağırır.
// Eğer hata varsa next'i çağırmaz → request burada durur.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/lostal/creative-hands-sub001/handlers"
	"github.com/lostal/creative-hands-sub001/pkg"
	"github.com/lostal/creative-hands-sub001/repository"
	"github.com/lostal/creative-hands-sub001/services"
)

// AuthMiddleware, JWT token doğrulama middleware'ı.
type AuthMiddleware struct {
	authService services.AuthService
	userRepo    repository.UserRepository
}

// NewAuthMiddleware, constructor.
func NewAuthMiddleware(authService services.AuthService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		userRepo:    userRepo,
	}
}

// Require, JWT token zorunlu kılan middleware.
// Token yoksa veya geçersizse → 401 Unauthorized.
//
// Token iki yerden okunur (WebSocket handshake'i ile aynı sıra):
// 1. "access_token" cookie'si — storefront'un normal oturum mekanizması
// 2. Authorization: Bearer <token> header'ı — API client'ları için
//
// Middleware nasıl çalışır?
// 1. Cookie veya header'dan token'ı al
// 2. AuthService.ValidateAccessToken() ile doğrula
// 3. Token geçerliyse → kullanıcıyı DB'den getir → context'e ekle → next handler'ı çağır
// 4. Geçersizse → 401 döndür, next ÇAĞIRILMAZ
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Token'ı al — önce cookie, yoksa Bearer header
		var tokenString string
		if cookie, err := r.Cookie("access_token"); err == nil {
			tokenString = cookie.Value
		}
		if tokenString == "" {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !strings.HasPrefix(authHeader, "Bearer ") {
				pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
				return
			}
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		// 2. Token'ı doğrula
		claims, err := m.authService.ValidateAccessToken(tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		// 3. Kullanıcıyı DB'den getir — token geçerli ama kullanıcı silinmiş olabilir
		user, err := m.userRepo.GetByID(r.Context(), claims.UserID)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found")
			return
		}

		// Password hash'i temizle — context'te taşınmamalı
		user.PasswordHash = ""

		// 4. Context'e kullanıcıyı ekle
		// context.WithValue: mevcut context'e key-value ekler.
		// Downstream handler'lar r.Context().Value(UserContextKey) ile erişir.
		ctx := context.WithValue(r.Context(), handlers.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
