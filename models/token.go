package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, JWT access token'ın içindeki veriler (payload).
//
// WebSocket handshake'i ve REST middleware'ı aynı claims yapısını kullanır.
// Token imzası doğrulandıktan sonra kullanıcı yine de dizinden okunur —
// token geçerli ama kullanıcı silinmiş olabilir.
//
// Bu struct models paketinde tanımlanır çünkü birden fazla katman
// (services, ws, middleware) tarafından kullanılır ve böylece
// circular dependency oluşmaz.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
