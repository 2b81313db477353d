// Package models, chat servisinin domain modellerini (veri yapıları) tanımlar.
//
// Model nedir?
// Veritabanındaki bir tablonun Go karşılığıdır.
// Aynı zamanda API'den gelen/giden verilerin şeklini de belirler.
//
// Go'da `json:"username"` gibi tag'ler, struct field'larının JSON'a
// nasıl serialize/deserialize edileceğini belirler.
package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// UserRole, kullanıcının storefront'taki rolünü temsil eder.
// Go'da enum yoktur — typed constant'lar kullanılır.
//
// buyer: Mağazadan alışveriş yapan müşteri.
// staff: Müşteri mesajlarını yanıtlayan mağaza personeli.
// admin: Yönetici — personel yetkilerinin üst kümesi.
type UserRole string

// İzin verilen UserRole değerleri.
const (
	RoleBuyer UserRole = "buyer"
	RoleStaff UserRole = "staff"
	RoleAdmin UserRole = "admin"
)

// User, kullanıcı dizinindeki bir kaydı temsil eder.
//
// Chat alt sistemi bu kaydı "identity" olarak tüketir: bağlantı kurulurken
// bir kez doğrulanır, bağlantı yaşadığı sürece değişmez kabul edilir.
// LastSeenAt sadece kullanıcının SON bağlantısı koptuğunda güncellenir —
// açık başka tab'ı varken güncellenmez.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	DisplayName  *string    `json:"display_name"` // *string = nullable — Go'da nil olabilir
	Email        *string    `json:"email,omitempty"`
	PasswordHash string     `json:"-"` // json:"-" → API response'a DAHİL ETME (güvenlik!)
	Role         UserRole   `json:"role"`
	LastSeenAt   *time.Time `json:"last_seen_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// DisplayNameOrUsername, görünen isim tercihini döner.
// Typing ve bildirim event'lerinde kullanıcıya gösterilecek isim budur.
func (u *User) DisplayNameOrUsername() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return u.Username
}

// CreateUserRequest, kayıt olurken frontend'den gelen veri.
// PasswordHash yerine Password alırız — hash'leme service katmanında yapılır.
type CreateUserRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// Validate, CreateUserRequest'in geçerli olup olmadığını kontrol eder.
// Validation kuralları:
//   - Username: 3-32 karakter, alfanumerik + alt çizgi
//   - Password: minimum 8 karakter
//   - DisplayName: opsiyonel, max 32 karakter
//   - Email: opsiyonel, format kontrolü
func (r *CreateUserRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	usernameLen := utf8.RuneCountInString(r.Username)
	if usernameLen < 3 || usernameLen > 32 {
		return fmt.Errorf("username must be between 3 and 32 characters")
	}

	for _, ch := range r.Username {
		if !isValidUsernameChar(ch) {
			return fmt.Errorf("username can only contain letters, numbers, and underscores")
		}
	}

	if utf8.RuneCountInString(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	r.DisplayName = strings.TrimSpace(r.DisplayName)
	if utf8.RuneCountInString(r.DisplayName) > 32 {
		return fmt.Errorf("display name must be at most 32 characters")
	}

	r.Email = strings.TrimSpace(r.Email)
	if r.Email != "" && !EmailRegex().MatchString(r.Email) {
		return fmt.Errorf("invalid email format")
	}

	return nil
}

// LoginRequest, giriş yaparken frontend'den gelen veri.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate, LoginRequest'in geçerli olup olmadığını kontrol eder.
func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// EmailRegex, basit email format kontrolü için derlenmiş regex döner.
func EmailRegex() *regexp.Regexp {
	return emailRegex
}

// isValidUsernameChar, username'de izin verilen karakterleri kontrol eder.
func isValidUsernameChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '_'
}
