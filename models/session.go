package models

import "time"

// Session, bir refresh token oturumudur — sessions tablosunun satır karşılığı.
//
// Access token stateless'tır ve DB'ye uğramadan doğrulanır; refresh token ise
// satır olarak burada yaşar. Bu sayede:
//   - Logout ilgili satırı siler, token anında geçersizleşir
//   - Refresh'te rotation yapılır: eski satır silinir, yenisi yazılır
//   - Süresi dolan oturumlar periyodik temizlikte toplu silinir
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	RefreshToken string    `json:"-"` // API'ye gönderilmez
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}
