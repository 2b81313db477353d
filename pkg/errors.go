// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Go'da error'lar basit değerlerdir. errors.New() ile sabit error
// değişkenleri tanımlarız, böylece karşılaştırma string yerine
// errors.Is() ile yapılır:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
package pkg

import "errors"

// Domain-level error'lar.
// Service katmanı bunları fmt.Errorf("%w: ...") ile wrap edip döner,
// handler katmanı HTTP status code'larına map'ler (bkz. response.go).
//
// Chat alt sisteminin hata sınıfları bu sentinel'lere oturur:
//   - Kimlik doğrulama hatası (eksik/geçersiz/süresi dolmuş token) → ErrUnauthorized
//   - İmzalama secret'ının yokluğu (konfigürasyon hatası) → ErrInternal
//   - Boş mesaj içeriği, bozuk payload → ErrBadRequest
//   - Alıcının offline olması bir hata DEĞİLDİR — mesaj yine kaydedilir.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	ErrInternal      = errors.New("internal error")
)
