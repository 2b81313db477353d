package ws

import (
	"context"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lostal/creative-hands-sub001/models"
	"github.com/lostal/creative-hands-sub001/pkg/ratelimit"
)

// IdentityResolver, WebSocket handler'ın kimlik doğrulaması için kullandığı interface.
//
// Neden services.AuthService yerine kendi interface'imizi tanımlıyoruz?
// Circular dependency'yi önlemek için:
// - services paketi ws.EventPublisher'ı kullanıyor (broadcast için)
// - ws paketi services.AuthService'i kullansaydı → ws → services → ws döngüsü oluşurdu
//
// Interface Segregation Principle (ISP):
// WS handler'ın AuthService'in tüm metodlarına (Register, Login, Logout, vb.)
// ihtiyacı yok. Sadece ResolveIdentity yeterli — token'dan doğrulanmış
// kullanıcı kaydına gider. main.go'da authService bu interface'i otomatik
// karşılar (Go'da implicit interface).
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, credential string) (*models.User, error)
}

// upgrader, HTTP bağlantısını WebSocket bağlantısına yükseltir.
//
// WebSocket Upgrade nedir?
// WebSocket, normal HTTP bağlantısı olarak başlar ve "upgrade" ile
// kalıcı, çift yönlü (bidirectional) bir bağlantıya dönüşür.
// HTTP: istek → yanıt → bağlantı kapanır
// WebSocket: bağlantı açık kalır, her iki taraf istediği zaman mesaj gönderebilir
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CheckOrigin: Production'da domain kontrolü yapılmalı.
	// Şimdilik tüm origin'lere izin veriyoruz (development için).
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler, WebSocket bağlantı isteklerini işleyen HTTP handler'ı.
type Handler struct {
	hub      *Hub
	resolver IdentityResolver
	limiter  *ratelimit.MessageRateLimiter
}

// NewHandler, yeni bir WebSocket handler oluşturur.
func NewHandler(hub *Hub, resolver IdentityResolver, limiter *ratelimit.MessageRateLimiter) *Handler {
	return &Handler{
		hub:      hub,
		resolver: resolver,
		limiter:  limiter,
	}
}

// HandleConnection, HTTP bağlantısını WebSocket'e yükseltir ve client'ı Hub'a kaydeder.
//
// Kimlik bilgisi iki yerden gelebilir:
// 1. "access_token" cookie'si (storefront'un normal oturum mekanizması)
// 2. ?token= query parameter'ı (cookie taşıyamayan client'lar için fallback)
//
// Doğrulama UPGRADE'DEN ÖNCE yapılır — kimliği çözülemeyen istek hiçbir
// zaman WebSocket bağlantısına dönüşmez, düz HTTP 401 ile reddedilir.
//
// Flow:
// 1. Cookie veya query'den credential al
// 2. ResolveIdentity: imza kontrolü + kullanıcı dizini lookup'ı
// 3. HTTP → WebSocket upgrade
// 4. Client oluştur, Hub'a SENKRON kaydet
// 5. ready event'i gönder, pump goroutine'lerini başlat
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	// 1. Credential'ı al — önce cookie, yoksa query fallback
	var credential string
	if cookie, err := r.Cookie("access_token"); err == nil {
		credential = cookie.Value
	}
	if credential == "" {
		credential = r.URL.Query().Get("token")
	}
	if credential == "" {
		http.Error(w, "missing credentials", http.StatusUnauthorized)
		return
	}

	// 2. Kimliği çöz — token geçerli ama kullanıcı silinmişse de 401
	user, err := h.resolver.ResolveIdentity(r.Context(), credential)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	// 3. HTTP → WebSocket upgrade
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for user %s: %v", user.ID, err)
		return
	}

	// 4. Client oluştur ve Hub'a kaydet.
	// Register senkron döner — döndüğü andan itibaren bu bağlantı tüm
	// broadcast'lerin hedefidir. user:status (online) broadcast'i Register
	// içindeki ilk-bağlantı callback'i ile tetiklenir.
	client := NewClient(h.hub, conn, uuid.NewString(), user.ID, h.limiter)

	// Görünen isim cache'ini güncelle (typing broadcast için)
	h.hub.SetUserInfo(user.ID, user.DisplayNameOrUsername())

	h.hub.Register(client)

	// 5. İlk event: o anki online kullanıcı listesi.
	// Kayıttan SONRA alınır — liste kullanıcının kendisini de içerir ve
	// bu noktadan sonraki her user:status değişikliği ayrıca ulaşır.
	client.sendEvent(Event{
		Op:   OpReady,
		Data: ReadyData{OnlineUserIDs: h.hub.OnlineUserIDs()},
	})

	// 6. Goroutine'leri başlat
	//
	// `go client.WritePump()` → yeni goroutine başlatır.
	// WritePump ayrı goroutine'de, ReadPump mevcut goroutine'de çalışır.
	// ReadPump mevcut goroutine'de çalışmalı — aksi halde bu fonksiyon hemen
	// döner ve HTTP handler sonlanır. ReadPump bağlantı kapanana kadar bloklar.
	go client.WritePump()
	client.ReadPump() // Bu satır bağlantı kapanana kadar bloklar
}
