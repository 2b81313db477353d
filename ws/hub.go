package ws

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
)

// EventPublisher, service katmanının WebSocket event'leri broadcast etmek için
// kullandığı interface.
//
// Dependency Inversion: Service'ler Hub'ın concrete struct'ına değil,
// bu interface'e bağımlıdır. Böylece:
// 1. Service test edilirken mock EventPublisher kullanılabilir
// 2. Hub implementasyonu değişse bile service kodu etkilenmez
type EventPublisher interface {
	BroadcastToAll(event Event)
	BroadcastToUser(userID string, event Event)
	IsOnline(userID string) bool
	OnlineUserIDs() []string
}

// Hub, tüm WebSocket bağlantılarını ve presence durumunu yöneten merkezi
// yapıdır (Observer pattern).
//
// Presence'ın tek kaynağı clients map'idir: bir kullanıcının map'te en az
// bir bağlantısı varsa online'dır. Ayrı bir presence cache'i YOKTUR —
// invalidate edilecek ikinci bir state olmadığı için tutarsızlık da olmaz.
//
// Register/Deregister neden channel değil, doğrudan mutex?
// Kayıt senkron tamamlanmalıdır: handler, Register dönmeden ready event'ini
// göndermez ve pump'ları başlatmaz. Böylece "bağlantı kuruldu ama henüz
// map'te değil" penceresi oluşmaz — kayıt anından itibaren broadcast edilen
// her event bu bağlantıya da ulaşır.
type Hub struct {
	// clients: userID → Client set (bir kullanıcının birden fazla tab'ı olabilir).
	// map[string]map[*Client]bool — Go'da set yoktur, map[*Client]bool kullanılır.
	// bool değeri her zaman true'dur — sadece varlık kontrolü için kullanılır.
	clients map[string]map[*Client]bool

	// mu: clients map'ini koruyan read-write mutex.
	//
	// sync.RWMutex nedir?
	// Mutex'in gelişmiş hali — birden fazla okuyucu aynı anda erişebilir (RLock),
	// ama yazma işlemi sırasında tüm erişim bloklanır (Lock).
	// Broadcast gibi okuma ağırlıklı işlemlerde performans sağlar.
	mu sync.RWMutex

	// seq: Her outbound event'e verilen artan sayaç.
	// atomic.Int64: Birden fazla goroutine'in güvenle okuyup yazabildiği sayı.
	// Normal int64 kullanılsaydı race condition oluşurdu.
	seq atomic.Int64

	// displayNames: userID → görünen isim cache (typing broadcast için).
	displayNames map[string]string
	nameMu       sync.RWMutex

	// ─── Callback'ler ───
	// Hub, service katmanını import ETMEZ (circular dependency olurdu).
	// Bunun yerine main.go bu callback'leri set eder — Dependency Inversion.

	// onUserFirstConnect, kullanıcının İLK bağlantısı kurulduğunda çağrılır.
	onUserFirstConnect func(userID string)

	// onUserFullyDisconnected, kullanıcının SON bağlantısı koptuğunda çağrılır.
	onUserFullyDisconnected func(userID string)

	// onMessageSend, bir client message:send gönderdiğinde çağrılır.
	// Dönen error gönderene message:error olarak iletilir.
	onMessageSend func(senderID string, data MessageSendData) error

	// onMarkRead, bir client messages:read gönderdiğinde çağrılır.
	onMarkRead func(readerID, conversationID string) error
}

// NewHub, yeni bir Hub oluşturur.
func NewHub() *Hub {
	return &Hub{
		clients:      make(map[string]map[*Client]bool),
		displayNames: make(map[string]string),
	}
}

// ─── Callback setter'ları (main.go'dan çağrılır) ───

func (h *Hub) OnUserFirstConnect(fn func(userID string)) {
	h.onUserFirstConnect = fn
}

func (h *Hub) OnUserFullyDisconnected(fn func(userID string)) {
	h.onUserFullyDisconnected = fn
}

func (h *Hub) OnMessageSend(fn func(senderID string, data MessageSendData) error) {
	h.onMessageSend = fn
}

func (h *Hub) OnMarkRead(fn func(readerID, conversationID string) error) {
	h.onMarkRead = fn
}

// Register, yeni bir client'ı Hub'a ekler ve bunun kullanıcının ilk
// bağlantısı olup olmadığını döner.
//
// Map güncellemesi ve "ilk bağlantı mı?" kararı aynı lock altında alınır —
// iki tab aynı anda bağlansa bile yalnızca biri ilk sayılır.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()

	conns, ok := h.clients[client.userID]
	if !ok {
		conns = make(map[*Client]bool)
		h.clients[client.userID] = conns
	}
	isFirst := len(conns) == 0
	conns[client] = true
	total := len(conns)

	h.mu.Unlock()

	log.Printf("[ws] client connected: user=%s conn=%s (connections: %d)",
		client.userID, client.id, total)

	if isFirst && h.onUserFirstConnect != nil {
		// Callback lock dışında ve ayrı goroutine'de çalışır —
		// içinde BroadcastToAll çağırması serbesttir.
		go h.onUserFirstConnect(client.userID)
	}

	return isFirst
}

// Deregister, bir client'ı Hub'dan çıkarır ve bunun kullanıcının son
// bağlantısı olup olmadığını döner.
//
// İdempotent'tır: aynı client için ikinci çağrı hiçbir şey yapmaz.
// Bu önemli — hem ReadPump'ın defer'i hem de slow-client drop aynı
// client'ı deregister etmeye çalışabilir; send channel'ı iki kez
// kapatmak panic olurdu.
func (h *Hub) Deregister(client *Client) bool {
	h.mu.Lock()

	conns, ok := h.clients[client.userID]
	if !ok {
		h.mu.Unlock()
		return false
	}
	if _, exists := conns[client]; !exists {
		h.mu.Unlock()
		return false
	}

	delete(conns, client)
	client.closeSend()

	wasLast := len(conns) == 0
	if wasLast {
		// Boş set map'te bırakılmaz — OnlineUserIDs sadece map key'lerine bakar.
		delete(h.clients, client.userID)

		// İsim cache'i yalnızca bağlı kullanıcılar için yaşar — son bağlantı
		// kapandığında entry silinir, map süreç ömrü boyunca büyümez.
		h.nameMu.Lock()
		delete(h.displayNames, client.userID)
		h.nameMu.Unlock()
	}
	remaining := len(conns)

	h.mu.Unlock()

	if wasLast {
		log.Printf("[ws] user fully disconnected: %s", client.userID)
		if h.onUserFullyDisconnected != nil {
			go h.onUserFullyDisconnected(client.userID)
		}
	} else {
		log.Printf("[ws] client disconnected: user=%s conn=%s (remaining: %d)",
			client.userID, client.id, remaining)
	}

	return wasLast
}

// BroadcastToAll, tüm bağlı client'lara event gönderir.
func (h *Hub) BroadcastToAll(event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal broadcast event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for client := range clients {
			select {
			case client.send <- data:
			default:
				// Buffer dolu — bu client yavaş, bağlantıyı düşür.
				// Deregister Lock ister, biz RLock tutuyoruz → goroutine şart.
				go h.Deregister(client)
			}
		}
	}
}

// BroadcastToUser, belirli bir kullanıcının TÜM bağlantılarına event gönderir.
// Kullanıcı offline ise sessizce no-op — çağıran taraf için hata değildir.
func (h *Hub) BroadcastToUser(userID string, event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal user event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.clients[userID]; ok {
		for client := range clients {
			select {
			case client.send <- data:
			default:
				go h.Deregister(client)
			}
		}
	}
}

// IsOnline, kullanıcının en az bir aktif bağlantısı olup olmadığını döner.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[userID]) > 0
}

// OnlineUserIDs, bağlı olan tüm kullanıcı ID'lerini döner.
func (h *Hub) OnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	return ids
}

// ConnectionCount, kullanıcının aktif bağlantı sayısını döner.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[userID])
}

// SetUserInfo, kullanıcı bağlandığında görünen isim cache'ini günceller.
func (h *Hub) SetUserInfo(userID, displayName string) {
	h.nameMu.Lock()
	defer h.nameMu.Unlock()
	h.displayNames[userID] = displayName
}

// getDisplayName, userID'den görünen ismi döner (typing broadcast için).
func (h *Hub) getDisplayName(userID string) string {
	h.nameMu.RLock()
	defer h.nameMu.RUnlock()
	return h.displayNames[userID]
}

// Shutdown, tüm client bağlantılarını kapatır (graceful shutdown).
// Map sıfırlanır — sonradan gelen Deregister çağrıları no-op olur,
// send channel'ları iki kez kapatılmaz.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.closeSend()
		}
	}
	h.clients = make(map[string]map[*Client]bool)

	h.nameMu.Lock()
	h.displayNames = make(map[string]string)
	h.nameMu.Unlock()

	log.Println("[ws] hub shut down, all connections closed")
}
