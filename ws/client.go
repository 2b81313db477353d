package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lostal/creative-hands-sub001/pkg"
	"github.com/lostal/creative-hands-sub001/pkg/ratelimit"
)

// WebSocket bağlantı sabitleri
const (
	// writeWait: Bir mesajı yazmak için maksimum bekleme süresi.
	// Bu süre aşılırsa bağlantı kapatılır (ağ sorunu olabilir).
	writeWait = 10 * time.Second

	// pongWait: Client'ın heartbeat göndermesi için beklenen maksimum süre.
	// 3 heartbeat kaçırma = 30s × 3 = 90s.
	// Bu sürede heartbeat gelmezse client bağlantısı kopmuş sayılır.
	pongWait = 90 * time.Second

	// maxMessageSize: Client'ın gönderebileceği maksimum mesaj boyutu (byte).
	// WebSocket frame'leri küçük olmalı — content limiti zaten 2000 karakter.
	maxMessageSize = 4096

	// sendBufferSize: Her client'ın send channel'ının buffer boyutu.
	// Buffer doluysa (client yavaş) bağlantı düşürülür.
	sendBufferSize = 256
)

// Client, tek bir WebSocket bağlantısını temsil eder.
//
// Go'da WebSocket bağlantı yönetimi pattern'i:
// Her bağlantı için iki goroutine oluşturulur:
// - ReadPump: Client'dan gelen event'leri okur → işler
// - WritePump: Hub'dan gelen event'leri client'a yazar
//
// Neden iki goroutine?
// gorilla/websocket aynı anda sadece bir okuma ve bir yazma işlemi destekler.
// İki ayrı goroutine kullanarak okuma ve yazma birbirini bloklamaz.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// id: Bağlantıya özgü benzersiz kimlik (UUID). Aynı kullanıcının iki
	// tab'ı farklı id taşır — loglarda hangi bağlantının düştüğü görülür.
	id     string
	userID string

	// limiter: Kullanıcı bazlı mesaj spam koruması.
	// Tüm client'lar aynı limiter instance'ını paylaşır (key = userID),
	// böylece iki tab'dan gönderilen mesajlar tek bütçeden düşer.
	limiter *ratelimit.MessageRateLimiter

	// send, client'a gönderilecek mesajların buffer'landığı Go channel'ı.
	//
	// Go channel nedir?
	// Goroutine'ler arası veri iletimi için kullanılan tipli boru (pipe).
	// `make(chan []byte, 256)` → 256 elemanlık buffer'lı bir byte dizisi kanalı.
	// Hub mesaj göndermek istediğinde `client.send <- data` yapar,
	// WritePump `data := <-client.send` ile okur.
	send chan []byte
	mu   sync.Mutex // conn.WriteMessage çağrılarını korur

	// sendMu + closed: Hub bağlantıyı düşürürken send channel'ını kapatır,
	// ama ReadPump aynı anda kendi goroutine'inde sendEvent çağırıyor
	// olabilir (heartbeat ack, message:error). Kapalı channel'a send
	// panic'tir — close ve send aynı mutex altında serileşir.
	sendMu sync.Mutex
	closed bool
}

// NewClient, yeni bir Client oluşturur. Handler, upgrade sonrası çağırır.
func NewClient(hub *Hub, conn *websocket.Conn, connID, userID string, limiter *ratelimit.MessageRateLimiter) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		id:      connID,
		userID:  userID,
		limiter: limiter,
		send:    make(chan []byte, sendBufferSize),
	}
}

// closeSend, send channel'ını kapatır ve client'ı kapalı işaretler.
// SADECE Hub çağırır (Deregister ve Shutdown). İkinci çağrı no-op'tur.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump, WebSocket bağlantısından gelen event'leri okur ve işler.
//
// Bu fonksiyon bir goroutine olarak çalışır — bağlantı kapanana kadar döngüde kalır.
// Bağlantı kapandığında Hub'dan çıkış yapar ve kaynakları temizler.
func (c *Client) ReadPump() {
	// defer: Fonksiyon bittiğinde (return veya panic) çalışır.
	// Bağlantı kapandığında client'ı Hub'dan çıkar ve WS bağlantısını kapat.
	defer func() {
		c.hub.Deregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	// SetReadDeadline: Bu süre içinde mesaj gelmezse Read hata verir.
	// Her heartbeat geldiğinde deadline yenilenir.
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
		return
	}

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			// Bağlantı kapandı veya hata oluştu — ReadPump sonlanır.
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for user %s: %v", c.userID, err)
			}
			return
		}

		// Gelen mesajı parse et
		var event Event
		if err := json.Unmarshal(rawMessage, &event); err != nil {
			log.Printf("[ws] invalid message from user %s: %v", c.userID, err)
			continue
		}

		c.handleEvent(event)
	}
}

// handleEvent, client'dan gelen event'leri türüne göre işler.
//
// message:send ve messages:read SENKRON işlenir (goroutine'e atılmaz):
// bir bağlantıdan peş peşe gelen iki mesajın persist + broadcast sırası
// gönderim sırasıyla aynı kalmalıdır. ReadPump Hub lock'u tutmadığı için
// bu güvenlidir — callback içindeki broadcast'ler deadlock yaratmaz.
func (c *Client) handleEvent(event Event) {
	switch event.Op {
	case OpHeartbeat:
		// Heartbeat geldi — deadline'ı yenile ve ack gönder.
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
			return
		}
		c.sendEvent(Event{Op: OpHeartbeatAck})

	case OpMessageSend:
		c.handleMessageSend(event)

	case OpTypingStart:
		c.handleTyping(event, true)

	case OpTypingStop:
		c.handleTyping(event, false)

	case OpMessagesRead:
		c.handleMessagesRead(event)

	default:
		log.Printf("[ws] unknown op from user %s: %s", c.userID, event.Op)
	}
}

// handleMessageSend, message:send event'ini işler.
//
// Akış: rate limit kontrolü → Hub callback'i üzerinden ChatService.
// Her türlü hata SADECE gönderene message:error olarak döner —
// alıcı yarım kalmış bir işlemden asla haberdar olmaz.
func (c *Client) handleMessageSend(event Event) {
	if c.limiter != nil && !c.limiter.Allow(c.userID) {
		cooldown := c.limiter.CooldownSeconds(c.userID)
		c.sendEvent(Event{
			Op: OpMessageError,
			Data: ErrorData{
				Message: fmt.Sprintf("you are sending messages too fast, wait %s",
					ratelimit.FormatRetryMessage(cooldown)),
			},
		})
		return
	}

	dataBytes, err := json.Marshal(event.Data)
	if err != nil {
		return
	}

	var data MessageSendData
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		c.sendEvent(Event{Op: OpMessageError, Data: ErrorData{Message: "invalid message payload"}})
		return
	}

	if c.hub.onMessageSend == nil {
		return
	}

	if err := c.hub.onMessageSend(c.userID, data); err != nil {
		c.sendEvent(Event{Op: OpMessageError, Data: ErrorData{Message: safeErrorMessage(err)}})
	}
}

// handleTyping, typing:start ve typing:stop event'lerini işler.
//
// Typing tamamen geçicidir (ephemeral): DB'ye yazılmaz, service katmanına
// inmez — doğrudan karşı tarafın bağlantılarına iletilir. Alıcı offline
// ise event sessizce kaybolur, bu bir hata değildir.
func (c *Client) handleTyping(event Event, isTyping bool) {
	dataBytes, err := json.Marshal(event.Data)
	if err != nil {
		return
	}

	var typing TypingData
	if err := json.Unmarshal(dataBytes, &typing); err != nil {
		return
	}

	if typing.ReceiverID == "" || typing.ReceiverID == c.userID {
		return
	}

	// SADECE karşı tarafa gider — broadcast ASLA kullanılmaz,
	// üçüncü kişiler bu konuşmanın varlığını bile görmemeli.
	c.hub.BroadcastToUser(typing.ReceiverID, Event{
		Op: OpTypingStatus,
		Data: TypingStatusData{
			UserID:   c.userID,
			UserName: c.hub.getDisplayName(c.userID),
			IsTyping: isTyping,
		},
	})
}

// handleMessagesRead, messages:read event'ini işler.
// Başarısızlık sessizdir — read receipt kaybı gönderen için kritik değildir,
// frontend bir sonraki konuşma açılışında tekrar gönderir.
func (c *Client) handleMessagesRead(event Event) {
	dataBytes, err := json.Marshal(event.Data)
	if err != nil {
		return
	}

	var data ReadData
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		return
	}

	if data.ConversationID == "" {
		return
	}

	if c.hub.onMarkRead == nil {
		return
	}

	if err := c.hub.onMarkRead(c.userID, data.ConversationID); err != nil {
		log.Printf("[ws] mark read failed for user %s: %v", c.userID, err)
	}
}

// safeErrorMessage, client'a gösterilebilecek hata mesajını seçer.
// Validation ve not-found hataları olduğu gibi iletilir; internal hatalar
// (DB, IO) generic mesajla maskelenir — iç detay sızdırılmaz.
func safeErrorMessage(err error) string {
	switch {
	case errors.Is(err, pkg.ErrBadRequest),
		errors.Is(err, pkg.ErrNotFound),
		errors.Is(err, pkg.ErrForbidden):
		return err.Error()
	default:
		return "failed to send message"
	}
}

// sendEvent, client'a tek bir event gönderir.
func (c *Client) sendEvent(event Event) {
	event.Seq = c.hub.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event for user %s: %v", c.userID, err)
		return
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	// Hub bu bağlantıyı çoktan düşürmüş olabilir (slow-client drop,
	// shutdown) ve ReadPump bunu henüz görmemiştir — event sessizce düşer.
	if c.closed {
		return
	}

	select {
	case c.send <- data:
		// Başarıyla buffer'a eklendi
	default:
		// Buffer dolu — client muhtemelen donmuş, bağlantıyı kapat.
		// Deregister ayrı goroutine'de: closeSend aynı sendMu'yu ister,
		// buradan senkron çağrılsa kendi kendini kilitlerdik.
		log.Printf("[ws] send buffer full for user %s, dropping connection", c.userID)
		go c.hub.Deregister(c)
	}
}

// WritePump, Hub'dan gelen mesajları WebSocket bağlantısına yazar.
//
// Bu fonksiyon bir goroutine olarak çalışır.
// send channel'dan mesaj bekler ve WS'e yazar.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		message, ok := <-c.send
		if !ok {
			// Channel kapatıldı — Hub client'ı çıkardı
			c.writeMessage(websocket.CloseMessage, nil)
			return
		}

		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// writeMessage, WebSocket'e mesaj yazar (mutex ile korunur).
//
// sync.Mutex nedir?
// Aynı anda sadece bir goroutine'in kritik bölgeye girmesini sağlar.
// c.mu.Lock() → bölgeye gir, c.mu.Unlock() → bölgeden çık.
// gorilla/websocket conn'a aynı anda birden fazla yazma YASAK —
// bu yüzden mutex ile koruyoruz.
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
