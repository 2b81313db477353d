// Package ws, WebSocket bağlantı yönetimi ve gerçek zamanlı event dağıtımını sağlar.
//
// Mimari:
// - Hub: Tüm bağlantıları ve presence durumunu yöneten merkezi yapı (Observer pattern)
// - Client: Her WebSocket bağlantısını temsil eder (bir kullanıcının birden fazla tab'ı olabilir)
// - Event: Client-server arası iletilen mesaj formatı
//
// Event akışı:
// 1. Kullanıcı message:send event'i gönderir → ReadPump alır
// 2. ReadPump, Hub'a set edilmiş callback üzerinden ChatService'i çağırır
// 3. Service validate eder, DB'ye yazar, Hub'ın BroadcastToUser metodunu çağırır
// 4. Her hedef client'ın WritePump'ı event'i WebSocket'e yazar
// 5. Storefront frontend'i event'i alır ve conversation store'unu günceller
package ws

// Event, WebSocket üzerinden iletilen bir mesajı temsil eder.
//
// Op (operation): Event türü — "message:new", "heartbeat" vb.
// Data: Event'e özgü payload — mesaj objesi, presence bilgisi vb.
// Seq (sequence number): Her outbound event'e verilen artan sayı.
//   Frontend eksik event tespit etmek için seq'i takip eder.
//   Örnek: seq 5'ten sonra seq 7 gelirse, 6 kaybolmuş demektir.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// ────────────────────────────────────────────
// Operation sabitleri
// ────────────────────────────────────────────

// Client → Server operasyonları
const (
	OpHeartbeat    = "heartbeat"     // Client periyodik gönderir — "hâlâ bağlıyım" sinyali
	OpMessageSend  = "message:send"  // Yeni mesaj gönderme isteği
	OpTypingStart  = "typing:start"  // Kullanıcı yazmaya başladı
	OpTypingStop   = "typing:stop"   // Kullanıcı yazmayı bıraktı
	OpMessagesRead = "messages:read" // Konuşmadaki mesajları okundu işaretle
)

// Server → Client operasyonları
const (
	OpReady               = "ready"                // Bağlantı kurulduğunda ilk gönderilen — online kullanıcı listesi
	OpHeartbeatAck        = "heartbeat_ack"        // Heartbeat'e yanıt — "seni duydum"
	OpUserStatus          = "user:status"          // Bir kullanıcı online/offline oldu
	OpMessageNew          = "message:new"          // Yeni mesaj — her iki katılımcıya gider
	OpMessageNotification = "message:notification" // Alıcıya ek bildirim sinyali (badge/toast için)
	OpTypingStatus        = "typing:status"        // Karşı taraf yazıyor/bıraktı
	OpMessagesReadAck     = "messages:read"        // Mesajların okunduğu bilgisi — karşı tarafa gider
	OpMessageError        = "message:error"        // message:send başarısız oldu — sadece gönderene
)

// ReadyData, bağlantı kurulduğunda client'a gönderilen ilk event'in payload'ı.
// Frontend bu listeyle presence indicator'larını başlatır; sonraki
// user:status event'leri bu set'i günceller.
type ReadyData struct {
	OnlineUserIDs []string `json:"online_user_ids"`
}

// StatusData, user:status event'inin payload'ı.
// Kullanıcının İLK bağlantısı kurulduğunda (online) ve SON bağlantısı
// koptuğunda (offline) broadcast edilir — ara tab açılış/kapanışları sessizdir.
type StatusData struct {
	UserID   string `json:"user_id"`
	IsOnline bool   `json:"is_online"`
}

// MessageSendData, message:send event'inin payload'ı (Client → Server).
type MessageSendData struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

// NotificationData, message:notification event'inin payload'ı.
// Mesaj içeriği taşımaz — sadece kimden ve hangi konuşmadan geldiğini söyler.
type NotificationData struct {
	From           string `json:"from"`
	ConversationID string `json:"conversation_id"`
}

// TypingData, typing:start/stop event'lerinin payload'ı (Client → Server).
type TypingData struct {
	ReceiverID string `json:"receiver_id"`
}

// TypingStatusData, typing:status event'inin payload'ı (Server → Client).
// SADECE karşı tarafa gönderilir, asla persist edilmez.
type TypingStatusData struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	IsTyping bool   `json:"is_typing"`
}

// ReadData, messages:read event'inin payload'ı — her iki yönde de aynı şekil.
// Client → Server: "bu konuşmayı okudum". Server → karşı taraf: "mesajların okundu".
type ReadData struct {
	ConversationID string `json:"conversation_id"`
}

// ErrorData, message:error event'inin payload'ı.
// Sadece hatayı üreten event'in sahibine gönderilir.
type ErrorData struct {
	Message string `json:"message"`
}
