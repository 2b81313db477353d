package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ConversationSeparator, canonical conversation ID'de iki kullanıcı ID'sini
// birleştiren sabit ayraç.
const ConversationSeparator = ":"

// ConversationID, iki katılımcıdan deterministik bir konuşma kimliği türetir.
//
// İki ID sıralanıp sabit ayraçla birleştirilir — kim başlatırsa başlatsın
// aynı çift her zaman aynı kimliği üretir: ConversationID(a, b) == ConversationID(b, a).
//
// Bu kimlik hiçbir zaman ayrı bir entity olarak saklanmaz; her zaman iki
// girdiden yeniden hesaplanır. Mesaj tablosundaki conversation_id kolonu
// sadece indexlenebilir bir türev kopyadır.
func ConversationID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ConversationSeparator + b
}

// Message, iki kullanıcı arasındaki tek bir chat mesajını temsil eder.
//
// Yaratıldıktan sonra sadece Read/ReadAt alanları mutasyona uğrar —
// o da yalnızca read-receipt akışıyla ve tek yönde (unread → read).
// Mesajlar bu alt sistemde asla silinmez veya düzenlenmez.
type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	ReceiverID     string     `json:"receiver_id"`
	Content        string     `json:"content"`
	Read           bool       `json:"read"`
	ReadAt         *time.Time `json:"read_at"` // Nullable — okunmamış mesajda nil
	CreatedAt      time.Time  `json:"created_at"`

	// JOIN ile doldurulan alanlar — message:new event'inde katılımcı
	// bilgileri dolu gönderilir, liste sorgularında boş bırakılabilir.
	Sender   *User `json:"sender,omitempty"`
	Receiver *User `json:"receiver,omitempty"`
}

// SendMessageRequest, message:send event'inin payload'ı.
type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

// Validate, SendMessageRequest'in geçerli olup olmadığını kontrol eder.
// Boş veya sadece whitespace içeren content reddedilir.
func (r *SendMessageRequest) Validate() error {
	if strings.TrimSpace(r.ReceiverID) == "" {
		return fmt.Errorf("receiver_id is required")
	}

	r.Content = strings.TrimSpace(r.Content)
	contentLen := utf8.RuneCountInString(r.Content)
	if contentLen < 1 {
		return fmt.Errorf("message content is required")
	}
	if contentLen > 2000 {
		return fmt.Errorf("message content must be at most 2000 characters")
	}
	return nil
}

// ConversationSummary, bir kullanıcının konuşma listesindeki tek satırı
// temsil eder: karşı taraf, son mesaj ve okunmamış mesaj sayısı.
//
// Mesaj tablosu üzerinde read-time aggregation ile üretilir —
// ayrı bir "conversation" tablosu yoktur.
type ConversationSummary struct {
	ConversationID string   `json:"conversation_id"`
	OtherUser      *User    `json:"other_user"`
	LastMessage    *Message `json:"last_message"`
	UnreadCount    int      `json:"unread_count"`
}
