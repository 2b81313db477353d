package repository

import (
	"context"
	"time"

	"github.com/lostal/creative-hands-sub001/models"
)

// MessageRepository, mesaj veritabanı işlemleri için interface.
//
// Conversation kimliği hiçbir zaman ayrı bir tablo olarak tutulmaz —
// her mesaj satırı kendi türev conversation_id kolonunu taşır ve
// konuşma seviyesindeki tüm sorgular (liste, geçmiş, unread sayısı)
// mesaj tablosu üzerinde read-time aggregation ile yapılır.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	// GetConversationMessages, bir konuşmanın tam geçmişini kronolojik
	// (eskiden yeniye) sırayla döner.
	GetConversationMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	// ListConversations, kullanıcının dahil olduğu tüm konuşmaları,
	// son mesaj zamanına göre en yeniden eskiye sıralı döner.
	ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error)
	// MarkConversationRead, konuşmadaki reader'a gönderilmiş tüm okunmamış
	// mesajları tek transaction'da okundu işaretler.
	//
	// Dönen değerler: işaretlenen satır sayısı ve konuşmanın İLK mesajından
	// türetilen karşı taraf ID'si. Reader konuşmanın katılımcısı değilse
	// pkg.ErrForbidden, konuşmada hiç mesaj yoksa pkg.ErrNotFound döner.
	MarkConversationRead(ctx context.Context, readerID, conversationID string, readAt time.Time) (int64, string, error)
}
