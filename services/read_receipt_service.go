package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lostal/creative-hands-sub001/pkg"
	"github.com/lostal/creative-hands-sub001/repository"
	"github.com/lostal/creative-hands-sub001/ws"
)

// ReadReceiptService, okundu bilgisi akışını yönetir.
//
// Akış: okuyucu messages:read gönderir → konuşmadaki kendisine gelmiş tüm
// okunmamış mesajlar tek seferde işaretlenir → karşı tarafa tek bir
// messages:read event'i gider ("mesajların okundu").
type ReadReceiptService interface {
	MarkRead(ctx context.Context, readerID, conversationID string) error
}

// readReceiptService, ReadReceiptService interface'inin implementasyonu.
type readReceiptService struct {
	messageRepo repository.MessageRepository
	hub         ws.EventPublisher
}

// NewReadReceiptService, constructor.
func NewReadReceiptService(messageRepo repository.MessageRepository, hub ws.EventPublisher) ReadReceiptService {
	return &readReceiptService{
		messageRepo: messageRepo,
		hub:         hub,
	}
}

// MarkRead, konuşmadaki okunmamış mesajları bulk olarak okundu işaretler.
//
// İdempotent: ikinci çağrıda işaretlenecek satır kalmaz, 0 güncellenir ve
// karşı tarafa TEKRAR event gitmez — receipt yalnızca gerçekten bir şey
// değiştiğinde yayınlanır.
//
// Hiç mesajı olmayan (bilinmeyen) bir conversation ID no-op'tur:
// işaretlenecek bir şey olmaması hata değildir.
func (s *readReceiptService) MarkRead(ctx context.Context, readerID, conversationID string) error {
	if conversationID == "" {
		return fmt.Errorf("%w: conversation_id is required", pkg.ErrBadRequest)
	}

	updated, otherID, err := s.messageRepo.MarkConversationRead(ctx, readerID, conversationID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil
		}
		return err
	}

	if updated > 0 {
		// Karşı taraf offline ise event sessizce kaybolur — read durumu
		// zaten DB'de, sonraki geçmiş sorgusunda görünür.
		s.hub.BroadcastToUser(otherID, ws.Event{
			Op:   ws.OpMessagesReadAck,
			Data: ws.ReadData{ConversationID: conversationID},
		})
	}

	return nil
}
