package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"sync"
	"time"

	"github.com/lostal/creative-hands-sub001/models"
	"github.com/lostal/creative-hands-sub001/pkg"
	"github.com/lostal/creative-hands-sub001/pkg/email"
	"github.com/lostal/creative-hands-sub001/repository"
	"github.com/lostal/creative-hands-sub001/ws"
)

// ChatService, iki kullanıcı arasındaki mesajlaşmanın iş kurallarını yönetir:
// validasyon, persist, fan-out ve bildirim kararı.
type ChatService interface {
	// SendMessage, mesajı doğrular, kalıcılaştırır ve her iki katılımcının
	// tüm bağlantılarına dağıtır. Persist edilmiş mesajı döner.
	SendMessage(ctx context.Context, senderID string, req *models.SendMessageRequest) (*models.Message, error)
	// GetConversation, kullanıcı ile karşı taraf arasındaki tam mesaj
	// geçmişini kronolojik sırayla döner.
	GetConversation(ctx context.Context, userID, counterpartID string) ([]models.Message, error)
	// ListConversations, kullanıcının tüm konuşmalarını son mesaj zamanına
	// göre sıralı, okunmamış sayılarıyla birlikte döner.
	ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error)
}

// convLockCount: Konuşma kilidi stripe sayısı. İki farklı konuşma aynı
// stripe'a düşebilir — bu sadece gereksiz bir bekleme yaratır, yanlışlık değil.
const convLockCount = 64

// chatService, ChatService interface'inin implementasyonu.
type chatService struct {
	userRepo    repository.UserRepository
	messageRepo repository.MessageRepository
	hub         ws.EventPublisher
	mailer      email.EmailSender // nil olabilir — email bildirimi opsiyonel

	// convLocks: persist + fan-out'u konuşma bazında serileştirir.
	// Sabit boyutlu stripe dizisi — konuşma başına entry tutan bir map
	// gibi süreç ömrü boyunca büyümez.
	convLocks [convLockCount]sync.Mutex
}

// NewChatService, constructor.
// mailer nil geçilirse offline alıcılara email gönderilmez, akış değişmez.
func NewChatService(
	userRepo repository.UserRepository,
	messageRepo repository.MessageRepository,
	hub ws.EventPublisher,
	mailer email.EmailSender,
) ChatService {
	return &chatService{
		userRepo:    userRepo,
		messageRepo: messageRepo,
		hub:         hub,
		mailer:      mailer,
	}
}

// SendMessage, tek mesajın tam yaşam döngüsü.
//
// Sıra kritik: önce persist, sonra fan-out. Persist başarısızsa alıcıya
// HİÇBİR event gitmez — alıcı yarım kalmış bir işlemden haberdar olmaz,
// hata yalnızca gönderene döner.
//
// Fan-out gönderenin KENDİ diğer bağlantılarını da kapsar: iki tab'ı açık
// olan gönderen, mesajını her iki tab'da da görür (multi-tab sync).
// Offline alıcı hata DEĞİLDİR — mesaj zaten kalıcı, alıcı geçmişi
// sonraki girişinde REST'ten çeker.
func (s *chatService) SendMessage(ctx context.Context, senderID string, req *models.SendMessageRequest) (*models.Message, error) {
	// 1. Validation — boş/whitespace content burada elenir
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if req.ReceiverID == senderID {
		return nil, fmt.Errorf("%w: cannot send a message to yourself", pkg.ErrBadRequest)
	}

	// 2. Alıcı gerçekten var mı?
	receiver, err := s.userRepo.GetByID(ctx, req.ReceiverID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: receiver not found", pkg.ErrNotFound)
		}
		return nil, err
	}

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	// 3. Persist — created_at Go'dan verilir, conversation_id türetilir.
	//
	// Persist + fan-out aynı konuşma için SERİ çalışır: aynı konuşmada iki
	// gönderen yarıştığında mesajlar hangi sırayla commit olduysa canlı
	// teslimat da o sırayla yapılır — geçmiş bir sırada, ekrandaki akış
	// başka bir sırada olamaz. Farklı konuşmalar birbirini beklemez.
	conversationID := models.ConversationID(senderID, req.ReceiverID)
	lock := s.convLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     req.ReceiverID,
		Content:        req.Content,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	// 4. Katılımcı bilgilerini doldur (hash'ler response'a sızmasın)
	sender.PasswordHash = ""
	receiver.PasswordHash = ""
	message.Sender = sender
	message.Receiver = receiver

	// 5. Fan-out — her iki katılımcının TÜM bağlantılarına
	newEvent := ws.Event{Op: ws.OpMessageNew, Data: message}
	s.hub.BroadcastToUser(req.ReceiverID, newEvent)
	s.hub.BroadcastToUser(senderID, newEvent)

	// 6. Bildirim kararı: alıcı online ise hafif bir notification sinyali;
	// offline ise (email adresi varsa) best-effort email.
	if s.hub.IsOnline(req.ReceiverID) {
		s.hub.BroadcastToUser(req.ReceiverID, ws.Event{
			Op: ws.OpMessageNotification,
			Data: ws.NotificationData{
				From:           sender.DisplayNameOrUsername(),
				ConversationID: message.ConversationID,
			},
		})
	} else if s.mailer != nil && receiver.Email != nil {
		// Email gönderimi mesaj akışını bloklamaz ve hatası yutulur —
		// bildirim kaybı mesaj kaybı değildir.
		go func(to, from string) {
			if err := s.mailer.SendMessageNotification(context.Background(), to, from); err != nil {
				log.Printf("[chat] offline notification email failed: %v", err)
			}
		}(*receiver.Email, sender.DisplayNameOrUsername())
	}

	return message, nil
}

// convLock, conversationID'nin eşlendiği stripe kilidini döner.
func (s *chatService) convLock(conversationID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(conversationID))
	return &s.convLocks[h.Sum32()%convLockCount]
}

// GetConversation, iki kullanıcı arasındaki tam geçmişi döner.
// Karşı taraf hiç mesajlaşılmamış biri olabilir — boş liste döner,
// ama var olmayan bir kullanıcı ID'si ErrNotFound'dur.
func (s *chatService) GetConversation(ctx context.Context, userID, counterpartID string) ([]models.Message, error) {
	if _, err := s.userRepo.GetByID(ctx, counterpartID); err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", pkg.ErrNotFound)
		}
		return nil, err
	}

	conversationID := models.ConversationID(userID, counterpartID)
	messages, err := s.messageRepo.GetConversationMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// ListConversations, kullanıcının konuşma listesini döner.
func (s *chatService) ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	summaries, err := s.messageRepo.ListConversations(ctx, userID)
	if err != nil {
		return nil, err
	}

	if summaries == nil {
		summaries = []models.ConversationSummary{}
	}
	return summaries, nil
}
