// Package main — WebSocket Hub callback wire-up.
//
// registerHubCallbacks, Hub'ın presence ve mesaj callback'lerini ayarlar.
//
// Bu callback'ler neden burada (main package'da)?
// Hub ws paketinde yaşıyor, ama iş mantığı service/repo katmanında.
// Hub'ın service'lere bağımlı olmasını istemiyoruz (Dependency Inversion).
// main package wire-up noktasıdır — tüm katmanları birbirine bağlar.
package main

import (
	"context"
	"log"
	"time"

	"github.com/lostal/creative-hands-sub001/models"
	"github.com/lostal/creative-hands-sub001/repository"
	"github.com/lostal/creative-hands-sub001/services"
	"github.com/lostal/creative-hands-sub001/ws"
)

// registerHubCallbacks, tüm Hub callback'lerini register eder.
//
// Presence callback'leri Register/Deregister içinden ayrı goroutine'de
// çağrılır (Hub lock'u tutulmazken) — içlerinde BroadcastToAll serbesttir.
//
// Mesaj callback'leri ise client'ın ReadPump'ında SENKRON çalışır:
// aynı bağlantıdan gelen event'ler gönderim sırasıyla işlenir.
func registerHubCallbacks(hub *ws.Hub, userRepo repository.UserRepository, svcs *Services) {
	// ─── Presence Callback'leri ───

	// İlk bağlantı: kullanıcı offline'dan online'a geçti.
	// İkinci tab açılışında bu callback TETİKLENMEZ — Hub sadece
	// 0 → 1 geçişinde çağırır, gereksiz broadcast olmaz.
	hub.OnUserFirstConnect(func(userID string) {
		hub.BroadcastToAll(ws.Event{
			Op:   ws.OpUserStatus,
			Data: ws.StatusData{UserID: userID, IsOnline: true},
		})
		log.Printf("[presence] user %s is now online", userID)
	})

	// Son bağlantı koptu: kullanıcı offline oldu.
	// last_seen_at SADECE burada güncellenir — tab kapanışlarında değil.
	hub.OnUserFullyDisconnected(func(userID string) {
		if err := userRepo.UpdateLastSeen(context.Background(), userID, time.Now().UTC()); err != nil {
			log.Printf("[presence] failed to update last seen for user %s: %v", userID, err)
		}

		hub.BroadcastToAll(ws.Event{
			Op:   ws.OpUserStatus,
			Data: ws.StatusData{UserID: userID, IsOnline: false},
		})
		log.Printf("[presence] user %s is now offline", userID)
	})

	// ─── Mesaj Callback'leri ───

	// message:send → ChatService. Dönen error'ı ws katmanı gönderene
	// message:error olarak iletir.
	hub.OnMessageSend(func(senderID string, data ws.MessageSendData) error {
		req := &models.SendMessageRequest{
			ReceiverID: data.ReceiverID,
			Content:    data.Content,
		}
		_, err := svcs.Chat.SendMessage(context.Background(), senderID, req)
		return err
	})

	// messages:read → ReadReceiptService.
	hub.OnMarkRead(func(readerID, conversationID string) error {
		return svcs.ReadReceipt.MarkRead(context.Background(), readerID, conversationID)
	})
}

// Derleme zamanı kontrolü: AuthService, ws.IdentityResolver'ı karşılamalı.
var _ ws.IdentityResolver = (services.AuthService)(nil)
