// Package email, uygulama genelinde email gönderimi için soyutlama katmanı sağlar.
//
// EmailSender interface'i ile email gönderim detayları soyutlanır (Dependency Inversion).
// Şu anki implementasyon Resend API kullanır. İleride farklı bir sağlayıcıya
// geçmek için sadece yeni bir implementasyon yazıp constructor'da değiştirmek yeterli.
//
// Bu paket dışarıya iki şey sunar:
// 1. EmailSender interface — service'ler buna bağımlı olur
// 2. NewResendSender constructor — main.go'da wire-up için
package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
)

// EmailSender, email gönderimi için interface.
// Service katmanı bu interface'e bağımlıdır, concrete Resend implementasyonuna değil.
type EmailSender interface {
	// SendMessageNotification, offline kullanıcıya "yeni mesajın var" email'i gönderir.
	// toEmail: alıcı email adresi, fromName: gönderen kullanıcının görünen ismi.
	// Mesaj içeriği email'e ASLA yazılmaz — sadece kimden geldiği söylenir.
	SendMessageNotification(ctx context.Context, toEmail, fromName string) error
}

// resendSender, Resend API ile email gönderen EmailSender implementasyonu.
type resendSender struct {
	client    *resend.Client
	fromEmail string // Gönderici adresi (ör: Creative Hands <noreply@creativehands.example>)
	appURL    string // Storefront'un public URL'i — mesajlar sayfası linki için
}

// NewResendSender, Resend API client'ı ile yeni bir EmailSender oluşturur.
//
// apiKey: Resend dashboard'dan alınan API key (re_xxxxxxxx formatında).
// fromEmail: Gönderici adresi — Resend'de doğrulanmış domain altında olmalı.
// appURL: Storefront'un public URL'i — email'deki link bu adrese gider.
func NewResendSender(apiKey, fromEmail, appURL string) EmailSender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		appURL:    appURL,
	}
}

// SendMessageNotification, offline mesaj bildirimi gönderir.
//
// Email içeriği:
// - Subject: "New message from {fromName} — Creative Hands"
// - Body: Gönderen ismi + mesajlar sayfasına link içeren basit HTML
// - Mesaj içeriği dahil EDİLMEZ — kullanıcı içeriği sitede görür.
func (s *resendSender) SendMessageNotification(ctx context.Context, toEmail, fromName string) error {
	messagesLink := fmt.Sprintf("%s/messages", s.appURL)

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#faf6f0;font-family:Arial,Helvetica,sans-serif;">
  <table width="100%%" cellpadding="0" cellspacing="0" style="background-color:#faf6f0;padding:40px 0;">
    <tr>
      <td align="center">
        <table width="480" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;padding:40px;">
          <tr>
            <td>
              <h1 style="color:#3d2c1e;font-size:24px;margin:0 0 8px 0;">Creative Hands</h1>
              <h2 style="color:#3d2c1e;font-size:18px;margin:0 0 24px 0;">You have a new message</h2>
              <p style="color:#6b5d4f;font-size:15px;line-height:1.6;margin:0 0 24px 0;">
                <strong>%s</strong> sent you a message while you were away.
                Sign in to read it and reply.
              </p>
              <table cellpadding="0" cellspacing="0" style="margin:0 0 24px 0;">
                <tr>
                  <td style="background-color:#b3722f;border-radius:6px;padding:12px 32px;">
                    <a href="%s" style="color:#ffffff;text-decoration:none;font-size:15px;font-weight:600;">
                      View Messages
                    </a>
                  </td>
                </tr>
              </table>
              <p style="color:#9a8b7a;font-size:13px;line-height:1.6;margin:0;">
                You receive these notifications when someone messages you while you are offline.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`, fromName, messagesLink)

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{toEmail},
		Subject: fmt.Sprintf("New message from %s — Creative Hands", fromName),
		Html:    html,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send message notification email: %w", err)
	}

	return nil
}
