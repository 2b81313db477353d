package handlers

import (
	"net/http"

	"github.com/lostal/creative-hands-sub001/models"
	"github.com/lostal/creative-hands-sub001/pkg"
	"github.com/lostal/creative-hands-sub001/services"
)

// ConversationHandler, konuşma listesi ve mesaj geçmişi endpoint'lerini yönetir.
//
// Mesaj GÖNDERME burada yoktur — o WebSocket üzerinden yapılır.
// REST tarafı sadece okuma: sayfa ilk açıldığında geçmişi çekmek için.
type ConversationHandler struct {
	chatService services.ChatService
}

// NewConversationHandler, constructor.
func NewConversationHandler(chatService services.ChatService) *ConversationHandler {
	return &ConversationHandler{chatService: chatService}
}

// List godoc
// GET /api/conversations
// Auth middleware gerektirir.
//
// Kullanıcının tüm konuşmalarını döner: karşı taraf, son mesaj ve
// okunmamış sayısı — son mesaj zamanına göre en yeniden eskiye.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	summaries, err := h.chatService.ListConversations(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, summaries)
}

// Messages godoc
// GET /api/messages/{counterpartId}
// Auth middleware gerektirir.
//
// Kullanıcı ile karşı taraf arasındaki tam mesaj geçmişini kronolojik
// sırayla döner. Hiç mesajlaşılmamışsa boş liste — 404 değil.
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	// r.PathValue: Go 1.22+ ile gelen path parameter desteği.
	// Route tanımı: GET /api/messages/{counterpartId}
	counterpartID := r.PathValue("counterpartId")
	if counterpartID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "counterpart id is required")
		return
	}

	messages, err := h.chatService.GetConversation(r.Context(), user.ID, counterpartID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, messages)
}
