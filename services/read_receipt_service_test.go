package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lostal/creative-hands-sub001/pkg"
	"github.com/lostal/creative-hands-sub001/ws"
)

func TestReadReceiptMarkReadBroadcastsToCounterpart(t *testing.T) {
	msgRepo := &fakeMessageRepo{markUpdated: 3, markOther: "alice"}
	hub := newFakePublisher("alice", "bob")
	svc := NewReadReceiptService(msgRepo, hub)

	err := svc.MarkRead(context.Background(), "bob", "alice:bob")
	require.NoError(t, err)

	// Karşı tarafa TEK bir messages:read event'i gider
	receipts := hub.eventsFor("alice", ws.OpMessagesReadAck)
	require.Len(t, receipts, 1)

	data, ok := receipts[0].Data.(ws.ReadData)
	require.True(t, ok)
	assert.Equal(t, "alice:bob", data.ConversationID)

	// Okuyucunun kendisine event gitmez
	assert.Empty(t, hub.eventsFor("bob", ws.OpMessagesReadAck))
}

func TestReadReceiptMarkReadIsIdempotent(t *testing.T) {
	// İkinci çağrıda işaretlenecek satır kalmamıştır — repo 0 döner
	msgRepo := &fakeMessageRepo{markUpdated: 0, markOther: "alice"}
	hub := newFakePublisher("alice", "bob")
	svc := NewReadReceiptService(msgRepo, hub)

	err := svc.MarkRead(context.Background(), "bob", "alice:bob")
	require.NoError(t, err)

	// Hiçbir şey değişmediyse karşı tarafa TEKRAR event gitmez
	assert.Empty(t, hub.eventsFor("alice", ws.OpMessagesReadAck))
}

func TestReadReceiptMarkReadUnknownConversationIsNoop(t *testing.T) {
	// Hiç mesajı olmayan conversation ID → hata değil, sessiz no-op
	msgRepo := &fakeMessageRepo{markErr: pkg.ErrNotFound}
	hub := newFakePublisher()
	svc := NewReadReceiptService(msgRepo, hub)

	err := svc.MarkRead(context.Background(), "bob", "ghost:bob")
	assert.NoError(t, err)

	hub.mu.Lock()
	defer hub.mu.Unlock()
	assert.Empty(t, hub.events)
}

func TestReadReceiptMarkReadEmptyConversationID(t *testing.T) {
	svc := NewReadReceiptService(&fakeMessageRepo{}, newFakePublisher())

	err := svc.MarkRead(context.Background(), "bob", "")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestReadReceiptMarkReadForbiddenPropagates(t *testing.T) {
	// Katılımcısı olmadığı konuşmayı okundu işaretleme girişimi
	msgRepo := &fakeMessageRepo{markErr: pkg.ErrForbidden}
	hub := newFakePublisher()
	svc := NewReadReceiptService(msgRepo, hub)

	err := svc.MarkRead(context.Background(), "mallory", "alice:bob")
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	hub.mu.Lock()
	defer hub.mu.Unlock()
	assert.Empty(t, hub.events)
}
