package repository

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lostal/creative-hands-sub001/database"
	"github.com/lostal/creative-hands-sub001/models"
	"github.com/lostal/creative-hands-sub001/pkg"
)

// newTestDB, geçici dizinde gerçek bir SQLite veritabanı açar ve
// embedded migration'ları uygular. Test bitince dosya t.TempDir ile silinir.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	require.NoError(t, err)

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), migrationsFS)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

// createTestUser, testler için kullanıcı dizinine bir kayıt ekler.
func createTestUser(t *testing.T, users UserRepository, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		PasswordHash: "not-a-real-hash",
		Role:         models.RoleBuyer,
	}
	require.NoError(t, users.Create(context.Background(), user))
	require.NotEmpty(t, user.ID)
	return user
}

// createTestMessage, belirli bir created_at ile mesaj persist eder.
func createTestMessage(t *testing.T, messages MessageRepository, sender, receiver *models.User, content string, at time.Time) *models.Message {
	t.Helper()

	m := &models.Message{
		ConversationID: models.ConversationID(sender.ID, receiver.ID),
		SenderID:       sender.ID,
		ReceiverID:     receiver.ID,
		Content:        content,
		CreatedAt:      at,
	}
	require.NoError(t, messages.Create(context.Background(), m))
	require.NotEmpty(t, m.ID)
	return m
}

func TestMessageRepoCreateAndGetConversation(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	messages := NewSQLiteMessageRepo(db.Conn)
	ctx := context.Background()

	alice := createTestUser(t, users, "alice")
	bob := createTestUser(t, users, "bob")

	base := time.Now().UTC().Truncate(time.Second)
	createTestMessage(t, messages, alice, bob, "ilk mesaj", base)
	createTestMessage(t, messages, bob, alice, "cevap", base.Add(time.Second))
	// Aynı saniye içinde ikinci mesaj — rowid tiebreak sırayı korumalı
	createTestMessage(t, messages, alice, bob, "hemen ardından", base.Add(time.Second))

	history, err := messages.GetConversationMessages(ctx, models.ConversationID(alice.ID, bob.ID))
	require.NoError(t, err)
	require.Len(t, history, 3)

	// Kronolojik sıra: eskiden yeniye, insert sırası korunur
	assert.Equal(t, "ilk mesaj", history[0].Content)
	assert.Equal(t, "cevap", history[1].Content)
	assert.Equal(t, "hemen ardından", history[2].Content)

	// Yeni mesajlar okunmamış başlar
	for _, m := range history {
		assert.False(t, m.Read)
		assert.Nil(t, m.ReadAt)
	}

	// Konuşma kimliği simetriktir — karşı taraftan bakınca da aynı geçmiş
	sameHistory, err := messages.GetConversationMessages(ctx, models.ConversationID(bob.ID, alice.ID))
	require.NoError(t, err)
	assert.Len(t, sameHistory, 3)
}

func TestMessageRepoMarkConversationRead(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	messages := NewSQLiteMessageRepo(db.Conn)
	ctx := context.Background()

	alice := createTestUser(t, users, "alice")
	bob := createTestUser(t, users, "bob")
	convID := models.ConversationID(alice.ID, bob.ID)

	base := time.Now().UTC().Truncate(time.Second)
	createTestMessage(t, messages, alice, bob, "bir", base)
	createTestMessage(t, messages, alice, bob, "iki", base.Add(time.Second))
	// Bob'un kendi gönderdiği mesaj batch'e dahil edilmemeli
	createTestMessage(t, messages, bob, alice, "üç", base.Add(2*time.Second))

	updated, otherID, err := messages.MarkConversationRead(ctx, bob.ID, convID, time.Now().UTC())
	require.NoError(t, err)

	// Sadece Bob'a GÖNDERİLMİŞ 2 mesaj işaretlenir; karşı taraf Alice'tir
	assert.EqualValues(t, 2, updated)
	assert.Equal(t, alice.ID, otherID)

	history, err := messages.GetConversationMessages(ctx, convID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, history[0].Read)
	assert.NotNil(t, history[0].ReadAt)
	assert.True(t, history[1].Read)
	assert.False(t, history[2].Read, "bob's own outgoing message must stay unread")

	// İdempotent: ikinci çağrıda işaretlenecek satır kalmaz
	updated, otherID, err = messages.MarkConversationRead(ctx, bob.ID, convID, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, updated)
	assert.Equal(t, alice.ID, otherID)
}

func TestMessageRepoMarkConversationReadForbidden(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	messages := NewSQLiteMessageRepo(db.Conn)
	ctx := context.Background()

	alice := createTestUser(t, users, "alice")
	bob := createTestUser(t, users, "bob")
	mallory := createTestUser(t, users, "mallory")
	convID := models.ConversationID(alice.ID, bob.ID)

	createTestMessage(t, messages, alice, bob, "gizli", time.Now().UTC())

	// Konuşmanın katılımcısı olmayan biri işaretleyemez
	_, _, err := messages.MarkConversationRead(ctx, mallory.ID, convID, time.Now().UTC())
	assert.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestMessageRepoMarkConversationReadUnknownConversation(t *testing.T) {
	db := newTestDB(t)
	messages := NewSQLiteMessageRepo(db.Conn)

	_, _, err := messages.MarkConversationRead(context.Background(), "anyone", "no:conversation", time.Now().UTC())
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestMessageRepoListConversations(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	messages := NewSQLiteMessageRepo(db.Conn)
	ctx := context.Background()

	alice := createTestUser(t, users, "alice")
	bob := createTestUser(t, users, "bob")
	carol := createTestUser(t, users, "carol")

	base := time.Now().UTC().Truncate(time.Second)

	// alice ↔ bob: 2 mesaj, ikisi de alice'e gelmiş ve okunmamış
	createTestMessage(t, messages, bob, alice, "selam", base)
	createTestMessage(t, messages, bob, alice, "orada mısın", base.Add(time.Second))

	// alice ↔ carol: daha yeni bir konuşma, son mesaj alice'ten
	createTestMessage(t, messages, carol, alice, "sipariş hazır mı", base.Add(2*time.Second))
	createTestMessage(t, messages, alice, carol, "evet, kargoda", base.Add(3*time.Second))

	summaries, err := messages.ListConversations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Son mesaj zamanına göre en yeniden eskiye
	carolConv := summaries[0]
	bobConv := summaries[1]

	require.NotNil(t, carolConv.OtherUser)
	assert.Equal(t, carol.ID, carolConv.OtherUser.ID)
	require.NotNil(t, carolConv.LastMessage)
	assert.Equal(t, "evet, kargoda", carolConv.LastMessage.Content)
	// Carol'ın tek mesajı alice tarafından okunmadı
	assert.Equal(t, 1, carolConv.UnreadCount)

	assert.Equal(t, bob.ID, bobConv.OtherUser.ID)
	assert.Equal(t, "orada mısın", bobConv.LastMessage.Content)
	assert.Equal(t, 2, bobConv.UnreadCount)

	// Liste sorgusunda hassas alanlar taşınmaz
	assert.Empty(t, carolConv.OtherUser.PasswordHash)
	assert.Nil(t, carolConv.OtherUser.Email)

	// Okundu işaretleme unread sayısını sıfırlar
	_, _, err = messages.MarkConversationRead(ctx, alice.ID, models.ConversationID(alice.ID, bob.ID), time.Now().UTC())
	require.NoError(t, err)

	summaries, err = messages.ListConversations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, 0, summaries[1].UnreadCount)

	// Konuşması olmayan kullanıcı boş liste alır
	summaries, err = messages.ListConversations(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, summaries, 1) // bob'un tek konuşması alice ile
}
