package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lostal/creative-hands-sub001/database"
	"github.com/lostal/creative-hands-sub001/models"
	"github.com/lostal/creative-hands-sub001/pkg"
)

// sqliteMessageRepo, MessageRepository interface'inin SQLite implementasyonu.
//
// Diğer repository'lerin aksine TxQuerier değil *sql.DB tutar:
// MarkConversationRead kendi transaction'ını açmak zorundadır
// (database.WithTx, *sql.DB ister).
type sqliteMessageRepo struct {
	db *sql.DB
}

// NewSQLiteMessageRepo, constructor — interface döner.
func NewSQLiteMessageRepo(db *sql.DB) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

func (r *sqliteMessageRepo) Create(ctx context.Context, message *models.Message) error {
	// created_at Go tarafından verilir (time.Now().UTC()) — SQLite'ın
	// CURRENT_TIMESTAMP'i saniye çözünürlüklüdür, hızlı ardışık mesajlarda
	// sıralama bozulur. conversation_id service katmanında hesaplanmıştır.
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, receiver_id, content, created_at)
		VALUES (lower(hex(randomblob(8))), ?, ?, ?, ?, ?)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		message.ConversationID,
		message.SenderID,
		message.ReceiverID,
		message.Content,
		message.CreatedAt,
	).Scan(&message.ID)

	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

func (r *sqliteMessageRepo) GetConversationMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	// rowid tiebreak: aynı created_at'e sahip mesajlarda insert sırası korunur.
	query := `
		SELECT id, conversation_id, sender_id, receiver_id, content, read, read_at, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, rowid ASC`

	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation messages: %w", err)
	}
	defer rows.Close() // Önemli: rows'u kapatmayı ASLA unutma — aksi halde bağlantı sızar (leak)

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID,
			&m.Content, &m.Read, &m.ReadAt, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return messages, nil
}

func (r *sqliteMessageRepo) ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	// Tek sorguda üç şey: her konuşmanın son mesajı (correlated subquery ile
	// seçilir), karşı tarafın kullanıcı bilgisi (CASE ile türetilen ID üzerinden
	// JOIN) ve okunmamış mesaj sayısı (correlated COUNT).
	//
	// Parametre sırası (hepsi userID): unread subquery, CASE, WHERE, WHERE.
	query := `
		SELECT m.conversation_id,
		       m.id, m.sender_id, m.receiver_id, m.content, m.read, m.read_at, m.created_at,
		       u.id, u.username, u.display_name, u.role, u.last_seen_at, u.created_at,
		       (SELECT COUNT(*) FROM messages mu
		        WHERE mu.conversation_id = m.conversation_id
		          AND mu.receiver_id = ? AND mu.read = 0) AS unread_count
		FROM messages m
		JOIN users u ON u.id = CASE WHEN m.sender_id = ? THEN m.receiver_id ELSE m.sender_id END
		WHERE (m.sender_id = ? OR m.receiver_id = ?)
		  AND m.id = (SELECT m2.id FROM messages m2
		              WHERE m2.conversation_id = m.conversation_id
		              ORDER BY m2.created_at DESC, m2.rowid DESC LIMIT 1)
		ORDER BY m.created_at DESC, m.rowid DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var summaries []models.ConversationSummary
	for rows.Next() {
		var s models.ConversationSummary
		var last models.Message
		var other models.User

		if err := rows.Scan(
			&s.ConversationID,
			&last.ID, &last.SenderID, &last.ReceiverID, &last.Content,
			&last.Read, &last.ReadAt, &last.CreatedAt,
			&other.ID, &other.Username, &other.DisplayName, &other.Role,
			&other.LastSeenAt, &other.CreatedAt,
			&s.UnreadCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}

		last.ConversationID = s.ConversationID
		s.LastMessage = &last
		s.OtherUser = &other
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversation rows: %w", err)
	}

	return summaries, nil
}

// MarkConversationRead, bulk read-receipt işlemini tek transaction'da yapar.
//
// Transaction şarttır: karşı taraf ID'sinin türetilmesi ile UPDATE aynı
// snapshot'ta olmalı — arada insert edilen yeni mesaj bu batch'e DAHİL
// edilmez, bir sonraki markRead onu yakalar.
func (r *sqliteMessageRepo) MarkConversationRead(ctx context.Context, readerID, conversationID string, readAt time.Time) (int64, string, error) {
	var updated int64
	var otherID string

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		// Karşı taraf, konuşmanın İLK mesajından türetilir.
		var firstSender, firstReceiver string
		err := tx.QueryRowContext(ctx, `
			SELECT sender_id, receiver_id FROM messages
			WHERE conversation_id = ?
			ORDER BY created_at ASC, rowid ASC LIMIT 1`,
			conversationID,
		).Scan(&firstSender, &firstReceiver)

		if errors.Is(err, sql.ErrNoRows) {
			return pkg.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to resolve conversation participants: %w", err)
		}

		switch readerID {
		case firstSender:
			otherID = firstReceiver
		case firstReceiver:
			otherID = firstSender
		default:
			return fmt.Errorf("%w: not a participant of this conversation", pkg.ErrForbidden)
		}

		// Sadece reader'a GÖNDERİLMİŞ okunmamış mesajlar işaretlenir.
		// Zaten okunmuş satırlar WHERE'e takılır — işlem idempotent'tır.
		result, err := tx.ExecContext(ctx, `
			UPDATE messages SET read = 1, read_at = ?
			WHERE conversation_id = ? AND receiver_id = ? AND read = 0`,
			readAt, conversationID, readerID,
		)
		if err != nil {
			return fmt.Errorf("failed to mark messages read: %w", err)
		}

		updated, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}

		return nil
	})

	if err != nil {
		return 0, "", err
	}

	return updated, otherID, nil
}
