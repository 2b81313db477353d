// Transaction yardımcıları.
//
// Okundu işaretleme gibi çok adımlı işlemler (karşı tarafı bul + bulk UPDATE)
// atomik olmak zorundadır — adımlardan biri başarısızsa hiçbiri yazılmamalıdır.
// WithTx bu kalıbı tek bir fonksiyonda toplar; repository'ler BEGIN/COMMIT/
// ROLLBACK detayıyla uğraşmaz.
package database

import (
	"context"
	"database/sql"
	"fmt"
)

// TxQuerier, hem *sql.DB hem *sql.Tx tarafından karşılanan sorgu interface'i.
//
// Repository'ler bağımlılık olarak bunu alır: normal akışta connection pool
// (*sql.DB), transaction gereken akışta *sql.Tx geçilir — implementasyon
// değişmeden her ikisiyle de çalışır. database/sql bu interface'i kendisi
// tanımlamaz, burada tanımlıyoruz.
type TxQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx, fn'i bir transaction içinde çalıştırır.
//
// fn nil dönerse COMMIT, error dönerse ROLLBACK yapılır. fn panic atarsa da
// ROLLBACK yapılır ve panic yeniden fırlatılır — rollback'siz açık kalan bir
// transaction SQLite'ta yazma kilidini tutmaya devam ederdi.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}

		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(tx)
	return
}
