// Package database, SQLite bağlantısını ve embedded migration sistemini yönetir.
//
// Neden SQLite?
// Chat alt sistemi tek instance çalışır ve yazma hacmi düşüktür (mesaj +
// okundu güncellemeleri). WAL modundaki SQLite bu yük için fazlasıyla
// yeterlidir ve deploy'da ayrı bir DB sunucusu gerektirmez.
package database

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // Pure-Go driver — CGO gerekmez, driver adı "sqlite"
)

// DB, veritabanı bağlantısını saran struct.
// Conn (*sql.DB) Go'nun built-in connection pool'udur ve thread-safe'dir —
// tüm repository'ler aynı instance'ı paylaşır.
type DB struct {
	Conn *sql.DB
}

// New, SQLite dosyasını açar ve bekleyen migration'ları uygular.
//
// dbPath: SQLite dosya yolu (ör: "./data/chat.db") — dizin yoksa oluşturulur.
// migrationsFS: Migration SQL dosyalarını içeren fs.FS.
// Production'da embed.FS kullanılır (bkz. EmbeddedMigrations), testlerde
// os.DirFS de geçilebilir.
func New(dbPath string, migrationsFS fs.FS) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// foreign_keys: SQLite'ta varsayılan KAPALIDIR — sessions.user_id gibi
	// FK'ların gerçekten uygulanması için açılması şarttır.
	// journal_mode=WAL: okuyucular yazarı bloklamaz — REST geçmiş sorguları
	// ile mesaj insert'leri çakışmadan çalışır.
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{Conn: conn}

	if err := db.migrate(migrationsFS); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("[database] connected and migrations applied")
	return db, nil
}

// Close, veritabanı bağlantısını kapatır. main.go defer ile çağırır.
func (db *DB) Close() error {
	return db.Conn.Close()
}

// migrate, migrations FS'indeki .sql dosyalarını isim sırasıyla uygular.
//
// Uygulanan dosyalar schema_migrations tablosunda takip edilir — sunucu her
// başlatıldığında sadece YENİ dosyalar çalışır. Her dosya kendi transaction'ı
// içinde uygulanır: yarım kalan migration diye bir durum olamaz, ya dosyanın
// tamamı uygulanır ya da hiçbir statement'ı.
func (db *DB) migrate(migrationsFS fs.FS) error {
	if _, err := db.Conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	pending, err := pendingMigrations(db.Conn, migrationsFS)
	if err != nil {
		return err
	}

	for _, file := range pending {
		content, err := fs.ReadFile(migrationsFS, file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		tx, err := db.Conn.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		// database/sql tek Exec'te birden fazla statement garantisi vermez —
		// dosya statement'lara bölünüp tek tek çalıştırılır.
		for i, stmt := range splitStatements(string(content)) {
			if _, err := tx.Exec(stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("failed to execute migration %s (statement %d): %w", file, i+1, err)
			}
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (filename) VALUES (?)", file); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", file, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", file, err)
		}

		log.Printf("[database] migration applied: %s", file)
	}

	return nil
}

// pendingMigrations, FS'teki .sql dosyalarından henüz uygulanmamış olanları
// isim sırasıyla (001_, 002_, ...) döner.
func pendingMigrations(conn *sql.DB, migrationsFS fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := conn.Query("SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query schema_migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate migration rows: %w", err)
	}

	var pending []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") || applied[name] {
			continue
		}
		pending = append(pending, name)
	}
	sort.Strings(pending)

	return pending, nil
}

// splitStatements, SQL metnini noktalı virgülden böler. String literal
// içindeki noktalı virgüller ('it''s;like;this') statement sonu sayılmaz.
func splitStatements(sql string) []string {
	var statements []string
	var current strings.Builder
	inString := false

	for i := 0; i < len(sql); i++ {
		ch := sql[i]

		if ch == '\'' {
			// '' escape'i tek tırnak demektir, string'i kapatmaz
			if inString && i+1 < len(sql) && sql[i+1] == '\'' {
				current.WriteByte(ch)
				current.WriteByte(sql[i+1])
				i++
				continue
			}
			inString = !inString
		}

		if ch == ';' && !inString {
			if s := strings.TrimSpace(current.String()); s != "" {
				statements = append(statements, s)
			}
			current.Reset()
			continue
		}

		current.WriteByte(ch)
	}

	// Dosya noktalı virgülsüz bitmiş olabilir
	if s := strings.TrimSpace(current.String()); s != "" {
		statements = append(statements, s)
	}

	return statements
}
