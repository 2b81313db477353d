// Package main, Creative Hands chat sunucusunun giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//   1. Config'i yükle
//   2. Database'i başlat (embedded migration'lar ile)
//   3. Repository'leri oluştur (DB bağlantısı ile)
//   4. WebSocket Hub'ı oluştur
//   5. Service'leri oluştur (repository'ler + hub ile)
//   6. Hub callback'lerini bağla (presence + mesaj akışı)
//   7. Handler'ları oluştur, route'ları bağla
//   8. CORS yapılandır, HTTP Server'ı başlat
//   9. Graceful shutdown
//
// Global değişken YOK — her şey burada oluşturulup birbirine bağlanıyor.
package main

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/lostal/creative-hands-sub001/config"
	"github.com/lostal/creative-hands-sub001/database"
	"github.com/lostal/creative-hands-sub001/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] creative hands chat server starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d)", cfg.Server.Port)

	// ─── 2. Database ───
	// Migration'lar binary'ye gömülü — deploy'da yanında SQL dosyası gerekmez.
	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		log.Fatalf("[main] failed to access embedded migrations: %v", err)
	}

	db, err := database.New(cfg.Database.Path, migrationsFS)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Repository Layer ───
	repos := initRepositories(db.Conn)

	// Süresi dolmuş refresh token oturumlarını periyodik temizle.
	// Logout yapmayan kullanıcıların oturumları 7 gün sonra burada silinir.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := repos.Session.DeleteExpired(context.Background()); err != nil {
				log.Printf("[main] session cleanup failed: %v", err)
			}
		}
	}()

	// ─── 4. WebSocket Hub ───
	// Hub aynı zamanda EventPublisher interface'ini implement eder —
	// service'ler hub'a doğrudan bağımlı olmak yerine interface üzerinden erişir.
	hub := ws.NewHub()

	// ─── 5. Service Layer ───
	svcs, limiters := initServices(repos, hub, cfg)

	// ─── 6. Hub Callback'leri ───
	registerHubCallbacks(hub, repos.User, svcs)

	// ─── 7. Handler + Route ───
	h := initHandlers(svcs, limiters, hub, cfg)

	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth, repos.User)

	// ─── 8. CORS + HTTP Server ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true, // access_token cookie'si cross-origin taşınabilmeli
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      corsHandler.Handler(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─── 9. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	// Önce WebSocket bağlantılarını kapat, sonra HTTP server'ı durdur —
	// yeni request kabul edilmez, mevcutların bitmesi beklenir (5sn timeout).
	hub.Shutdown()
	limiters.Login.Stop()
	limiters.Message.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}
