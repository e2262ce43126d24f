package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmceachern/rebook/internal/config"
	"github.com/dmceachern/rebook/internal/database"
	"github.com/dmceachern/rebook/internal/logging"
	"github.com/dmceachern/rebook/internal/server"
	"github.com/dmceachern/rebook/internal/store"
)

func main() {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := bootstrapAdmin(store.NewAdminStore(db), cfg); err != nil {
		log.Fatalf("failed to bootstrap admin: %v", err)
	}

	srv := server.New(db, cfg.SyncCron, logger)
	if err := srv.Scheduler().Start(); err != nil {
		log.Fatalf("failed to start sync scheduler: %v", err)
	}

	// Purge expired sessions hourly.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := srv.SessionStore().DeleteExpired(); err != nil {
				logger.Error("session cleanup", "error", err)
			} else if n > 0 {
				logger.Info("purged expired sessions", "count", n)
			}
			srv.RateLimiter().Cleanup()
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Rebook running at %s\n", cfg.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	srv.Scheduler().Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

// bootstrapAdmin creates the first admin account from the environment when
// the admins table is empty. Without it there is no way to log in.
func bootstrapAdmin(admins *store.AdminStore, cfg config.Config) error {
	n, err := admins.Count()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if cfg.AdminPassword == "" {
		return fmt.Errorf("no admin accounts exist and REBOOK_ADMIN_PASSWORD is not set")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if _, err := admins.Create(cfg.AdminUser, string(hash)); err != nil {
		return err
	}
	fmt.Printf("Created admin account %q\n", cfg.AdminUser)
	return nil
}
