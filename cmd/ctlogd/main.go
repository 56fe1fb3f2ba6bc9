// Command ctlogd runs a transparency-log HTTP server: the pure merkle
// package wrapped by ctlog's mutex-guarded handlers, persisted through
// ctstore, and pushing tree-head updates through ctnotify.
package main

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kindlyrobotics/ctlog/internal/ctlog"
	"github.com/kindlyrobotics/ctlog/internal/ctnotify"
	"github.com/kindlyrobotics/ctlog/internal/ctstore"
	"github.com/kindlyrobotics/ctlog/merkle"
)

func main() {
	store, err := ctstore.New()
	if err != nil {
		log.Fatalf("[ctlogd] failed to open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("[ctlogd] failed to migrate store: %v", err)
	}

	kp, err := loadOrGenerateKeyPair()
	if err != nil {
		log.Fatalf("[ctlogd] failed to load signing key: %v", err)
	}

	hub := ctnotify.NewHub()
	server := ctlog.NewServer(merkle.SHA256Digest{}, kp, store, hub)

	router := server.Router()
	router.HandleFunc("/ct/v1/watch", hub.ServeWS)

	addr := os.Getenv("CTLOGD_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("[ctlogd] listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[ctlogd] failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[ctlogd] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("[ctlogd] forced shutdown: %v", err)
	}
	log.Println("[ctlogd] exited gracefully")
}

// loadOrGenerateKeyPair reads CTLOGD_SIGNING_KEY (a base64 PKCS#8 DER
// blob) if set, otherwise generates a fresh key pair and logs a
// warning that it is ephemeral — fine
// for local development, not for a deployment that needs a stable
// identity across restarts.
func loadOrGenerateKeyPair() (*merkle.KeyPair, error) {
	if encoded := os.Getenv("CTLOGD_SIGNING_KEY"); encoded != "" {
		der, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, err
		}
		return merkle.NewKeyPairFromPKCS8(der)
	}

	kp, err := merkle.NewKeyPair()
	if err != nil {
		return nil, err
	}
	log.Println("[ctlogd] warning: no CTLOGD_SIGNING_KEY set, generated an ephemeral signing key")
	return kp, nil
}
