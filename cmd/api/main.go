// empleos-service — Job Search & Notification Data Pipeline
//
// Backend for the app-empleos mobile client:
//   - paged job search against the JSearch API with per-user fetch state
//   - hourly background rechecks that emit one notification per new posting
//   - resilient résumé reads with an offline cache fallback
//   - per-user saved/applied job lists and a notification inbox
//
// New-job notifications are published to Redis (EVENT_NEW_JOB) for the
// push-delivery worker to forward.
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

	"github.com/joho/godotenv"

	"github.com/DanielDev87/app-empleos/internal/api"
	"github.com/DanielDev87/app-empleos/internal/config"
	"github.com/DanielDev87/app-empleos/internal/db"
	"github.com/DanielDev87/app-empleos/internal/jsearch"
	"github.com/DanielDev87/app-empleos/internal/myjobs"
	"github.com/DanielDev87/app-empleos/internal/notify"
	"github.com/DanielDev87/app-empleos/internal/resume"
	"github.com/DanielDev87/app-empleos/internal/store"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	if err := godotenv.Load(); err != nil {
		log.Println("[empleos] No .env file found — using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[empleos] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Backing stores ───────────────────────────────────────────────────────
	log.Println("[empleos] Connecting to PostgreSQL and Redis…")
	conns, err := db.Connect(ctx, cfg.DatabaseURL, cfg.RedisURL, int32(cfg.DBMaxConns))
	if err != nil {
		log.Fatalf("[empleos] Connect: %v", err)
	}
	defer conns.Close()
	log.Println("[empleos] Stores connected ✓")

	// ── Core wiring ──────────────────────────────────────────────────────────
	kv := store.NewRedisKV(conns.RDB)
	client := jsearch.NewClient(cfg.JSearchAPIKey, cfg.JSearchAPIHost)

	detector := notify.NewDetector(client, kv)
	notifier := notify.NewRedisNotifier(conns.RDB)
	inbox := notify.NewInbox(kv)
	sched := notify.NewScheduler(cfg.CheckIntervalHours)
	notifs := notify.NewService(kv, detector, notifier, inbox, sched)

	docs := resume.NewDocStore(conns.Pool, kv)
	reader := resume.NewReader(docs)
	go func() {
		for err := range reader.Errors() {
			log.Printf("[empleos] resume store reconnect failed: %v", err)
		}
	}()

	myJobs := myjobs.NewService(kv)

	sched.Start()
	defer sched.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	h := api.NewHandler(client, cfg.SearchPageSize, notifs, inbox, reader, docs, myJobs)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("[empleos] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[empleos] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[empleos] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[empleos] Shutdown error: %v", err)
	}
	log.Println("[empleos] Bye")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"empleos-service","version":%q}`, version)
}
