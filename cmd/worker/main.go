package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"classcall/internal/classroom"
	"classcall/internal/config"
	"classcall/internal/queue"
	"classcall/internal/store"
)

// Worker drains admission events off the queue and appends them to the
// audit trail, keeping that write out of the request path.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "classcall:admissions")
	}

	repo := classroom.NewRepository(db.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for admission events...")
	for msg := range messages {
		if msg.Type != "admission" {
			continue
		}

		var evt classroom.AdmissionEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("bad admission event: %v", err)
			continue
		}

		if err := repo.InsertAuditEvent(ctx, evt.ClassCode, evt.AttendeeEmail, string(evt.Outcome), evt.OccurredAt); err != nil {
			log.Printf("audit insert failed for %s/%s: %v", evt.ClassCode, evt.AttendeeEmail, err)
			continue
		}
	}

	log.Println("worker stopped")
}
