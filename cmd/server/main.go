package main

import (
	"context"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/zapconfeitaria/api/internal/config"
	"github.com/zapconfeitaria/api/internal/database"
	"github.com/zapconfeitaria/api/internal/router"
	"github.com/zapconfeitaria/api/internal/scheduler"
	"github.com/zapconfeitaria/api/internal/ws"
)

func main() {
	// .env is optional; real deployments inject environment variables.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to create connection pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	queries := database.New(pool)

	hub := ws.NewHub()
	go hub.Run()

	sched := scheduler.New(queries, hub)
	if err := sched.Start(); err != nil {
		log.Fatalf("Unable to start scheduler: %v", err)
	}
	defer sched.Stop()

	r := router.New(cfg, queries, pool, hub)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
