package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carecircle/carecircle_api/config"
	deps "github.com/carecircle/carecircle_api/internal/debs"
	api "github.com/carecircle/carecircle_api/internal/http/rest"
)

const (
	allowConnectionsAfterShutdown = 1 * time.Second
)

func main() {
	cfg := config.New()
	deps := deps.New(cfg)

	a := &api.API{
		Config: cfg,
		Deps:   deps,
		Mailer: deps.Mailer,
		DB:     deps.Pool(),
	}
	a.Init()

	ctx, cancel := context.WithCancel(context.Background())
	go deps.Hub.Run()
	go deps.Scheduler.Run(ctx)
	go func() {
		log.Printf("Server running on port %v ...", cfg.Port)
		log.Fatal(a.Serve())
	}()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-stopChan

	log.Println("Request to shutdown server. Doing nothing for ", allowConnectionsAfterShutdown)
	waitTimer := time.NewTimer(allowConnectionsAfterShutdown)
	<-waitTimer.C

	log.Println("Shutting down server...")
	cancel()

	if err := a.Shutdown(); err != nil {
		log.Println("server shutdown error", "error", err)
	}

	deps.DB.Close()
	log.Println("Database connections closed.")
}
