package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-masterbrain-be/internal/bootstrap"
	"ai-masterbrain-be/internal/config"
	"ai-masterbrain-be/internal/server"
	"ai-masterbrain-be/internal/tracer"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to bootstrap: %v", err)
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Printf("Session context consumer failed to start: %v", err)
	}
	if container.RoutingProjection != nil {
		if err := container.RoutingProjection.Start(ctx); err != nil {
			log.Printf("Routing projection failed to start: %v", err)
		}
	}

	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}()

	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
