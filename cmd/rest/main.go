package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"leadflow-be/internal/bootstrap"
	"leadflow-be/internal/config"
	"leadflow-be/internal/repository/memory"
	"leadflow-be/internal/repository/unitofwork"
	"leadflow-be/internal/server"
	"leadflow-be/internal/tracer"
	"leadflow-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// Tracer is a no-op unless OTEL_ENABLED=true
	shutdownTracer := tracer.InitTracer(cfg.Tracing)
	defer shutdownTracer(context.Background())

	// 2. Initialize Store
	var uowFactory unitofwork.RepositoryFactory
	switch cfg.Database.Driver {
	case "memory":
		log.Println("[WARN] STORE_DRIVER=memory, ledger state is lost on restart")
		uowFactory = memory.NewStore()
	default:
		gormDB, err := database.NewGormDBWithPool(cfg.Database.Connection, database.PoolConfig{
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
		})
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		uowFactory = unitofwork.NewRepositoryFactory(gormDB)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(uowFactory, cfg)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Start Background Services
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}
	if container.NotificationHandler != nil {
		if err := container.NotificationHandler.Start(ctx, container.NatsSubscriber); err != nil {
			log.Printf("Ticket mailer subscription failed: %v", err)
		}
	}
	if cfg.Sweep.Enabled {
		container.Sweeper.Start(ctx)
		defer container.Sweeper.Stop()
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
