package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"mangashelf/internal/grpcserver"
	"mangashelf/internal/manga"
	"mangashelf/internal/settings"
	"mangashelf/pkg/database"
	"mangashelf/pkg/utils"
)

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	db := database.MustOpen(cfg.Database)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	settingsRepo := settings.NewRepo(db, cfg.Library.DefaultDirectory)
	if err := settingsRepo.EnsureDefaults(context.Background()); err != nil {
		log.Fatalf("default settings failed: %v", err)
	}

	listener, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		log.Fatalf("grpc listen failed: %v", err)
	}

	svc := grpcserver.NewServer(manga.NewRepo(db), settingsRepo)

	grpcServer := grpc.NewServer()
	grpcserver.Register(grpcServer, svc)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Printf("shutdown signal received: %s", sig)
		grpcServer.GracefulStop()
	}()

	log.Printf("gRPC server listening on %s", cfg.GRPC.Addr)
	if err := grpcServer.Serve(listener); err != nil {
		log.Fatalf("grpc server stopped: %v", err)
	}
	log.Println("gRPC server stopped")
}
