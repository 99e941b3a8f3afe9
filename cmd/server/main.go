package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/plume-sim/backend/internal/config"
	"github.com/plume-sim/backend/internal/publisher"
	"github.com/plume-sim/backend/internal/session"
	"github.com/plume-sim/backend/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}

	broadcaster := ws.NewBroadcaster()
	ctrl := session.NewController(cfg.Sim.UpdateRate, cfg.Sim.FrameID, cfg.StateDir(), broadcaster)
	server := ws.NewServer(cfg, ctrl, broadcaster)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := publisher.New(ctrl)
	go pub.Start(ctx)

	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		cancel()
		os.Exit(0)
	}()

	if err := ws.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
