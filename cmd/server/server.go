package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/changchangw/prospector/server"
	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
)

type Server struct {
	router     *way.Router
	GameServer *server.GameServer
}

func main() {
	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatalln(err)
	}
	if err := server.SetupLogging(cfg); err != nil {
		log.Fatalln(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	directory := server.NewDirectory()
	registry := server.NewRegistry(cfg, directory)
	s := Server{
		GameServer: server.NewGameServer(cfg, registry, directory),
	}
	go registry.Loop(ctx, cfg.SweepInterval)
	s.routes()

	httpServer := &http.Server{Addr: ":" + cfg.Port, Handler: s.router}
	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		_ = httpServer.Close()
	}()
	log.Printf("Prospector listening on port %s", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalln(err)
	}
}
