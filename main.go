package main

import (
	"log"
	"net/http"

	"github.com/jxstanford/bokeh/config"
	"github.com/jxstanford/bokeh/config/database"
	"github.com/jxstanford/bokeh/internal/document/repository"
	"github.com/jxstanford/bokeh/internal/document/service"
	"github.com/jxstanford/bokeh/pkg/logger"
	"github.com/jxstanford/bokeh/router"
	"github.com/jxstanford/bokeh/socket"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables from OS")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.LogLevel)
	defer logger.Log.Sync()

	db, err := database.Connect(cfg.DB)
	if err != nil {
		logger.Sugar.Fatalf("Database unavailable: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Sugar.Fatalf("Failed to migrate database: %v", err)
	}

	repo := repository.NewDocumentRepository(db)
	hub := socket.NewHub(repo)
	go hub.Run()
	go hub.SaveWorker()

	handler, err := router.Setup(cfg, service.NewDocumentService(repo, hub), hub)
	if err != nil {
		logger.Sugar.Fatalf("Failed to set up routes: %v", err)
	}

	logger.Sugar.Infof("Plot server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logger.Sugar.Fatal(err)
	}
}
