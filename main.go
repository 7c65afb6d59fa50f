package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	config "github.com/phillip/eventhub-go/config"
	controllers "github.com/phillip/eventhub-go/controllers"
	routes "github.com/phillip/eventhub-go/routes"
	store "github.com/phillip/eventhub-go/store"
	utils "github.com/phillip/eventhub-go/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using environment")
	}

	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	log.SetFormatter(&log.JSONFormatter{})
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	events, err := openStore(ctx, cfg)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("could not open event store")
	}

	photos, err := openPhotoStore(cfg)
	if err != nil {
		log.WithError(err).Fatal("could not set up photo storage")
	}

	if !cfg.AuthEnabled() {
		log.Warn("JWT_SECRET is empty, admin routes are open")
	}

	deps := &controllers.Deps{
		Config: cfg,
		Store:  events,
		Photos: photos,
		Mailer: &utils.Mailer{
			APIURL: cfg.Mail.APIURL,
			APIKey: cfg.Mail.APIKey,
			From:   cfg.Mail.From,
		},
		Location: utils.ResolveLocation(cfg.Timezone),
	}

	r := gin.New()
	routes.SetupRoutes(r, cfg, deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.WithFields(log.Fields{
			"addr":   cfg.HTTPAddr,
			"store":  cfg.StoreDriver,
			"photos": cfg.PhotoStorage,
		}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	if err := events.Close(shutdownCtx); err != nil {
		log.WithError(err).Error("closing event store failed")
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.EventStore, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		return store.NewMongoStore(ctx, cfg.MongoURI, cfg.DBName)
	default:
		return store.NewSQLiteStore(ctx, cfg.SQLiteDSN)
	}
}

func openPhotoStore(cfg *config.Config) (utils.PhotoStore, error) {
	switch cfg.PhotoStorage {
	case config.PhotosCloudinary:
		return utils.NewCloudinaryPhotoStore(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, cfg.Cloudinary.Folder)
	default:
		return utils.NewLocalPhotoStore(cfg.UploadDir, cfg.UploadURL)
	}
}
