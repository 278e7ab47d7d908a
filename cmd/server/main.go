package main

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/Brownie44l1/digit-api/internal/config"
	"github.com/Brownie44l1/digit-api/internal/handlers"
	"github.com/Brownie44l1/digit-api/internal/model"
	"github.com/Brownie44l1/digit-api/internal/recognizer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.SetLevel(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	metadata, err := model.LoadMetadata(cfg.MetadataPath)
	if err != nil {
		log.Fatalf("Failed to load metadata: %v", err)
	}

	env, err := model.InitEnvironment(cfg.LibraryPath)
	if err != nil {
		log.Fatalf("Failed to initialize ONNX runtime: %v", err)
	}
	defer env.Close()

	log.Infof("Loading model from: %s", cfg.ModelPath)
	session, err := model.NewSession(env, cfg.ModelPath, metadata)
	if err != nil {
		log.Fatalf("Failed to initialize model session: %v", err)
	}
	defer session.Close()

	handler := handlers.NewHandler(recognizer.New(session, recognizer.WithLogger(log.WithField("component", "http"))), metadata.Classes)
	router := handler.Router()

	log.Infof("Server starting on port %s", cfg.Port)
	log.Infof("Classes: %v", metadata.Classes)
	log.Info("Endpoints:")
	log.Info("  GET  /health        - Health check")
	log.Info("  POST /predict       - Normalized 28x28 grid prediction")
	log.Info("  POST /predict/image - Predict from image upload")

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Errorf("Server failed: %v", err)
	}
}
