package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"aistudio/config"
	"aistudio/handlers"
	"aistudio/internal/gateway"
	"aistudio/internal/orchestrator"
	"aistudio/internal/store"
	"aistudio/internal/worker"
	"aistudio/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := config.NewLogger(cfg.LogLevel)

	supaClient, err := config.NewSupabaseClient(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize Supabase client")
	}
	st := store.NewSupabaseStore(supaClient, log)

	gen := gateway.NewOpenAIClient(gateway.OpenAIOptions{
		APIKey:     cfg.OpenAIAPIKey,
		VideoModel: cfg.VideoModel,
		Seconds:    cfg.VideoSeconds,
		Timeout:    cfg.RequestTimeout,
	}, log)

	var images gateway.ImageGenerator
	switch cfg.ImageProvider {
	case "replicate":
		images = gateway.NewReplicateClient(cfg.ReplicateAPIToken, "", cfg.RequestTimeout, log)
	default:
		images = gateway.NewFalAIClient(cfg.FalKey, "", cfg.RequestTimeout, log)
	}
	log.WithField("provider", cfg.ImageProvider).Info("Image generation provider configured")

	core := orchestrator.New(gen, images, st, cfg, log)

	dispatcher := worker.NewDispatcher(cfg.MaxWorkers, cfg.JobQueueSize, log)
	dispatcher.Run()

	h := handlers.NewApplicationHandler(core, st, dispatcher, cfg, log)

	app := fiber.New(fiber.Config{
		AppName: "AI Studio",
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(middleware.RequestLogger(log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "AI Studio is healthy",
		})
	})

	apiV1 := app.Group("/api/v1")

	video := apiV1.Group("/video")
	video.Post("/generate-promo-video", h.GeneratePromoVideo)
	video.Post("/generate-fashion-video", h.GenerateFashionVideo)
	video.Post("/generate-ugc-video", h.GenerateUGCVideo)
	video.Post("/generate-general-video", h.GenerateGeneralVideo)
	video.Post("/remix", h.RemixVideo)
	video.Get("/status/:jobId", h.GetVideoStatus)
	video.Get("/download/:jobId", h.DownloadVideo)

	image := apiV1.Group("/image")
	image.Post("/refine", h.RefineImage)
	image.Get("/status/:jobId", h.GetImageStatus)

	// Graceful shutdown: stop accepting requests, then drain the worker pool.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		log.Info("Shutdown signal received, stopping server")
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("Server shutdown failed")
		}
	}()

	log.Infof("Starting AI Studio on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("Server stopped unexpectedly")
	}

	dispatcher.Stop()
	log.Info("Worker pool drained, exiting")
}
