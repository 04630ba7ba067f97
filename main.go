package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agrisage-labs/agrisage-go/handlers"
	"github.com/agrisage-labs/agrisage-go/utils"
	"github.com/lpernett/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

// Load environment variables from .env file
func init() {
	log.Info("Loading environment variables")
	err := godotenv.Load()
	if err != nil {
		log.Warn("Error loading .env file")
	}
}

func main() {
	// Set up logging
	log.SetLevel(log.DebugLevel)
	log.SetFormatter(&log.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	log.Info("Server Version: AgriSage V1")

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)

	// Set up Redis connection
	redisClient := redis.NewClient(&redis.Options{
		Addr:        os.Getenv("REDIS_HOST"),
		Password:    os.Getenv("REDIS_PASSWORD"),
		DB:          0,
		DialTimeout: 20 * time.Second, // initial connection timeout
	})

	redisCtx, cancelRedis := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelRedis()

	_, err = redisClient.Ping(redisCtx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Info("Successfully connected to Redis")

	// External service clients
	gemini := utils.NewGeminiClient()
	hf := utils.NewHuggingFaceClient()
	translator := utils.NewTranslator()
	knowledge := utils.NewKnowledgeBase()
	speech, err := utils.NewSpeechSynthesizer("static/audio")
	if err != nil {
		log.Fatalf("Failed to prepare audio directory: %v", err)
	}

	treatments := utils.NewTreatmentStore(redisClient)
	content := utils.NewContentStore(redisClient)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelSeed()
	if err := treatments.Seed(seedCtx); err != nil {
		log.Warnf("Treatment seeding failed: %v", err)
	}
	if err := content.Seed(seedCtx); err != nil {
		log.Warnf("Content seeding failed: %v", err)
	}

	weather := utils.NewWeatherClient()
	reports := utils.NewReportGenerator()
	chatbot := utils.NewChatbot(gemini, hf, knowledge)

	// Define HTTP routes
	analyze := &handlers.AnalyzeHandler{
		Detector:   gemini,
		Classifier: hf,
		Treatments: treatments,
		Translator: translator,
		Logger:     zapLogger,
	}
	audio := &handlers.AudioHandler{Synth: speech, Logger: zapLogger}
	report := &handlers.ReportHandler{Reports: reports, Logger: zapLogger}
	chat := &handlers.ChatHandler{Bot: chatbot, Logger: zapLogger}
	weatherHandler := &handlers.WeatherHandler{Weather: weather, Logger: zapLogger}
	contentHandler := &handlers.ContentHandler{Content: content}

	http.Handle("/analyze", analyze)
	http.Handle("/generate_audio", audio)
	http.Handle("/generate_report", report)
	http.Handle("/chat", chat)
	http.Handle("/weather", weatherHandler)
	http.HandleFunc("/community_posts", contentHandler.Community)
	http.HandleFunc("/market_prices", contentHandler.Market)
	http.HandleFunc("/farming_tips", contentHandler.Tips)
	http.HandleFunc("/health", handlers.HealthCheckHandler)
	http.HandleFunc("/ws/chat", func(w http.ResponseWriter, r *http.Request) {
		handlers.HandleChatSocket(w, r, chatbot, chatbot)
	})
	http.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// Set up signal handling
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverExit := make(chan struct{})

	// Start HTTP server in a goroutine
	go func() {
		port := ":" + os.Getenv("PORT")
		if port == ":" {
			port = ":8080"
		}
		log.Info("Starting server on...", port)
		log.Fatal(http.ListenAndServe(port, nil))
		close(serverExit)
	}()

	// On termination, close all connections and shut down the server
	select {
	case <-stop:
		log.Info("Shutting down server...")
	case <-serverExit:
		log.Info("Server exited unexpectedly...")
	}

	log.Info("Server shut down gracefully")
}
