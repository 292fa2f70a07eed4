/**
 * Math Solver Service - Main Entry Point
 *
 * HTTP service that reads a math problem from an uploaded image and returns
 * a step-by-step solution.
 *
 * Architecture:
 * - gin HTTP boundary (POST /solve_math_problem, GET /, GET /health)
 * - Image preprocessing (grayscale, contrast, sharpen, threshold)
 * - Tesseract OCR behind a single-writer queue (one engine per process)
 * - SiliconFlow chat-completion API for the solution text
 */

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/adverant/nexus/mathsolver/internal/clients"
	"github.com/adverant/nexus/mathsolver/internal/config"
	"github.com/adverant/nexus/mathsolver/internal/logging"
	"github.com/adverant/nexus/mathsolver/internal/processor"
	"github.com/adverant/nexus/mathsolver/internal/queue"
	"github.com/adverant/nexus/mathsolver/internal/server"
)

func main() {
	logger := logging.NewLogger("main")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn(".env not found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Configure(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	logger.Info("Math solver starting",
		"addr", cfg.Addr(),
		"model", cfg.Model,
		"ocrLanguages", cfg.OCRLanguages,
		"apiKeyConfigured", cfg.SiliconFlowAPIKey != "")

	// One OCR engine for the whole process
	tesseract, err := processor.NewTesseractOCR(&processor.TesseractConfig{
		Languages: cfg.OCRLanguages,
	})
	if err != nil {
		logger.Error("Failed to initialize Tesseract", "error", err)
		os.Exit(1)
	}

	ocrQueue, err := queue.NewOCRQueue(&queue.OCRQueueConfig{
		Engine:  tesseract,
		Backlog: 16,
	})
	if err != nil {
		logger.Error("Failed to initialize OCR queue", "error", err)
		os.Exit(1)
	}
	if err := ocrQueue.Start(); err != nil {
		logger.Error("Failed to start OCR queue", "error", err)
		os.Exit(1)
	}

	solver := clients.NewSiliconFlowClient(&clients.SiliconFlowConfig{
		APIKey:      cfg.SiliconFlowAPIKey,
		APIURL:      cfg.SiliconFlowAPIURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.SolverTimeout,
	})

	proc, err := processor.NewProblemProcessor(&processor.ProcessorConfig{
		OCR:            ocrQueue,
		Solver:         solver,
		MaxImagePixels: cfg.MaxImagePixels,
	})
	if err != nil {
		logger.Error("Failed to initialize problem processor", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: server.NewRouter(&server.RouterConfig{
			Processor:     proc,
			MaxUploadSize: cfg.MaxUploadSize,
			FrontendDir:   cfg.FrontendDir,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Received signal, initiating graceful shutdown", "signal", sig.String())

	// In-flight solves may take up to the solver timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.SolverTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Error stopping HTTP server", "error", err)
	}

	if err := ocrQueue.Stop(); err != nil {
		logger.Error("Error stopping OCR queue", "error", err)
	}
	if err := tesseract.Close(); err != nil {
		logger.Error("Error closing Tesseract", "error", err)
	}

	logger.Info("Shutdown complete")
}
