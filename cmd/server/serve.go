package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yourusername/captchacache/api"
	"github.com/yourusername/captchacache/metrics"
	"github.com/yourusername/captchacache/middleware"
	"github.com/yourusername/captchacache/pkg/captchacache"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the captcha admin API",
	Long: `Serve the captcha admin API over HTTP.

The server refuses to start unless the Redis server has the mCaptcha
cache module loaded with every command this client uses.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsTracker := metrics.NewMetrics()

	cache, err := openCache(ctx, captchacache.WithRecorder(metricsTracker))
	if err != nil {
		return fmt.Errorf("❌ cache module check failed: %w", err)
	}
	defer cache.Close()

	if viper.GetBool("memory") {
		fmt.Println("⚠️  Using the in-process module emulator (not suitable for production)")
	} else {
		fmt.Println("✅ Connected to Redis, mCaptcha cache module verified")
	}

	conn := cache.Conn()
	counter := middleware.NewVisitorCounter(middleware.Config{Cache: conn})

	mux := http.NewServeMux()
	api.NewHandler(conn).Routes(mux)
	mux.Handle("GET /metrics", api.NewMetricsHandler(metricsTracker))
	mux.Handle("GET /widget", counter.Middleware(http.HandlerFunc(widgetHandler)))
	mux.HandleFunc("GET /health", healthHandler)

	addr := viper.GetString("addr")
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	fmt.Println("🧩 captchacache admin API")
	fmt.Println("📍 Listening on http://localhost" + addr)
	fmt.Println()
	fmt.Println("Endpoints:")
	fmt.Println("  POST   /captcha              - Register a captcha")
	fmt.Println("  GET    /captcha/{id}         - Existence and visitor count")
	fmt.Println("  POST   /captcha/{id}/visitor - Record a visitor")
	fmt.Println("  DELETE /captcha/{id}         - Delete a captcha")
	fmt.Println("  GET    /widget?sitekey=ID    - Count a visitor, return difficulty")
	fmt.Println("  GET    /metrics              - Command metrics (?format=json)")
	fmt.Println("  GET    /health               - Health check")
	fmt.Println()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func widgetHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"difficulty_factor": w.Header().Get("X-Captcha-Difficulty"),
		"duration":          w.Header().Get("X-Captcha-Duration"),
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "captchacache",
		"version": Version,
	})
}
