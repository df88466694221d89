package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"facetrack/internal/admin"
	"facetrack/internal/attendance"
	"facetrack/internal/config"
	"facetrack/internal/detection"
	"facetrack/internal/handler"
	"facetrack/internal/httpmiddleware"
	"facetrack/internal/identity"
	"facetrack/internal/importer"
	"facetrack/internal/queue"
	"facetrack/internal/recognizer"
	"facetrack/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func run(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer bootCancel()
	if err := store.Bootstrap(bootCtx, db.Client); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer func() { _ = redisClient.Close() }()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "facetrack:detections")
	}

	identities := identity.NewRepository(db.Client)
	resolver := identity.NewResolver(identities)
	attRepo := attendance.NewRepository(db.Client)
	stats := attendance.NewStats(identities, attRepo)
	detRepo := detection.NewRepository(db.Client)
	detLog := detection.NewLog(q)
	admins := admin.NewRepository(db.Client)

	if err := admins.EnsureDefault(bootCtx); err != nil {
		log.Printf("warning: default admin seed failed: %v", err)
	}

	recClient := recognizer.NewClient(cfg.RecognizerURL, cfg.RecognizerTimeout)
	sim := recognizer.NewSimulator(identities, cfg.SimRecognitionRate, cfg.SimConfidenceMin, cfg.SimConfidenceMax, nil)
	gateway := recognizer.NewGateway(recClient, sim)

	policy := attendance.NewPolicy(cfg.OnTimeCutoffHour, cfg.OnTimeCutoffMinute)
	service := attendance.NewService(gateway, resolver, detLog, attRepo, recClient, identities, policy)
	imp := importer.New(identities)

	// Detection writes are queued off the request path; this consumer drains
	// them for the lifetime of the process.
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()
	go func() {
		if err := detection.RunConsumer(consumerCtx, q, detRepo); err != nil {
			log.Printf("detection consumer stopped: %v", err)
		}
	}()

	healthCheck := func(c *gin.Context) (bool, bool) {
		ctx := c.Request.Context()
		return db.Healthy(ctx), redisClient.Healthy(ctx)
	}

	h := handler.New(identities, attRepo, stats, detRepo, service, imp, admins,
		cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, healthCheck)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewIPLimiter(cfg.RateLimitPerMin).Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}
	consumerCancel()

	log.Println("Server exited")
	return nil
}

// CORS middleware for browser requests from the capture and dashboard pages.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
