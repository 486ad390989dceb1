package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/crisiscare/crisiscare-backend/internal/config"
	"github.com/crisiscare/crisiscare-backend/internal/database"
	"github.com/crisiscare/crisiscare-backend/internal/handlers"
	"github.com/crisiscare/crisiscare-backend/internal/logger"
	"github.com/crisiscare/crisiscare-backend/internal/metrics"
	"github.com/crisiscare/crisiscare-backend/internal/middleware"
	"github.com/crisiscare/crisiscare-backend/internal/routes"
	"github.com/crisiscare/crisiscare-backend/internal/services"
	"github.com/crisiscare/crisiscare-backend/internal/store"
	"github.com/crisiscare/crisiscare-backend/pkg/clientip"
)

func main() {
	// Load env before the logger reads ENV
	envErr := godotenv.Load()
	log := logger.GetLogger()
	defer logger.Close()
	if envErr != nil {
		log.Info("No .env file found")
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.NewEntryStore(cfg.DataDir, cfg.EntriesJSONFile, cfg.EntriesTextFile)
	if err != nil {
		log.Fatalw("Failed to prepare data directory", "dir", cfg.DataDir, "error", err)
	}
	log.Infow("✅ Entry store ready", "json", st.JSONPath(), "text", st.TextPath())

	m := metrics.New()
	ips := clientip.Resolver{TrustProxy: cfg.TrustProxy}
	hub := services.NewHub(m)
	opts := []services.Option{services.WithMetrics(m)}

	submitLimiter := middleware.NewIPRateLimiter(cfg.SubmitRatePerMin, cfg.SubmitRateBurst, ips, m).Middleware

	// Redis: shared abuse blocking and cross-instance live feed
	var feed *services.LiveFeed
	if cfg.RedisURI != "" {
		log.Info("Connecting to Redis...")
		rdb, err := database.ConnectRedis(cfg.RedisURI)
		if err != nil {
			log.Warnw("⚠️  Redis unavailable, continuing without it", "error", err)
		} else {
			defer rdb.Close()
			redisLimiter := middleware.NewRedisRateLimiter(rdb, ips, m).Middleware
			ipLimiter := submitLimiter
			submitLimiter = func(next http.Handler) http.Handler {
				return ipLimiter(redisLimiter(next))
			}
			feed = services.NewLiveFeed(hub, rdb)
			log.Info("✅ Redis connected")
		}
	}
	if feed == nil {
		feed = services.NewLiveFeed(hub, nil)
	}
	feed.Start(ctx)
	opts = append(opts, services.WithFeed(feed))

	// Optional archives
	var archives []services.Archiver
	if cfg.PostgresURI != "" {
		log.Info("Connecting to PostgreSQL...")
		db, err := database.ConnectPostgres(cfg.PostgresURI)
		if err != nil {
			log.Warnw("⚠️  PostgreSQL unavailable, archive disabled", "error", err)
		} else {
			defer db.Close()
			archives = append(archives, services.NewPostgresArchive(db))
			log.Info("✅ PostgreSQL archive enabled")
		}
	}
	if cfg.MongoURI != "" {
		log.Info("Connecting to MongoDB...")
		mdb, err := database.ConnectMongo(cfg.MongoURI)
		if err != nil {
			log.Warnw("⚠️  MongoDB unavailable, archive disabled", "error", err)
		} else {
			defer database.DisconnectMongo(mdb)
			archives = append(archives, services.NewMongoArchive(mdb))
			log.Infow("✅ MongoDB archive enabled", "database", mdb.Name())
		}
	}
	if len(archives) > 0 {
		opts = append(opts, services.WithArchives(archives...))
	}

	svc := services.NewCommunityHelpService(st, opts...)

	r := routes.NewRouter(routes.Deps{
		CommunityHelp:  &handlers.CommunityHelpHandler{Service: svc},
		LiveFeed:       &handlers.LiveFeedHandler{Hub: hub},
		SubmitLimiter:  submitLimiter,
		Metrics:        m.Handler(),
		AllowedOrigins: cfg.AllowedOrigins,
		Production:     cfg.IsProduction(),
		StaticDir:      cfg.StaticDir,
	})
	if cfg.IsProduction() {
		log.Info("✅ Production security headers enabled")
	}

	log.Info("📋 Registered routes:")
	log.Info("  GET  /health")
	log.Info("  POST /api/community-help")
	log.Info("  GET  /api/community-help")
	log.Info("  GET  /api/help-locations")
	log.Info("  GET  /ws/community-help")
	log.Info("  GET  /metrics")
	if cfg.StaticDir != "" {
		log.Infow("  GET  /*", "static_dir", cfg.StaticDir)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnw("Graceful shutdown failed", "error", err)
		}
	}()

	log.Infof("🚀 CrisisCare server running at http://localhost:%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalw("Failed to start server", "error", err)
	}
}
