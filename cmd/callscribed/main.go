package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"callscribe/internal/api/handlers"
	"callscribe/internal/api/middleware"
	"callscribe/internal/api/routes"
	"callscribe/internal/config"
	"callscribe/internal/dispatch"
	"callscribe/internal/ingest"
	"callscribe/internal/logger"
	pgrepo "callscribe/internal/repositories/postgres"
	"callscribe/internal/providers/llm"
	"callscribe/internal/providers/stt"
	"callscribe/internal/services"
	"callscribe/internal/storage"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config load failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.OpenPostgres(cfg)
	if err != nil {
		log.WithError(err).Fatal("postgres connection failed")
	}
	repo, err := pgrepo.NewCallRepo(db)
	if err != nil {
		log.WithError(err).Fatal("schema migration failed")
	}
	log.Info("postgres connected")

	var store storage.Store
	switch cfg.Storage.Backend {
	case "gcs":
		gcs, err := storage.NewGCSStore(ctx, cfg.Storage.Bucket)
		if err != nil {
			log.WithError(err).Fatal("gcs store init failed")
		}
		store = gcs
	default:
		local, err := storage.NewLocalStore(cfg.Storage.Dir)
		if err != nil {
			log.WithError(err).Fatal("local store init failed")
		}
		store = local
	}
	log.WithField("backend", cfg.Storage.Backend).Info("recording store ready")

	var sttProvider stt.Provider
	if cfg.STT.Enabled {
		sp, err := stt.NewGoogleSpeech(ctx)
		if err != nil {
			log.WithError(err).Fatal("speech client init failed")
		}
		defer sp.Close()
		sttProvider = sp
	}

	var llmProvider llm.Provider
	if cfg.LLM.Enabled {
		lp, err := llm.NewVertexGemini(ctx, cfg.LLM.Project, cfg.LLM.Location, cfg.LLM.Model)
		if err != nil {
			log.WithError(err).Fatal("llm client init failed")
		}
		defer lp.Close()
		llmProvider = lp
	}

	summaries := services.NewSummaryService(llmProvider, cfg.LLM.Timeout, log)
	proc := services.NewProcessingService(repo, store, sttProvider, summaries, cfg.STT.Timeout, cfg.STT.Language, log)

	// Dispatch: a Redis stream when a broker is configured, an in-process
	// pool otherwise. Either way the sweep picks up anything dropped.
	var dispatcher dispatch.Dispatcher
	if cfg.RedisAddr != "" {
		rdb, err := config.OpenRedis(ctx, cfg)
		if err != nil {
			log.WithError(err).Fatal("redis connection failed")
		}
		defer rdb.Close()
		log.Info("redis connected")

		pool := &dispatch.RedisWorkerPool{
			Redis:      rdb,
			Proc:       proc,
			NumWorkers: cfg.DispatchWorker,
			Logger:     log,
		}
		if err := pool.Start(ctx); err != nil {
			log.WithError(err).Fatal("redis worker pool start failed")
		}
		dispatcher = &dispatch.RedisDispatcher{Redis: rdb}
	} else {
		pool := dispatch.NewLocalPool(proc, cfg.DispatchWorker, 256, log)
		pool.Start(ctx)
		dispatcher = pool
	}

	sweeper := dispatch.NewSweeper(repo, proc, cfg.SweepInterval, log)
	go sweeper.Run(ctx)

	ingestor := &ingest.Ingestor{
		Repo:       repo,
		Store:      store,
		Dispatcher: dispatcher,
		Logger:     log,
	}

	if cfg.Gmail.Configured() {
		src, err := ingest.NewGmailSource(ctx, cfg.Gmail.ClientID, cfg.Gmail.ClientSecret, cfg.Gmail.RefreshToken, cfg.Gmail.User, log)
		if err != nil {
			log.WithError(err).Fatal("gmail source init failed")
		}
		poller := &ingest.Poller{
			Source:   src,
			Ingestor: ingestor,
			Interval: cfg.Gmail.PollInterval,
			Logger:   log,
		}
		go poller.Run(ctx)
		log.Info("gmail poller started")
	}

	if cfg.IMAP.Configured() {
		src := &ingest.IMAPSource{
			Addr:     cfg.IMAP.Addr(),
			Username: cfg.IMAP.Username,
			Password: cfg.IMAP.Password,
			Folder:   cfg.IMAP.Folder,
			Logger:   log,
		}
		defer src.Close()
		poller := &ingest.Poller{
			Source:   src,
			Ingestor: ingestor,
			Interval: cfg.IMAP.PollInterval,
			Logger:   log,
		}
		go poller.Run(ctx)
		log.Info("imap poller started")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.RegisterRoutes(r, routes.Deps{
		Calls:   handlers.NewCallHandler(services.NewCallService(repo)),
		Webhook: handlers.NewWebhookHandler(ingestor, cfg.FetchTimeout, cfg.RecordCallback),
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.WithField("port", cfg.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http server shutdown failed")
	}
}
