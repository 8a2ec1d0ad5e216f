package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ehabalabdo/med-loop-sub000/pkg/announce"
	"github.com/ehabalabdo/med-loop-sub000/pkg/billing"
	"github.com/ehabalabdo/med-loop-sub000/pkg/checkin"
	"github.com/ehabalabdo/med-loop-sub000/pkg/clinic"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/config"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/database"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/kafka"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/logger"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"github.com/ehabalabdo/med-loop-sub000/pkg/gateway/auth"
	"github.com/ehabalabdo/med-loop-sub000/pkg/gateway/middleware"
	"github.com/ehabalabdo/med-loop-sub000/pkg/notify"
	"github.com/ehabalabdo/med-loop-sub000/pkg/observability/metrics"
	"github.com/ehabalabdo/med-loop-sub000/pkg/queue"
	"github.com/ehabalabdo/med-loop-sub000/pkg/reminder"
	"github.com/ehabalabdo/med-loop-sub000/pkg/visit"
	"github.com/gorilla/mux"
)

func main() {
	logger.Init()
	metrics.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	repo := clinic.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate clinic tables")
	}

	redisClient := database.GetRedis()

	visitEvents := kafka.NewProducer(cfg.VisitEventTopic)
	defer visitEvents.Close()
	announceEvents := kafka.NewProducer(cfg.AnnounceTopic)
	defer announceEvents.Close()

	rules, err := queue.LoadRules(cfg.QueueRulesPath)
	if err != nil {
		logger.Log.WithError(err).Warn("queue rules load failed, using defaults")
	}
	projector := queue.NewProjector(rules)
	queueCache := queue.NewCache(redisClient, cfg.QueueCacheTTL)

	engine := visit.NewEngine(repo, visitEvents, cfg.ConsultationPrice)
	bridge := checkin.NewBridge(repo, visitEvents)
	billingService := billing.NewService(repo)
	reminderService := reminder.NewService(repo)

	announcer := announce.NewAnnouncer(redisClient, announceEvents, cfg.AnnouncementTTL)
	notifier := notify.NewNotifier(repo, projector, cfg.PollInterval)

	// The announcer observes the full queue stream, unmasked and untruncated,
	// and fires on every waiting -> in-progress edge it sees.
	unsubscribe := notifier.Subscribe(notify.Observer{
		ID:       "call-announcer",
		Internal: true,
	}, func(entries []models.QueueEntry) {
		fired := announcer.Observe(context.Background(), entries)
		for range fired {
			metrics.IncAnnouncement()
		}
	})
	defer unsubscribe()

	jwtManager, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTTL)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to init jwt manager")
	}

	address := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)

	router := mux.NewRouter()
	router.Use(middleware.Logging, middleware.Recovery, middleware.CORS)
	router.Use(middleware.BodyLimit(cfg.MaxRequestBody))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)
	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	if cfg.OIDCIssuer != "" {
		redirectURL := fmt.Sprintf("http://%s/auth/callback", address)
		oidc, err := auth.NewOIDCAuthenticator(cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, redirectURL)
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to init oidc authenticator")
		}
		auth.NewHandler(oidc, jwtManager).Register(router)
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Authenticate(jwtManager))
	visit.NewHandler(engine, repo, queueCache).Register(api)
	checkin.NewHandler(bridge, repo, queueCache).Register(api)
	queue.NewHandler(repo, projector, queueCache).Register(api)
	announce.NewHandler(announcer).Register(api)
	billing.NewHandler(billingService).Register(api)
	reminder.NewHandler(reminderService).Register(api)

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithField("addr", address).Info("Queue service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start queue service")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down queue service...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Queue service forced to shutdown")
	}
	database.ClosePostgres()
	database.CloseRedis()
	logger.Log.Info("Queue service stopped")
}
