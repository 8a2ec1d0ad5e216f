package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ehabalabdo/med-loop-sub000/pkg/announce"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/config"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/kafka"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/logger"
	"github.com/gorilla/mux"
)

// The display service is the read side of the announcement stream: it follows
// the announcement topic and serves the transient "now serving" board to
// waiting-room screens.
func main() {
	logger.Init()
	cfg := config.Load()

	keeper := announce.NewBoardKeeper(cfg.AnnouncementTTL)

	consumer := kafka.NewConsumer(cfg.AnnounceTopic, cfg.KafkaGroupID+"-display")
	defer consumer.Close()

	consumeCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	go func() {
		if err := consumer.Consume(consumeCtx, keeper.HandleEvent); err != nil && consumeCtx.Err() == nil {
			logger.Log.WithError(err).Error("announcement consumer stopped")
		}
	}()

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)
	router.HandleFunc("/board", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"announcements": keeper.Snapshot()})
	}).Methods(http.MethodGet)

	address := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.DisplayPort)
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithField("addr", address).Info("Display service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start display service")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down display service...")
	stopConsumer()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Display service forced to shutdown")
	}
	logger.Log.Info("Display service stopped")
}
