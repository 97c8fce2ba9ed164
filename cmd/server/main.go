package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"v2v-radar/service/internal/auth"
	"v2v-radar/service/internal/config"
	"v2v-radar/service/internal/engine"
	"v2v-radar/service/internal/session"
	"v2v-radar/service/internal/store"
	transporthttp "v2v-radar/service/internal/transport/http"
	"v2v-radar/service/internal/transport/ws"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("starting v2v-radar", zap.String("port", cfg.HTTPPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisStore, err := store.NewRedisStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("redis unavailable", zap.Error(err))
	}
	defer redisStore.Close()

	sessions := session.NewRegistry()
	eng := engine.New(redisStore, sessions, cfg, logger)
	wsHandler := ws.NewHandler(eng, sessions, cfg, logger)

	var userStore *store.UserStore
	mux := http.NewServeMux()
	if cfg.AuthRequired {
		userStore, err = store.NewUserStore(ctx, cfg)
		if err != nil {
			logger.Fatal("user store unavailable", zap.Error(err))
		}
		defer userStore.Close()

		authenticator := auth.NewAuthenticator(cfg, userStore)
		mux.Handle("/ws", transporthttp.NewAuthMiddleware(authenticator).Wrap(wsHandler))
	} else {
		mux.Handle("/ws", wsHandler)
	}

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := redisStore.Ping(r.Context()); err != nil {
			http.Error(w, "redis unreachable", http.StatusServiceUnavailable)
			return
		}
		if userStore != nil {
			if err := userStore.Ping(r.Context()); err != nil {
				http.Error(w, "user store unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		redisStore.RunJanitor(gctx, time.Duration(cfg.GeoJanitorIntervalMS)*time.Millisecond)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
