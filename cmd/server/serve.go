package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"newsboard/internal/auth"
	"newsboard/internal/config"
	"newsboard/internal/db"
	"newsboard/internal/jobs"
	"newsboard/internal/logger"
	"newsboard/internal/router"
	"newsboard/internal/services"
	"newsboard/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout  = 10 * time.Second
	recomputeTimeout = 5 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func newRevocationStore(ctx context.Context, conf config.RedisConfig, ttl time.Duration) auth.RevocationStore {
	if conf.Addr == "" {
		logger.Log.Info("未配置 Redis，使用进程内令牌吊销表")
		return auth.NewMemoryRevocationStore(0, ttl)
	}
	client, err := auth.NewRedisClient(ctx, conf.Addr, conf.Password, conf.DB)
	if err != nil {
		logger.Log.WithError(err).Warn("Redis 不可用，回退到进程内令牌吊销表")
		return auth.NewMemoryRevocationStore(0, ttl)
	}
	return auth.NewRedisRevocationStore(client)
}

func serve(parent context.Context) error {
	conf, conn, err := bootstrap()
	if err != nil {
		return err
	}
	if err := db.Migrate(conn); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var crawler *services.CrawlerService
	if conf.Crawler.Enabled {
		crawler = services.NewCrawlerService(conf.Crawler.Timeout)
	}
	svc := services.New(conn, crawler)

	issuer, err := auth.NewIssuer(conf.JWT.Secret, conf.JWT.AccessTTL, conf.JWT.RefreshTTL,
		newRevocationStore(ctx, conf.Redis, conf.JWT.RefreshTTL))
	if err != nil {
		return err
	}

	cache := utils.GetCache()
	scheduler := jobs.NewScheduler()
	if schedule := conf.Ranking.RecomputeSchedule; schedule != "" {
		err := scheduler.AddHotnessRecompute(schedule, svc.Ranking, recomputeTimeout, func() {
			cache.DeletePrefix("ranking:")
		})
		if err != nil {
			return err
		}
	}
	scheduler.Start()

	gin.SetMode(conf.Server.Mode)
	engine := router.New(router.Deps{
		Conn:     conn,
		Services: svc,
		Issuer:   issuer,
		Cache:    cache,
		Server:   conf.Server,
		Limits:   conf.RateLimit,
	})

	srv := &http.Server{
		Addr:              conf.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.WithField("addr", srv.Addr).Info("NewsBoard server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Log.Info("正在关闭服务")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Log.Info("服务已关闭")
	return nil
}
