package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/reusedev/draw-studio/config"
	"github.com/reusedev/draw-studio/internal/modules/logs"
	"github.com/reusedev/draw-studio/internal/modules/storage/local"
	"github.com/reusedev/draw-studio/internal/service/http/handler"
	"github.com/reusedev/draw-studio/internal/service/http/middleware"
)

const shutdownTimeout = 10 * time.Second

// Serve blocks until ctx is done or the listener fails.
func Serve(ctx context.Context, port string) error {
	e := gin.New()
	initRouter(e, config.Get())
	srv := &stdhttp.Server{Addr: port, Handler: e}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logs.Logger.Err(err).Msg("http server shutdown")
		}
	}()
	logs.Logger.Info().Str("addr", port).Msg("http server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
		return err
	}
	return nil
}

func initRouter(e *gin.Engine, c *config.Config) {
	e.MaxMultipartMemory = c.HTTP.MaxUploadMB << 20
	e.Use(gin.Recovery(), middleware.RequestLogger())
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := middleware.RateLimiter(c.HTTP.RateLimit, c.HTTP.Burst)
	if c.StorageEnabled && c.StorageSupplier == config.StorageLocal {
		e.Group(local.RoutePrefix, limiter).Static("/", c.LocalDir)
	}
	v1 := e.Group("/v1", limiter)
	task := v1.Group("/task")
	{
		task.POST("", handler.CreateTask)
		task.GET("", handler.TaskQuery)
	}
	images := v1.Group("/images")
	{
		images.POST("/generate", handler.Generate)
		images.GET("", handler.GetImage)
	}
	v1.GET("/dispatch", handler.DispatchHistory)
}
