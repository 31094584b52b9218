package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/reusedev/draw-studio/config"
	"github.com/reusedev/draw-studio/internal/components/mysql"
	"github.com/reusedev/draw-studio/internal/modules/dao"
	"github.com/reusedev/draw-studio/internal/modules/draw"
	"github.com/reusedev/draw-studio/internal/modules/logs"
	"github.com/reusedev/draw-studio/internal/modules/metrics"
	"github.com/reusedev/draw-studio/internal/modules/model"
	"github.com/reusedev/draw-studio/internal/modules/queue"
	"github.com/reusedev/draw-studio/internal/modules/storage"
	"github.com/reusedev/draw-studio/internal/service/http"
	"github.com/reusedev/draw-studio/internal/service/http/handler"
	"github.com/reusedev/draw-studio/tools"
)

var (
	httpPort   string
	configPath string
	envPath    string
)

func init() {
	flag.StringVar(&httpPort, "http-port", ":80", "listen http port")
	flag.StringVar(&configPath, "config", "config.yml", "config file path")
	flag.StringVar(&envPath, "env", ".env", "optional dotenv file with API keys")
}

func main() {
	flag.Parse()
	// keys may live in a dotenv file; a missing file is fine
	_ = godotenv.Load(envPath)
	config.Init(configPath)
	logs.InitLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := config.Watch(ctx, configPath, func(c *config.Config, err error) {
		if err != nil {
			logs.Logger.Warn().Err(err).Str("path", configPath).Msg("config reload rejected")
			return
		}
		logs.SetLevel(c.LogLevel)
		logs.Logger.Info().Str("path", configPath).Msg("config reloaded")
	})
	if err != nil {
		logs.Logger.Warn().Err(err).Msg("config watch disabled")
	}

	conf := config.Get()
	draw.RegisterObserver(metrics.New(prometheus.DefaultRegisterer))
	if conf.MySQL.Enabled {
		mysql.InitMySQL(conf.MySQL)
		if err := mysql.DB.AutoMigrate(&model.InvokeHistory{}, &model.Dispatch{}); err != nil {
			panic(err)
		}
		draw.RegisterObserver(dao.NewRecorder(mysql.DB))
	}
	uploader := tools.PanicOnError(storage.New(conf))

	wg := &sync.WaitGroup{}
	q := queue.NewTaskQueue(conf.Task.QueueSize)
	q.Run(ctx, wg)
	handler.Init(draw.NewStore(conf.Task.ResultTTL), q, uploader, mysql.DB)

	if err := http.Serve(ctx, httpPort); err != nil {
		logs.Logger.Err(err).Msg("http server stopped")
		cancel()
	}
	wg.Wait()
}
