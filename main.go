package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"wccleanup/config"
	"wccleanup/database"
	"wccleanup/handlers"
	"wccleanup/logger"
	"wccleanup/metrics"
	"wccleanup/middleware"
	"wccleanup/repositories"
	"wccleanup/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := os.Getenv("WCCLEANUP_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logger.Init(cfg.Logging)
	logger.Infof("starting wccleanup service")

	if err := database.InitMySQL(&cfg.Database); err != nil {
		log.Fatalf("init mysql failed: %v", err)
	}
	if cfg.Redis.Enabled {
		if err := database.InitRedis(&cfg.Redis); err != nil {
			log.Fatalf("init redis failed: %v", err)
		}
	}

	tables := repositories.NewTables(cfg.Database.TablePrefix)
	orders, err := repositories.ProbeOrderStorage(context.Background(), database.DB, tables, cfg.Cleanup.OrderBackend)
	if err != nil {
		log.Fatalf("probe order storage failed: %v", err)
	}
	logger.Infof("order storage: %s", orders.Name())

	cache := repositories.NewCountCache(cfg.Cache.Driver, database.RedisClient, cfg.Cache.KeyPrefix, cfg.Cache.MemoryCapacity)
	repoContainer := repositories.NewGormRepositories(database.DB, database.RedisClient, tables, orders).
		WithCache(cache).
		BuildContainer()
	settings := services.SettingsFromConfig(cfg)
	settings.Location, err = storeLocation(cfg)
	if err != nil {
		log.Fatalf("resolve store timezone failed: %v", err)
	}
	logger.Infof("store timezone: %s", settings.Location)
	serviceContainer := services.NewContainer(repoContainer, settings)
	handlers.SetServices(serviceContainer)

	if err := serviceContainer.Warmer.Start(cfg.Cache.WarmSchedule); err != nil {
		log.Fatalf("start cache warmer failed: %v", err)
	}
	defer serviceContainer.Warmer.Stop()

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(), middleware.RequestMetrics(), middleware.CORS(cfg.Server.CORSOrigins))
	handlers.RegisterRoutes(r, serviceContainer.Auth)

	if cfg.Metrics.Enabled {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			log.Fatalf("register metrics failed: %v", err)
		}
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("server listening on http://%s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server start failed: %v", err)
	}
}

// storeLocation prefers the configured timezone and otherwise asks WordPress.
func storeLocation(cfg *config.Config) (*time.Location, error) {
	if cfg.Cleanup.Timezone != "" {
		return time.LoadLocation(cfg.Cleanup.Timezone)
	}
	return repositories.SiteLocation(context.Background(), database.DB, repositories.NewTables(cfg.Database.TablePrefix))
}
