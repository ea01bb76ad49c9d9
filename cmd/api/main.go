package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/config"
	"github.com/maxparsons123/happy-ride-helper-sub002/app/controllers"
	"github.com/maxparsons123/happy-ride-helper-sub002/app/services"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/fare"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/history"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/normalizer"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/oracle"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/phone"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/pipeline"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/refstore"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/revgeo"
	"github.com/maxparsons123/happy-ride-helper-sub002/routes"
)

func main() {
	configPath := os.Getenv("DISPATCH_CONFIG")
	if configPath == "" {
		configPath = "config/dispatch.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("starting dispatch resolution service")

	ctx := context.Background()

	// Mongo carries caller profiles and, optionally, the zone dataset.
	// The service runs without it: no history, zones from YAML.
	var mongoDB *mongo.Database
	if client, err := connectMongo(ctx, cfg.MongoURI, logger); err != nil {
		logger.Warn("mongodb unavailable, running without caller history", zap.Error(err))
	} else {
		mongoDB = client.Database(cfg.MongoDB)
		defer client.Disconnect(context.Background())
	}

	var profiles services.ProfileLookup
	if mongoDB != nil {
		profiles = refstore.NewProfileStore(mongoDB, logger)
	}

	var cache services.ICacheService
	if redisCache, err := services.NewRedisCacheService(cfg.RedisURL, logger); err != nil {
		logger.Warn("redis unavailable, running without resolution cache", zap.Error(err))
	} else {
		cache = redisCache
		defer redisCache.Close()
	}

	var ref refstore.Store
	var meili *refstore.MeiliStore
	ms, err := refstore.NewMeiliStore(refstore.MeiliConfig{
		Host:      cfg.Meili.Host,
		APIKey:    cfg.Meili.APIKey,
		IndexName: cfg.Meili.IndexName,
		Timeout:   cfg.Meili.Timeout,
		CacheSize: cfg.Meili.CacheSize,
		Version:   cfg.DatasetVer,
	}, logger)
	if err != nil {
		logger.Warn("reference index unavailable, verification degraded", zap.Error(err))
	} else {
		ref, meili = ms, ms
	}

	zones, err := refstore.LoadZones(ctx, mongoDB, cfg.ZoneFile, logger)
	if err != nil {
		logger.Warn("zone dataset unavailable, results carry no zone", zap.Error(err))
		zones = nil
	}

	pipe := pipeline.New(pipeline.Deps{
		Thresholds:   cfg.Thresholds,
		FailPolicy:   cfg.Oracle.FailPolicy,
		UseLibpostal: cfg.UseLibpostal,
		Phones:       phone.NewAnalyzer("GB"),
		Extractor:    normalizer.NewPatternExtractor(),
		History:      history.NewMatcher(cfg.Thresholds.HistorySimilarityFloor, logger),
		Oracle:       oracle.NewClient(cfg.Oracle.URL, cfg.Oracle.APIKey, cfg.Oracle.Timeout, logger),
		Ref:          ref,
		RevGeo:       revgeo.NewClient(cfg.RevGeo.URL, cfg.RevGeo.Timeout, logger),
		Fares:        fare.NewCalculator(cfg.Fare),
		Zones:        zones,
		Logger:       logger,
	})

	dispatchService := services.NewDispatchService(pipe, profiles, cache, cfg.DatasetVer, logger)
	adminService := services.NewAdminService(meili, cache, logger)

	dispatchController := controllers.NewDispatchController(dispatchService, logger)
	adminController := controllers.NewAdminController(adminService, dispatchService, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	routes.SetupAllRoutes(router, dispatchController, adminController)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	go func() {
		logger.Info("http server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", zap.Error(err))
	}
	logger.Info("server exited")
}

func connectMongo(ctx context.Context, uri string, logger *zap.Logger) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, err
	}
	logger.Info("connected to mongodb")
	return client, nil
}
