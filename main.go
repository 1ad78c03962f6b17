package main

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	gateway "github.com/nashir/pushgate/apigateway"
	"github.com/nashir/pushgate/providers"
	"github.com/nashir/pushgate/relay"
	"github.com/nashir/pushgate/store"
)

var logger = logrus.New()

func main() {
	cfg, err := loadConfig()
	if err != nil {
		logger.Fatalf("Failed to load config, please ensure all required values are defined: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	// Misconfiguration is fatal at startup, never a per-request failure.
	if !cfg.Multitenant && len(cfg.SupportedProviders()) == 0 {
		logger.Fatal("You must enable at least one provider.")
	}
	if cfg.Multitenant && cfg.JWTSecret == "" {
		logger.Fatal("Multitenant mode requires a jwt_secret for tenant management tokens.")
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatalf("Invalid redis url: %v", err)
		}
		rdb = redis.NewClient(opts)
	}

	resolver, err := providers.NewResolver(providers.DefaultCacheSize, nil)
	if err != nil {
		logger.Fatalf("Failed to build provider resolver: %v", err)
	}

	var analytics relay.Collector = relay.NoopCollector{}
	if cfg.AnalyticsEnabled && cfg.GeoIPDatabasePath != "" {
		geo, err := relay.NewGeoCollector(cfg.GeoIPDatabasePath, logger)
		if err != nil {
			logger.Fatalf("Failed to open geoip database: %v", err)
		}
		analytics = geo
	}

	var tenants store.TenantStore
	var auth *gateway.JWTAuth
	if cfg.Multitenant {
		tenants = store.NewTenants(db)
		auth = &gateway.JWTAuth{Key: []byte(cfg.JWTSecret)}
	} else {
		tenants = store.NewSingleTenant(cfg)
	}

	svc := &relay.Service{
		Clients:       store.NewClients(db, logger),
		Notifications: store.NewNotifications(db, logger),
		Tenants:       tenants,
		Resolver:      resolver,
		Redis:         rdb,
		Logger:        logger,
		Config:        cfg,
		Metrics:       relay.NewMetrics(prometheus.DefaultRegisterer),
		Analytics:     analytics,
		Auth:          auth,
		InstanceID:    uuid.New(),
		StartedAt:     time.Now(),
	}

	printBanner(cfg)

	route := GetMainEngine(svc)
	if err := route.Run(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)); err != nil {
		logger.Fatalf("Server stopped: %v", err)
	}
}

// GetMainEngine function responsible for getting all of our routes to be delivered for gin
func GetMainEngine(svc *relay.Service) *gin.Engine {
	route := gin.Default()
	route.HandleMethodNotAllowed = true

	route.Use(gateway.RequestID())
	route.Use(gateway.Instrumentation(prometheus.DefaultRegisterer))

	limiter := gateway.NewRateLimiter(svc.Redis, svc.Logger,
		svc.Config.RateLimit.Requests,
		time.Duration(svc.Config.RateLimit.WindowSeconds)*time.Second)
	route.Use(limiter.Middleware())

	svc.Mount(route)
	route.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return route
}
