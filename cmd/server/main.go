package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"athena-gateway/internal/athena"
	"athena-gateway/internal/config"
	"athena-gateway/internal/controller"
	"athena-gateway/internal/middleware"
	"athena-gateway/internal/service"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Set Gin mode
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize AWS clients
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Athena.Region))
	if err != nil {
		log.Fatal("Failed to load AWS configuration:", err)
	}
	engine := athena.NewClient(awsCfg, cfg.Athena.Workgroup)
	s3Client := s3.NewFromConfig(awsCfg)

	// Initialize metrics
	middleware.InitMetrics()

	// Initialize rate limiting
	rateLimitConfig := middleware.RateLimiterConfig{
		RPM:             cfg.Security.RateLimitPerMinute,
		Burst:           cfg.Security.RateLimitBurst,
		CleanupInterval: 5 * time.Minute,
	}
	rateLimiter := middleware.NewRateLimiter(rateLimitConfig)

	// Initialize services
	poller := athena.NewPoller(engine)
	normalizer := athena.NewNormalizer(engine)
	catalog := service.NewTemplateCatalog()
	queryService := service.NewQueryService(engine, poller, normalizer, catalog, service.Defaults{
		Database:       cfg.Athena.Database,
		OutputLocation: cfg.Athena.OutputLocation,
		MaxWaitTime:    cfg.Athena.MaxWaitTime,
		MaxRows:        cfg.Athena.MaxRows,
	})

	// Initialize controllers
	queryController := controller.NewQueryController(queryService, catalog)
	healthController := controller.NewHealthController(s3Client, cfg.Athena.Database, cfg.Athena.OutputBucket)

	// Create Gin router
	router := gin.New()

	// Add middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.Cors())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.PrometheusMiddleware())

	// Add rate limiting if enabled
	if cfg.Security.EnableRateLimit {
		router.Use(rateLimiter.RateLimit())
	}

	// Routes
	router.GET("/health", healthController.HealthCheck)
	router.GET("/queries", queryController.ListQueryTypes)
	router.POST("/query", queryController.ExecuteQuery)
	router.POST("/query/:queryType", queryController.ExecuteTemplateQuery)
	router.POST("/batch", queryController.ExecuteBatch)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Endpoint not found",
			"path":  c.Request.URL.Path,
			"availableRoutes": []string{
				"GET /health",
				"GET /queries",
				"POST /query",
				"POST /query/{queryType}",
				"POST /batch",
				"GET /metrics",
			},
		})
	})

	// Start server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	log.Printf("Starting athena-gateway on %s (database: %s, results: %s)",
		addr, cfg.Athena.Database, cfg.Athena.OutputLocation)
	if err := router.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
