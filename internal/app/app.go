package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	swagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	_ "github.com/omarchenko-dev/weather-subscription-service/docs"
	"github.com/omarchenko-dev/weather-subscription-service/internal/cache"
	"github.com/omarchenko-dev/weather-subscription-service/internal/config"
	"github.com/omarchenko-dev/weather-subscription-service/internal/emailer"
	subscriptionhandler "github.com/omarchenko-dev/weather-subscription-service/internal/handlers/subscription"
	weatherhandler "github.com/omarchenko-dev/weather-subscription-service/internal/handlers/weather"
	"github.com/omarchenko-dev/weather-subscription-service/internal/logging"
	"github.com/omarchenko-dev/weather-subscription-service/internal/metrics"
	"github.com/omarchenko-dev/weather-subscription-service/internal/models"
	"github.com/omarchenko-dev/weather-subscription-service/internal/repository/sqlite"
	"github.com/omarchenko-dev/weather-subscription-service/internal/scheduler"
	"github.com/omarchenko-dev/weather-subscription-service/internal/services/email"
	"github.com/omarchenko-dev/weather-subscription-service/internal/services/subscriptions"
	serviceweather "github.com/omarchenko-dev/weather-subscription-service/internal/services/weather"
	"github.com/omarchenko-dev/weather-subscription-service/internal/services/weather/decorators"
	"github.com/omarchenko-dev/weather-subscription-service/internal/token"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	cfg config.Config
	log *zap.Logger
}

type ServiceContainer struct {
	SubscriptionService *subscriptions.Service
	WeatherService      subscriptions.WeatherGetter
	Scheduler           *scheduler.Scheduler

	Router *gin.Engine
	Srv    *http.Server
	Db     *sql.DB
}

func New(cfg config.Config, logger *zap.Logger) *App {
	return &App{cfg: cfg, log: logger}
}

func (a *App) Init() (*ServiceContainer, error) {
	db, err := CreateSqliteDb(a.cfg.DB.Source)
	if err != nil {
		return nil, err
	}
	if err := MigrateSqliteDb(db, a.cfg.DB.MigrationsPath); err != nil {
		return nil, err
	}

	m := metrics.New("weather_subscription", prometheus.DefaultRegisterer)

	router := gin.New()
	router.Use(gin.Recovery(), m.Middleware())

	apiServer := &http.Server{
		Addr:        a.cfg.Server.Address,
		Handler:     router,
		ReadTimeout: time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
	}

	smtpService, err := emailer.NewSMTPService(a.cfg.Email, a.log)
	if err != nil {
		return nil, err
	}
	emailService := email.NewService(smtpService, a.cfg.TemplatesDir, a.cfg.Server.PublicURL)

	subRepository := sqlite.NewSubscriptionRepository(db, a.log)
	tokenIssuer := token.NewIssuer(a.cfg.Token.TTL)

	httpLogClient := &http.Client{
		Transport: logging.NewRoundTripper(a.log.Named("http_client")),
	}

	weatherService := a.buildWeatherService(httpLogClient)

	jobScheduler := scheduler.New(subRepository, weatherService, emailService, a.log, m)

	subscriptionService := subscriptions.NewService(
		subRepository,
		tokenIssuer,
		emailService,
		weatherService,
		jobScheduler,
		a.log,
	)

	return &ServiceContainer{
		SubscriptionService: subscriptionService,
		WeatherService:      weatherService,
		Scheduler:           jobScheduler,
		Router:              router,
		Srv:                 apiServer,
		Db:                  db,
	}, nil
}

// buildWeatherService assembles the provider chain: each client behind its
// own circuit breaker, the chain optionally fronted by a redis cache.
func (a *App) buildWeatherService(httpClient serviceweather.HTTPClient) subscriptions.WeatherGetter {
	openWeatherMapClient := serviceweather.NewOpenWeatherMapClient(
		a.cfg.Weather.OpenWeatherMapAPIKey,
		a.cfg.Weather.OpenWeatherMapURL,
		httpClient,
		a.log,
	)
	weatherAPIClient := serviceweather.NewWeatherAPIClient(
		a.cfg.Weather.WeatherAPIKey,
		a.cfg.Weather.WeatherAPIURL,
		httpClient,
		a.log,
	)
	weatherBitClient := serviceweather.NewWeatherBitClient(
		a.cfg.Weather.WeatherBitAPIKey,
		a.cfg.Weather.WeatherBitURL,
		httpClient,
		a.log,
	)

	weatherService := serviceweather.NewService(a.log,
		serviceweather.NewBreakerClient("weatherapi", weatherAPIClient),
		serviceweather.NewBreakerClient("openweathermap", openWeatherMapClient),
		serviceweather.NewBreakerClient("weatherbit", weatherBitClient),
	)

	if a.cfg.Redis.Addr == "" {
		return weatherService
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
	})
	weatherCache := cache.NewRedisClient[models.WeatherData](redisClient, a.log)

	return decorators.NewCachedService(weatherService, weatherCache, a.log, a.cfg.Redis.CacheTTL)
}

func (a *App) Start(ctx context.Context, c *ServiceContainer) error {
	subHandler := subscriptionhandler.NewHandler(c.SubscriptionService)
	weatherHandler := weatherhandler.NewHandler(c.WeatherService)

	api := c.Router.Group("/api")
	{
		api.GET("/weather", weatherHandler.GetWeather)
		api.POST("/subscribe", subHandler.Subscribe)
		api.GET("/confirm/:token", subHandler.Confirm)
		api.GET("/unsubscribe/:token", subHandler.Unsubscribe)
	}
	c.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	c.Router.GET("/swagger/*any", swagger.WrapHandler(swaggerfiles.Handler))

	// Rebuild the job map from persisted state before accepting traffic.
	if err := c.Scheduler.Initialize(ctx); err != nil {
		return err
	}
	c.Scheduler.Start()

	a.log.Info("starting server", zap.String("address", a.cfg.Server.Address))
	if err := c.Srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts down in dependency order: scheduler first so no firing races
// the closing database, then the HTTP server, then the store.
func (a *App) Stop(c *ServiceContainer) error {
	c.Scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := c.Srv.Shutdown(ctx); err != nil {
		a.log.Error("HTTP shutdown error", zap.Error(err))
	}

	if err := c.Db.Close(); err != nil {
		a.log.Error("DB close error", zap.Error(err))
		return err
	}

	a.log.Info("shutdown complete")
	return nil
}

func CreateSqliteDb(name string) (*sql.DB, error) {
	if name == "" {
		return nil, errors.New("database name cannot be empty")
	}
	db, err := sql.Open("sqlite", "file:"+name+"?cache=shared&mode=rwc")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func MigrateSqliteDb(db *sql.DB, migrationsPath string) error {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(db, migrationsPath)
}
