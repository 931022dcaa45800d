package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Server struct {
	Address     string `envconfig:"SERVER_ADDRESS" default:":8080"`
	ReadTimeout int    `envconfig:"SERVER_TIMEOUT" default:"10"`
	PublicURL   string `envconfig:"SERVER_PUBLIC_URL" default:"http://localhost:8080"`
}

type Db struct {
	Dialect        string `envconfig:"DB_DIALECT" default:"sqlite"`
	Source         string `envconfig:"DB_NAME" default:"subscriptions.db"`
	MigrationsPath string `envconfig:"DB_MIGRATIONS_DIR" default:"./migrations"`
}

type Email struct {
	User     string `envconfig:"EMAIL_USER"`
	Host     string `envconfig:"EMAIL_HOST"`
	Port     string `envconfig:"EMAIL_PORT"`
	Password string `envconfig:"EMAIL_PASSWORD"`
	From     string `envconfig:"EMAIL_FROM"`
}

type Weather struct {
	OpenWeatherMapAPIKey string `envconfig:"OPENWEATHERMAP_API_KEY"`
	OpenWeatherMapURL    string `envconfig:"OPENWEATHERMAP_URL" default:"https://api.openweathermap.org/data/2.5/weather"`
	WeatherAPIKey        string `envconfig:"WEATHER_API_KEY"`
	WeatherAPIURL        string `envconfig:"WEATHER_API_URL" default:"https://api.weatherapi.com/v1/current.json"`
	WeatherBitAPIKey     string `envconfig:"WEATHERBIT_API_KEY"`
	WeatherBitURL        string `envconfig:"WEATHERBIT_URL" default:"https://api.weatherbit.io/v2.0/current"`
}

type Redis struct {
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	CacheTTL time.Duration `envconfig:"REDIS_CACHE_TTL" default:"10m"`
}

type Token struct {
	TTL time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
}

type Config struct {
	Server       Server
	DB           Db
	Email        Email
	Weather      Weather
	Redis        Redis
	Token        Token
	TemplatesDir string `envconfig:"TEMPLATES_DIR" default:"./templates"`
	LogsPath     string `envconfig:"LOGS_PATH" default:"./logs/service.log"`
	Debug        bool   `envconfig:"DEBUG" default:"false"`
}

func NewConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
