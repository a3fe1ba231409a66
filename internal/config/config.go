// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек сервиса
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	Enrichment              `yaml:"enrichment"`
	Payment                 `yaml:"payment"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:"0.0.0.0:8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// RabbitMQ структура для настройки подключения к очереди уведомлений
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"3s"`
}

// SMTP структура для настройки почтового транспорта сервиса уведомлений
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"password" env:"SMTP_PASS"`
}

// Enrichment структура с настройками стратегий обогащения лидов
type Enrichment struct {
	// Strategy выбирает стратегию обогащения доменов: llm или scraper.
	Strategy      string        `yaml:"strategy" env:"ENRICHMENT_STRATEGY" env-default:"scraper"`
	LLMAPIBase    string        `yaml:"llm_api_base" env:"LLM_API_BASE"`
	LLMAPIKey     string        `yaml:"llm_api_key" env:"LLM_API_KEY"`
	LLMModel      string        `yaml:"llm_model" env-default:"gemini-pro"`
	ScrapeTimeout time.Duration `yaml:"scrape_timeout" env-default:"15s"`
	PlacesAPIBase string        `yaml:"places_api_base" env:"PLACES_API_BASE"`
	PlacesAPIKey  string        `yaml:"places_api_key" env:"PLACES_API_KEY"`
}

// Payment структура с настройками платёжного провайдера
type Payment struct {
	ProviderAPIBase   string `yaml:"provider_api_base" env:"PAYMENT_API_BASE"`
	ProviderSecretKey string `yaml:"provider_secret_key" env:"PAYMENT_SECRET_KEY"`
	SuccessURL        string `yaml:"success_url"`
	CancelURL         string `yaml:"cancel_url"`
	WebhookSecret     string `yaml:"webhook_secret" env:"PAYMENT_WEBHOOK_SECRET"`
}

// MustLoad загружает конфиг из файла, указанного в CONFIG_PATH,
// и завершает процесс при любой ошибке чтения.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
