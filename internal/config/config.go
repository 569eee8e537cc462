// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	SMTP       `yaml:"smtp"`
	Redis      `yaml:"redis"`
	RabbitMQ   `yaml:"rabbitmq"`
	RateLimit  `yaml:"rate_limit"`
	Session    `yaml:"session"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// SMTP настройки почтового релея. Без пользователя и пароля отправка
// писем только имитируется.
type SMTP struct {
	SMTPHost     string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPSecure   bool   `yaml:"secure" env:"SMTP_SECURE"`
	SMTPUser     string `yaml:"user" env:"SMTP_USER"`
	SMTPPass     string `yaml:"pass" env:"SMTP_PASS"`
	SMTPFromName string `yaml:"from_name" env:"SMTP_FROM_NAME" env-default:"Subscription Plans"`
}

// Configured сообщает, заданы ли учётные данные релея.
func (s SMTP) Configured() bool {
	return s.SMTPUser != "" && s.SMTPPass != ""
}

// Redis структура для настройки подключения к redis.
// Пустой адрес означает, что номера счетов резервируются в памяти.
type Redis struct {
	AddressRedis string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env:"REDIS_DB"`
	MaxRetries   int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeout" env:"REDIS_TIMEOUT" env-default:"3s"`
}

// RabbitMQ настройки публикации доменных событий. Пустой URL отключает публикацию.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env:"RABBITMQ_MAX_RETRIES" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env:"RABBITMQ_RETRY_DELAY" env-default:"2s"`
	RabbitMQExchange   string        `yaml:"exchange" env:"RABBITMQ_EXCHANGE" env-default:"subscription.events"`
}

// RateLimit ограничение запросов к эндпоинту отправки счёта
type RateLimit struct {
	RPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"1"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"3"`
}

// Session задержки и сроки, которыми управляется сессия просмотра
type Session struct {
	PaymentDelay     time.Duration `yaml:"payment_delay" env:"SESSION_PAYMENT_DELAY" env-default:"1s"`
	InvoiceViewDelay time.Duration `yaml:"invoice_view_delay" env:"SESSION_INVOICE_VIEW_DELAY" env-default:"500ms"`
	TickInterval     time.Duration `yaml:"tick_interval" env:"SESSION_TICK_INTERVAL" env-default:"1s"`
	PlanDuration     time.Duration `yaml:"plan_duration" env:"SESSION_PLAN_DURATION" env-default:"720h"`
	NotificationTTL  time.Duration `yaml:"notification_ttl" env:"SESSION_NOTIFICATION_TTL" env-default:"5s"`
	SimulatedSend    time.Duration `yaml:"simulated_send" env:"SESSION_SIMULATED_SEND" env-default:"1s"`
}

// Load читает .env (если есть), затем YAML из CONFIG_PATH, если он задан,
// иначе только переменные окружения.
func Load() (*Config, error) {
	const op = "config.Load"

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var cfg Config
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига, завершает процесс при ошибке
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"SMTP:\n"+
			"  Host: %s\n"+
			"  Port: %d\n"+
			"  Secure: %t\n"+
			"  User: %s\n"+
			"  Configured: %t\n"+
			"Redis:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ:\n"+
			"  Enabled: %t\n"+
			"  Exchange: %s\n"+
			"Session:\n"+
			"  PaymentDelay: %s\n"+
			"  InvoiceViewDelay: %s\n"+
			"  TickInterval: %s\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.SMTPHost,
		c.SMTPPort,
		c.SMTPSecure,
		c.SMTPUser,
		c.SMTP.Configured(),
		c.AddressRedis,
		c.DB,
		c.RabbitMQURL != "",
		c.RabbitMQExchange,
		c.PaymentDelay,
		c.InvoiceViewDelay,
		c.TickInterval,
	)
}
