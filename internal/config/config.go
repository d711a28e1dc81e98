package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

var (
	// ErrLoadConfig возвращается при ошибке чтения файла конфигурации
	ErrLoadConfig = errors.New("config: failed to load config file")

	// ErrInvalidConfig возвращается при некорректных значениях конфигурации
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config конфигурация сервиса
type Config struct {
	Server         ServerConfig      `toml:"server"`
	Database       DatabaseConfig    `toml:"database"`
	Logs           LogsConfig        `toml:"logs"`
	Metrics        MetricsConfig     `toml:"metrics"`
	CatalogService IntegrationConfig `toml:"catalog_service"`
	CouponService  IntegrationConfig `toml:"coupon_service"`
	NotifyService  IntegrationConfig `toml:"notify_service"`
	Engine         EngineConfig      `toml:"engine"`
}

// ServerConfig настройки HTTP сервера
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`     // секунды
	WriteTimeout    int `toml:"write_timeout"`    // секунды
	IdleTimeout     int `toml:"idle_timeout"`     // секунды
	ShutdownTimeout int `toml:"shutdown_timeout"` // секунды
}

// DatabaseConfig настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN возвращает строку подключения к PostgreSQL
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// MetricsConfig настройки метрик
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// IntegrationConfig настройки внешнего сервиса
type IntegrationConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // секунды
}

// EngineConfig бизнес-параметры движка назначения
type EngineConfig struct {
	// FlashBufferMinutes минимальный отступ от текущего времени
	// для слота срочного (flash) бронирования
	FlashBufferMinutes int `toml:"flash_buffer_minutes"`

	// LoadScoreBookingWeight штраф за каждое бронирование агента в этот день
	// в формуле score = distanceKm + weight * bookings
	LoadScoreBookingWeight float64 `toml:"load_score_booking_weight"`

	// MinSwapSavingKm минимальная суммарная экономия для предложения обмена маршрутами
	MinSwapSavingKm float64 `toml:"min_swap_saving_km"`

	// DefaultRevenueShare доля агента от прайс-листа, когда персональная ставка не задана
	DefaultRevenueShare float64 `toml:"default_revenue_share"`

	// NegativeBalanceFloor нижняя граница баланса prepaid-клиента;
	// подтверждение при выходе за неё не блокируется, но логируется и
	// порождает событие wallet_limit_exceeded
	NegativeBalanceFloor float64 `toml:"negative_balance_floor"`
}

// Load читает и валидирует конфигурацию из TOML файла
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Metrics.ServiceName == "" {
		cfg.Metrics.ServiceName = "smc-dispatch-service"
	}
	if cfg.Engine.FlashBufferMinutes == 0 {
		cfg.Engine.FlashBufferMinutes = 60
	}
	if cfg.Engine.LoadScoreBookingWeight == 0 {
		cfg.Engine.LoadScoreBookingWeight = 5
	}
	if cfg.Engine.MinSwapSavingKm == 0 {
		cfg.Engine.MinSwapSavingKm = 5
	}
	if cfg.Engine.DefaultRevenueShare == 0 {
		cfg.Engine.DefaultRevenueShare = 0.6
	}
}

func validate(cfg *Config) error {
	if cfg.Database.Host == "" || cfg.Database.DBName == "" {
		return fmt.Errorf("%w: database host and dbname are required", ErrInvalidConfig)
	}
	if cfg.Engine.DefaultRevenueShare <= 0 || cfg.Engine.DefaultRevenueShare > 1 {
		return fmt.Errorf("%w: default_revenue_share must be in (0, 1]", ErrInvalidConfig)
	}
	if cfg.Engine.NegativeBalanceFloor > 0 {
		return fmt.Errorf("%w: negative_balance_floor must be <= 0", ErrInvalidConfig)
	}
	return nil
}
