package config

import (
	"fmt"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/david-fold-studio/life-sphere-habits/core/logger"
)

type ServerConfig struct {
	Port     int
	LogLevel string
	Timezone string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type GoogleAPIConfig struct {
	ClientID     string
	ClientSecret string
}

// EngineConfig carries the calendar-engine tunables. Historical versions of
// the drag math disagreed on snapping and throttling; every such difference
// is a flag here instead of drifting per call site.
type EngineConfig struct {
	PixelsPerHour    float64
	SnapQuantum      int // minutes
	DayColumnWidth   float64
	ThrottleMS       int
	ClickMaxMS       int
	ClickMaxDistance float64 // pixels
}

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	GoogleAPI GoogleAPIConfig
	Engine    EngineConfig
}

var (
	instance *Config
	mu       sync.RWMutex
)

// Load reads .env (if present) and environment variables into the global
// config. It must be called once at startup before Get/GetSafe.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("config: no .env file found, using environment")
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 7070)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "life_sphere")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ENGINE_PIXELS_PER_HOUR", 48.0)
	v.SetDefault("ENGINE_SNAP_QUANTUM", 15)
	v.SetDefault("ENGINE_DAY_COLUMN_WIDTH", 120.0)
	v.SetDefault("ENGINE_THROTTLE_MS", 150)
	v.SetDefault("ENGINE_CLICK_MAX_MS", 200)
	v.SetDefault("ENGINE_CLICK_MAX_DISTANCE", 5.0)

	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetInt("SERVER_PORT"),
			LogLevel: v.GetString("LOG_LEVEL"),
			Timezone: v.GetString("TIMEZONE"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		GoogleAPI: GoogleAPIConfig{
			ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		},
		Engine: EngineConfig{
			PixelsPerHour:    v.GetFloat64("ENGINE_PIXELS_PER_HOUR"),
			SnapQuantum:      v.GetInt("ENGINE_SNAP_QUANTUM"),
			DayColumnWidth:   v.GetFloat64("ENGINE_DAY_COLUMN_WIDTH"),
			ThrottleMS:       v.GetInt("ENGINE_THROTTLE_MS"),
			ClickMaxMS:       v.GetInt("ENGINE_CLICK_MAX_MS"),
			ClickMaxDistance: v.GetFloat64("ENGINE_CLICK_MAX_DISTANCE"),
		},
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	mu.Lock()
	instance = cfg
	mu.Unlock()
	return cfg, nil
}

// Get returns the global config. Panics if Load has not run.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		panic("config: Get called before Load")
	}
	return instance
}

// GetSafe returns the global config and whether it has been loaded.
func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return instance, instance != nil
}
