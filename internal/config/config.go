// Package config читает настройки сервиса из окружения и файла .env.
package config

import (
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config — настройки процесса. Имена ключей совпадают с переменными окружения
// в нижнем регистре: PORT -> port, DATABASE_URL -> database_url.
type Config struct {
	Port    string `mapstructure:"port" validate:"required"`
	Storage string `mapstructure:"storage" validate:"oneof=memory postgres mongo"`

	DatabaseURL   string `mapstructure:"database_url" validate:"required_if=Storage postgres"`
	MongoURI      string `mapstructure:"mongo_uri" validate:"required_if=Storage mongo"`
	MongoDatabase string `mapstructure:"mongo_database"`

	SecretToken string        `mapstructure:"secret_token"`
	JWTSecret   string        `mapstructure:"jwt_secret" validate:"required"`
	AuthMaxAge  time.Duration `mapstructure:"auth_max_age"`

	BotToken       string `mapstructure:"bot_token"`
	AppID          int    `mapstructure:"app_id" validate:"required_with=BotToken"`
	AppHash        string `mapstructure:"app_hash" validate:"required_with=BotToken"`
	BotSessionPath string `mapstructure:"bot_session_path"`
	WebhookSecret  string `mapstructure:"webhook_secret"`

	ReconcileSchedule string `mapstructure:"reconcile_schedule"`

	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Debug    bool   `mapstructure:"debug"`

	RateLimitRPS   float64 `mapstructure:"rate_limit_rps" validate:"gt=0"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst" validate:"gt=0"`
}

var defaults = map[string]any{
	"port":               "8080",
	"storage":            "memory",
	"database_url":       "",
	"mongo_uri":          "",
	"mongo_database":     "roommate",
	"secret_token":       "",
	"jwt_secret":         "",
	"auth_max_age":       time.Duration(0),
	"bot_token":          "",
	"app_id":             0,
	"app_hash":           "",
	"bot_session_path":   "bot.session.json",
	"webhook_secret":     "",
	"reconcile_schedule": "@every 6h",
	"log_level":          "info",
	"debug":              false,
	"rate_limit_rps":     5.0,
	"rate_limit_burst":   10,
}

// Load читает envFile (если он есть), затем окружение. Переменные окружения
// главнее значений из файла.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrapf(err, "load %s", envFile)
		}
	}
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return Config{}, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// BotEnabled сообщает, настроен ли бот для уведомлений.
func (c Config) BotEnabled() bool { return c.BotToken != "" }
