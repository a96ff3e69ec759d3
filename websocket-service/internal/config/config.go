package config

import (
	"fmt"
	"log"
	"strings"

	"mythweaver-server/shared/utils"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config содержит всю конфигурацию для WebSocket сервиса.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Log      LogConfig

	CORSAllowedOrigins string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`

	// JWTSecret загружается из секрета, не из переменных окружения
	JWTSecret string
}

// ServerConfig содержит настройки HTTP сервера.
type ServerConfig struct {
	Port string `yaml:"port" env:"WS_PORT" env-default:"8085"`
}

// PostgresConfig — подключение к БД для проверок авторизации канала
// (активность сессии и членство в мире).
type PostgresConfig struct {
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USER" env-required:"true"`
	DBName   string `yaml:"dbname" env:"DB_NAME" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	MaxConns int32  `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"4"`

	// Password загружается из секрета
	Password string
}

// RedisConfig — подключение к Redis, откуда читаются события сессий.
type RedisConfig struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	DB   int    `yaml:"db" env:"REDIS_DB" env-default:"0"`

	// Password загружается из секрета (может отсутствовать)
	Password string
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// GetAllowedOrigins разбирает список разрешенных Origin из конфигурации.
func (c *Config) GetAllowedOrigins() []string {
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// Addr возвращает адрес Redis в формате host:port.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig загружает конфигурацию из файла/переменных окружения и секретов.
func LoadConfig() (*Config, error) {
	configPath := "config.yml" // Путь по умолчанию

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v. Попытка чтения из переменных окружения.", configPath, err)
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
		}
	}

	var loadErr error
	cfg.JWTSecret, loadErr = utils.ReadSecret("jwt_secret")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.Postgres.Password, loadErr = utils.ReadSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}
	// Redis может работать без пароля (локальная разработка)
	if redisPassword, err := utils.ReadSecret("redis_password"); err == nil {
		cfg.Redis.Password = redisPassword
	} else {
		log.Printf("Предупреждение: секрет redis_password не загружен: %v. Подключение к Redis без пароля.", err)
	}

	log.Printf("Конфигурация WebSocket сервиса загружена (секреты из файлов):")
	log.Printf("  Port: %s", cfg.Server.Port)
	log.Printf("  Postgres: %s:%d/%s", cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.DBName)
	log.Printf("  Redis: %s", cfg.Redis.Addr())
	log.Println("  JWT Secret: [ЗАГРУЖЕН]")

	return &cfg, nil
}
