package config

import (
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
)

// минимальная длина секрета подписи: 256 бит
const minSecretKeyLength = 32

type AppConfig struct {
	DatabaseConfig DatabaseConfig      `yaml:"databaseConfig"`
	RedisConfig    RedisConfig         `yaml:"redisConfig"`
	ServerAddr     string              `yaml:"serverAddr"`
	JWT            JWTConfig           `yaml:"jwt"`
	Webhook        WebhookConfig       `yaml:"webhook"`
	RefreshClient  RefreshClientConfig `yaml:"refreshClient"`
}

func LoadConfig(path string) (*AppConfig, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *AppConfig) validate() error {
	if len(cfg.JWT.SecretKey) < minSecretKeyLength {
		return fmt.Errorf("секрет подписи должен быть не короче %d символов", minSecretKeyLength)
	}
	if cfg.JWT.PreviousSecretKey != "" && len(cfg.JWT.PreviousSecretKey) < minSecretKeyLength {
		return fmt.Errorf("предыдущий секрет подписи должен быть не короче %d символов", minSecretKeyLength)
	}
	return nil
}

func SetupServer(serverAddress string) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	server := &http.Server{
		Addr:    serverAddress,
		Handler: router,
	}

	return server, router
}

func SetupDatabase(dsn string) (*Database, error) {
	return NewDatabaseConnection("postgres", dsn)
}

func SetupRedis(cfg *RedisConfig) (*RedisClient, error) {
	return NewRedisClient(cfg)
}
