package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"auth-web-server/config"
	"auth-web-server/internal/client"
	"auth-web-server/internal/repository"
	"auth-web-server/internal/service"
)

// token-agent обновляет access токен через общий координатор: несколько
// агентов с одним refresh-токеном выполняют не больше одного сетевого
// обновления одновременно, остальные получают результат из рассылки.
// Refresh-токен передаётся через переменную окружения REFRESH_TOKEN.
func main() {
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	flag.Parse()

	rawRefreshToken := os.Getenv("REFRESH_TOKEN")
	if rawRefreshToken == "" {
		log.Fatal("переменная окружения REFRESH_TOKEN не задана")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	redisClient, err := config.SetupRedis(&cfg.RedisConfig)
	if err != nil {
		log.Fatalf("Ошибка подключения к Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Ошибка при закрытии Redis: %v", err)
		}
	}()

	lockTTL := parseDurationOrDefault(cfg.RefreshClient.LockTTL, 5*time.Second)
	baseDelay := parseDurationOrDefault(cfg.RefreshClient.BaseDelay, time.Second)
	httpTimeout := parseDurationOrDefault(cfg.RefreshClient.HTTPTimeout, 10*time.Second)

	// ключом координации служит хэш токена: сырой секрет в Redis не попадает
	credentialKey := service.HashRefreshToken(rawRefreshToken)
	lockRepo := repository.NewRefreshLockRepository(redisClient, credentialKey, lockTTL)

	caller := client.NewHTTPRefreshCaller(cfg.RefreshClient.EndpointURL, rawRefreshToken, httpTimeout)
	coordinator := client.NewRefreshCoordinator(lockRepo, lockRepo, caller, client.CoordinatorConfig{
		LockTTL:     lockTTL,
		MaxAttempts: cfg.RefreshClient.MaxAttempts,
		BaseDelay:   baseDelay,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	accessToken, err := coordinator.Refresh(ctx)
	if err != nil {
		log.Fatalf("не удалось обновить access токен: %v", err)
	}

	fmt.Println(accessToken)
}

func parseDurationOrDefault(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("ошибка парсинга длительности %q, используется значение по умолчанию: %v", value, err)
		return fallback
	}
	return parsed
}
