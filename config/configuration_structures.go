package config

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	SecretKey string `yaml:"secret_key"`
	// PreviousSecretKey задаёт старый секрет на период ротации ключа.
	// Подпись выполняется только текущим секретом.
	PreviousSecretKey string `yaml:"previous_secret_key"`
	AccessTokenTTL    string `yaml:"access_token_ttl"`
	RefreshTokenTTL   string `yaml:"refresh_token_ttl"`
}

type WebhookConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

// RefreshClientConfig : параметры клиентского обновления токена
type RefreshClientConfig struct {
	EndpointURL string `yaml:"endpoint_url"`
	LockTTL     string `yaml:"lock_ttl"`
	MaxAttempts int    `yaml:"max_attempts"`
	BaseDelay   string `yaml:"base_delay"`
	HTTPTimeout string `yaml:"http_timeout"`
}
