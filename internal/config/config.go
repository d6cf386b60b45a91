package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // DATABASE_URL（あれば最優先）
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string // sslmode

	CatalogURL     string        // 取込元カタログ
	CatalogTimeout time.Duration // 取込元へのタイムアウト

	RedisURL string        // カート保存先（空ならメモリ）
	CartTTL  time.Duration // カートの保持期間

	JWTSecret     string // JWT署名シークレット
	AdminEmail    string // 初期管理者
	AdminPassword string // 初期管理者のパスワード（起動時にbcrypt化）

	RabbitMQURI       string // 空なら取込イベントは送らない
	ImportEventsQueue string

	LogLevel     string // debug/info/warn/error
	GoEnv        string // dev/prod
	TracesStdout bool   // otelのトレースを標準出力へ
}

const (
	DefaultCatalogURL        = "https://fakestoreapi.com/products"
	DefaultImportEventsQueue = "products.imported"
)

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := atoiOr("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	catalogTimeout, err := durationOr("CATALOG_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	cartTTL, err := durationOr("CART_TTL", 30*24*time.Hour)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		CatalogURL:     getenv("CATALOG_URL", DefaultCatalogURL),
		CatalogTimeout: catalogTimeout,

		RedisURL: os.Getenv("REDIS_URL"),
		CartTTL:  cartTTL,

		JWTSecret:     os.Getenv("JWT_SECRET"),
		AdminEmail:    strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		RabbitMQURI:       os.Getenv("RABBITMQ_URI"),
		ImportEventsQueue: getenv("IMPORT_EVENTS_QUEUE", DefaultImportEventsQueue),

		LogLevel:     getenv("LOG_LEVEL", "info"),
		GoEnv:        getenv("GO_ENV", "dev"),
		TracesStdout: os.Getenv("OTEL_TRACES_STDOUT") == "true",
	}

	//必須チェック
	//DBの接続情報は必須にしない（未設定でも起動し、取込で設定エラーを返す）
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AdminEmail != "" && cfg.AdminPassword == "" {
		return Config{}, fmt.Errorf("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}
	if cfg.CatalogTimeout <= 0 {
		return Config{}, fmt.Errorf("CATALOG_TIMEOUT must be positive")
	}

	return cfg, nil
}

// StoreConfiguredはDBの接続情報が揃っているか
func (c Config) StoreConfigured() bool {
	if c.DatabaseURL != "" {
		return true
	}
	return c.PostgresHost != "" && c.PostgresUser != "" && c.PostgresDB != ""
}

// DSNはgormに渡す接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// Addrはlisten用のアドレス（":8080"）
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiOr(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}
