package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"earntube/internal/logger"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// DefaultMobileBankingMethodID is the catalog entry used for every mobile banking request.
const DefaultMobileBankingMethodID = "wm_mobile banking_1755632583285"

type Config struct {
	AppPort          string
	AppVersion       string
	DatabaseURL      string
	JWTSecret        string
	BotToken         string
	AdminTelegramIDs []int64 // tg id админов через запятую
	AdminBotEnabled  bool
	AllowedOrigin    string

	LogLevel string
	LogJSON  bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Withdrawal settings
	USDTToBDTRate         decimal.Decimal
	MobileBankingMethodID string
	CryptoEnabled         bool
	RefundFeeOnReject     bool
	MethodCacheTTL        time.Duration

	// Rate limits
	APIRateLimit       int
	APIRateWindow      time.Duration
	WithdrawRateLimit  int
	WithdrawRateWindow time.Duration
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	version := os.Getenv("APP_VERSION")
	if version == "" {
		version = "dev"
	}

	var adminIDs []int64
	if s := os.Getenv("ADMIN_TELEGRAM_IDS"); s != "" {
		for _, idStr := range strings.Split(s, ",") {
			idStr = strings.TrimSpace(idStr)
			if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
				adminIDs = append(adminIDs, id)
			}
		}
	}

	botToken := os.Getenv("BOT_TOKEN")
	adminBotEnabled := os.Getenv("ADMIN_BOT_ENABLED") == "true"
	if adminBotEnabled && botToken == "" {
		logger.Fatal("ADMIN_BOT_ENABLED requires BOT_TOKEN")
	}

	rate := decimal.NewFromInt(100) // 1 USDT = 100 BDT
	if v := os.Getenv("USDT_BDT_RATE"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && d.IsPositive() {
			rate = d
		} else {
			logger.Warn("ignoring invalid USDT_BDT_RATE", "value", v)
		}
	}

	methodID := os.Getenv("MOBILE_BANKING_METHOD_ID")
	if methodID == "" {
		methodID = DefaultMobileBankingMethodID
	}

	return &Config{
		AppPort:          port,
		AppVersion:       version,
		DatabaseURL:      dbURL,
		JWTSecret:        jwtSecret,
		BotToken:         botToken,
		AdminTelegramIDs: adminIDs,
		AdminBotEnabled:  adminBotEnabled,
		AllowedOrigin:    os.Getenv("ALLOWED_ORIGIN"),

		LogLevel: os.Getenv("LOG_LEVEL"),
		LogJSON:  os.Getenv("LOG_JSON") == "true",

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		USDTToBDTRate:         rate,
		MobileBankingMethodID: methodID,
		CryptoEnabled:         os.Getenv("CRYPTO_WITHDRAWALS_ENABLED") == "true",
		RefundFeeOnReject:     os.Getenv("REFUND_FEE_ON_REJECT") == "true",
		MethodCacheTTL:        time.Duration(envInt("METHOD_CACHE_TTL_SECONDS", 30)) * time.Second,

		APIRateLimit:       envInt("API_RATE_LIMIT", 60),
		APIRateWindow:      time.Duration(envInt("API_RATE_WINDOW_SECONDS", 60)) * time.Second,
		WithdrawRateLimit:  envInt("WITHDRAW_RATE_LIMIT", 5),
		WithdrawRateWindow: time.Duration(envInt("WITHDRAW_RATE_WINDOW_SECONDS", 60)) * time.Second,
	}
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		logger.Warn("ignoring invalid integer env value", "key", key, "value", v)
		return def
	}
	return n
}
