// Пакет config — загрузка и валидация конфигурации бота
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации бота.
type Config struct {
	// --- Telegram ---

	// Токен бота (Bot API)
	BotToken string
	// Username бота без @ (для deep-link ссылок)
	BotUsername string
	// Идентификатор приватного архивного канала/группы (-100...)
	ArchiveChatID int64
	// Идентификатор владельца бота
	OwnerID int64
	// Таймаут long polling getUpdates
	PollTimeout time.Duration

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Логирование ---

	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- Захват и восстановление ---

	// Длина выдаваемого кода
	CodeLength int
	// Количество попыток релокации в архив
	RelocateAttempts int
	// Пауза между попытками релокации
	RelocateDelay time.Duration
	// Пауза между элементами при восстановлении батча (flood limits)
	RestoreDelay time.Duration

	// --- Автоудаление ---

	// TTL автоудаления по умолчанию (0 — выключено); сидится в bot_settings
	AutoDeleteTTL time.Duration
	// Интервал сна цикла очистки при выключенной политике
	SweepIdleInterval time.Duration
	// Интервал сна цикла очистки после рабочего прохода
	SweepInterval time.Duration

	// --- Ops HTTP-сервер ---

	// Порт ops-сервера (healthz, readyz, metrics)
	OpsPort int
	// Таймаут graceful shutdown
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Telegram ---

	// FS_BOT_TOKEN — обязательный
	cfg.BotToken, err = getEnvRequired("FS_BOT_TOKEN")
	if err != nil {
		return nil, err
	}

	// FS_BOT_USERNAME — обязательный (username без @)
	cfg.BotUsername, err = getEnvRequired("FS_BOT_USERNAME")
	if err != nil {
		return nil, err
	}
	cfg.BotUsername = strings.TrimPrefix(cfg.BotUsername, "@")

	// FS_ARCHIVE_CHAT_ID — обязательный
	cfg.ArchiveChatID, err = getEnvInt64Required("FS_ARCHIVE_CHAT_ID")
	if err != nil {
		return nil, err
	}

	// FS_OWNER_ID — обязательный
	cfg.OwnerID, err = getEnvInt64Required("FS_OWNER_ID")
	if err != nil {
		return nil, err
	}

	// FS_POLL_TIMEOUT — таймаут long polling (по умолчанию 50s)
	cfg.PollTimeout, err = getEnvDuration("FS_POLL_TIMEOUT", 50*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FS_POLL_TIMEOUT: %w", err)
	}

	// --- PostgreSQL ---

	// FS_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("FS_DB_HOST")
	if err != nil {
		return nil, err
	}

	// FS_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("FS_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("FS_DB_PORT: %w", err)
	}

	// FS_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("FS_DB_NAME")
	if err != nil {
		return nil, err
	}

	// FS_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("FS_DB_USER")
	if err != nil {
		return nil, err
	}

	// FS_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("FS_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// FS_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("FS_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("FS_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Логирование ---

	// FS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("FS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("FS_LOG_LEVEL: %w", err)
	}

	// FS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("FS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("FS_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- Захват и восстановление ---

	// FS_CODE_LENGTH — длина кода (по умолчанию 8)
	cfg.CodeLength, err = getEnvInt("FS_CODE_LENGTH", 8)
	if err != nil {
		return nil, fmt.Errorf("FS_CODE_LENGTH: %w", err)
	}
	if cfg.CodeLength < 4 || cfg.CodeLength > 32 {
		return nil, fmt.Errorf("FS_CODE_LENGTH: значение %d вне допустимого диапазона 4-32", cfg.CodeLength)
	}

	// FS_RELOCATE_ATTEMPTS — попытки релокации (по умолчанию 3)
	cfg.RelocateAttempts, err = getEnvInt("FS_RELOCATE_ATTEMPTS", 3)
	if err != nil {
		return nil, fmt.Errorf("FS_RELOCATE_ATTEMPTS: %w", err)
	}
	if cfg.RelocateAttempts < 1 {
		return nil, fmt.Errorf("FS_RELOCATE_ATTEMPTS: значение %d должно быть >= 1", cfg.RelocateAttempts)
	}

	// FS_RELOCATE_DELAY — пауза между попытками (по умолчанию 600ms)
	cfg.RelocateDelay, err = getEnvDuration("FS_RELOCATE_DELAY", 600*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("FS_RELOCATE_DELAY: %w", err)
	}

	// FS_RESTORE_DELAY — пауза между элементами батча (по умолчанию 1.5s)
	cfg.RestoreDelay, err = getEnvDuration("FS_RESTORE_DELAY", 1500*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("FS_RESTORE_DELAY: %w", err)
	}

	// --- Автоудаление ---

	// FS_AUTO_DELETE_TTL — TTL по умолчанию (0 — выключено)
	cfg.AutoDeleteTTL, err = getEnvDuration("FS_AUTO_DELETE_TTL", 0)
	if err != nil {
		return nil, fmt.Errorf("FS_AUTO_DELETE_TTL: %w", err)
	}

	// FS_SWEEP_IDLE_INTERVAL — сон при выключенной политике (по умолчанию 10s)
	cfg.SweepIdleInterval, err = getEnvDuration("FS_SWEEP_IDLE_INTERVAL", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FS_SWEEP_IDLE_INTERVAL: %w", err)
	}

	// FS_SWEEP_INTERVAL — сон после рабочего прохода (по умолчанию 30s)
	cfg.SweepInterval, err = getEnvDuration("FS_SWEEP_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FS_SWEEP_INTERVAL: %w", err)
	}

	// --- Ops HTTP-сервер ---

	// FS_OPS_PORT — порт ops-сервера (по умолчанию 8000)
	cfg.OpsPort, err = getEnvInt("FS_OPS_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("FS_OPS_PORT: %w", err)
	}
	if cfg.OpsPort < 1 || cfg.OpsPort > 65535 {
		return nil, fmt.Errorf("FS_OPS_PORT: значение %d вне допустимого диапазона 1-65535", cfg.OpsPort)
	}

	// FS_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("FS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FS_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64Required возвращает обязательное int64-значение переменной окружения.
func getEnvInt64Required(key string) (int64, error) {
	val, err := getEnvRequired(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: некорректное целое число: %q", key, val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
