package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/domain/model"
)

// Ключи настроек в таблице bot_settings.
const (
	// SettingRetentionEnabled — включено ли автоудаление ("0" / "1")
	SettingRetentionEnabled = "retention.enabled"
	// SettingRetentionTTL — TTL автоудаления в секундах
	SettingRetentionTTL = "retention.ttl_seconds"
)

// SettingsRepository — key-value настройки бота (таблица bot_settings).
type SettingsRepository interface {
	// Get возвращает значение по ключу. ErrNotFound, если ключа нет.
	Get(ctx context.Context, key string) (string, error)
	// Set создаёт или обновляет настройку (upsert).
	Set(ctx context.Context, key, value string) error
	// SetDefault записывает значение, только если ключа ещё нет.
	SetDefault(ctx context.Context, key, value string) error
	// RetentionPolicy читает политику автоудаления целиком.
	RetentionPolicy(ctx context.Context) (*model.RetentionPolicy, error)
}

// settingsRepo — реализация SettingsRepository.
type settingsRepo struct {
	db DBTX
}

// NewSettingsRepository создаёт репозиторий настроек.
func NewSettingsRepository(db DBTX) SettingsRepository {
	return &settingsRepo{db: db}
}

func (r *settingsRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRow(ctx,
		`SELECT value FROM bot_settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("ошибка получения bot_settings[%s]: %w", key, err)
	}
	return value, nil
}

func (r *settingsRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO bot_settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
			updated_at = NOW()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("ошибка сохранения bot_settings[%s]: %w", key, err)
	}
	return nil
}

// SetDefault используется при первом запуске: существующее значение
// (в том числе изменённое администратором) не перезаписывается.
func (r *settingsRepo) SetDefault(ctx context.Context, key, value string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO bot_settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO NOTHING`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("ошибка инициализации bot_settings[%s]: %w", key, err)
	}
	return nil
}

// RetentionPolicy читает retention.enabled и retention.ttl_seconds.
// Отсутствующие или некорректные значения трактуются как выключенная политика.
func (r *settingsRepo) RetentionPolicy(ctx context.Context) (*model.RetentionPolicy, error) {
	enabled, err := r.Get(ctx, SettingRetentionEnabled)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &model.RetentionPolicy{}, nil
		}
		return nil, err
	}

	policy := &model.RetentionPolicy{Enabled: enabled == "1"}
	if !policy.Enabled {
		return policy, nil
	}

	ttlRaw, err := r.Get(ctx, SettingRetentionTTL)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &model.RetentionPolicy{}, nil
		}
		return nil, err
	}

	ttlSec, err := strconv.ParseInt(ttlRaw, 10, 64)
	if err != nil || ttlSec <= 0 {
		// Некорректный TTL — политика фактически выключена
		return &model.RetentionPolicy{}, nil
	}

	policy.TTL = time.Duration(ttlSec) * time.Second
	return policy, nil
}
