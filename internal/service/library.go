package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/domain/model"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/repository"
)

// Допустимые длины кода при ручном переименовании.
const (
	minCodeLength = 4
	maxCodeLength = 32
)

// CacheInvalidator — инвалидация кэша разрешения после мутаций реестра.
// Реализуется RestoreService.
type CacheInvalidator interface {
	Invalidate(code string)
}

// LibraryService — операции владельца над своими ссылками:
// список сохранённого и переименование последней ссылки.
type LibraryService struct {
	registry repository.RegistryRepository
	cache    CacheInvalidator
	logger   *slog.Logger
}

// NewLibraryService создаёт сервис библиотеки владельца.
func NewLibraryService(
	registry repository.RegistryRepository,
	cache CacheInvalidator,
	logger *slog.Logger,
) *LibraryService {
	return &LibraryService{
		registry: registry,
		cache:    cache,
		logger:   logger.With(slog.String("component", "library")),
	}
}

// ListOwned возвращает ссылки владельца, новые — первыми.
func (s *LibraryService) ListOwned(ctx context.Context, ownerID int64) ([]model.OwnedReference, error) {
	return s.registry.ListOwned(ctx, ownerID)
}

// RenameLatest перекодирует последнюю ссылку владельца в newCode.
// Код нормализуется к верхнему регистру и проверяется по формату.
// ErrInvalidCode — формат не прошёл; repository.ErrNotFound — у владельца
// нет ссылок; repository.ErrDuplicateCode — код занят.
// Возвращает старый и новый коды.
func (s *LibraryService) RenameLatest(ctx context.Context, ownerID int64, newCode string) (string, string, error) {
	newCode = strings.ToUpper(strings.TrimSpace(newCode))
	if !isValidCode(newCode) {
		return "", "", ErrInvalidCode
	}

	oldCode, err := s.registry.LatestOwned(ctx, ownerID)
	if err != nil {
		return "", "", err
	}

	if err := s.registry.Rename(ctx, oldCode, newCode, ownerID); err != nil {
		return "", "", err
	}

	// Старый код не должен разрешаться из кэша, новый — из устаревшей записи
	s.cache.Invalidate(oldCode)
	s.cache.Invalidate(newCode)

	s.logger.Info("Ссылка переименована",
		slog.Int64("owner_id", ownerID),
		slog.String("old_code", oldCode),
		slog.String("new_code", newCode),
	)
	return oldCode, newCode, nil
}

// isValidCode проверяет формат кода: A-Z0-9, длина в допустимых пределах.
func isValidCode(code string) bool {
	if len(code) < minCodeLength || len(code) > maxCodeLength {
		return false
	}
	for _, c := range code {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// DeepLink строит ссылку восстановления для кода.
func DeepLink(botUsername, code string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, code)
}
