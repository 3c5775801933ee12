package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/archive"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/domain/model"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/repository"
)

// Параметры кэша разрешения кодов.
const (
	resolveCacheSize = 1024
	resolveCacheTTL  = 5 * time.Minute
)

// Replayer — доставка архивного сообщения получателю (archive.Transport).
type Replayer interface {
	Replay(ctx context.Context, ptr model.ArchivePointer, destChatID int64) error
}

// RestoreService — разрешение кодов и доставка контента из архива.
// Разрешение кэшируется per-instance LRU с TTL; мутации реестра
// (переименование, очистка) инвалидируют кэш явно.
type RestoreService struct {
	registry repository.RegistryRepository
	replayer Replayer
	cache    *expirable.LRU[string, *model.Resolution]
	pace     time.Duration
	logger   *slog.Logger
}

// NewRestoreService создаёт сервис доставки.
// pace — пауза между элементами батча (щадящий режим для Bot API).
func NewRestoreService(
	registry repository.RegistryRepository,
	replayer Replayer,
	pace time.Duration,
	logger *slog.Logger,
) *RestoreService {
	return &RestoreService{
		registry: registry,
		replayer: replayer,
		cache:    expirable.NewLRU[string, *model.Resolution](resolveCacheSize, nil, resolveCacheTTL),
		pace:     pace,
		logger:   logger.With(slog.String("component", "restore")),
	}
}

// Resolve разрешает код в одиночную ссылку или батч.
// repository.ErrNotFound — кода в реестре нет.
func (s *RestoreService) Resolve(ctx context.Context, code string) (*model.Resolution, error) {
	if res, ok := s.cache.Get(code); ok {
		resolveCacheHitsTotal.Inc()
		return res, nil
	}

	res, err := s.registry.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	s.cache.Add(code, res)
	return res, nil
}

// DeliverSingle доставляет одиночную ссылку получателю.
// Неудача доставки возвращается вызывающему (ErrReplayFailed внутри).
func (s *RestoreService) DeliverSingle(ctx context.Context, ref *model.Reference, destChatID int64) error {
	if err := s.replayer.Replay(ctx, ref.Pointer, destChatID); err != nil {
		restoresTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("%w: %w", archive.ErrReplayFailed, err)
	}

	restoresTotal.WithLabelValues("ok").Inc()
	s.logger.Info("Контент доставлен",
		slog.String("code", ref.Code),
		slog.Int64("dest_chat_id", destChatID),
	)
	return nil
}

// DeliverBatch доставляет элементы батча по порядку с паузой между ними.
// Неудачные элементы пропускаются; возвращается количество доставленных.
// Ошибка — только при отмене контекста (доставка прервана).
func (s *RestoreService) DeliverBatch(ctx context.Context, b *model.Batch, destChatID int64) (int, error) {
	delivered := 0
	for i, ptr := range b.Items {
		if i > 0 {
			select {
			case <-ctx.Done():
				restoresTotal.WithLabelValues("failed").Inc()
				return delivered, ctx.Err()
			case <-time.After(s.pace):
			}
		}

		if err := s.replayer.Replay(ctx, ptr, destChatID); err != nil {
			s.logger.Warn("Элемент батча не доставлен, пропуск",
				slog.String("code", b.Code),
				slog.Int("seq", i),
				slog.String("error", err.Error()),
			)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				restoresTotal.WithLabelValues("failed").Inc()
				return delivered, err
			}
			continue
		}
		delivered++
	}

	if delivered == len(b.Items) {
		restoresTotal.WithLabelValues("ok").Inc()
	} else {
		restoresTotal.WithLabelValues("partial").Inc()
	}

	s.logger.Info("Батч доставлен",
		slog.String("code", b.Code),
		slog.Int("delivered", delivered),
		slog.Int("total", len(b.Items)),
		slog.Int64("dest_chat_id", destChatID),
	)
	return delivered, nil
}

// Invalidate убирает код из кэша разрешения.
// Вызывается после переименования (для старого и нового кодов).
func (s *RestoreService) Invalidate(code string) {
	s.cache.Remove(code)
}

// PurgeCache сбрасывает кэш целиком.
// Вызывается после массового удаления фоновой очисткой.
func (s *RestoreService) PurgeCache() {
	s.cache.Purge()
}
