// Пакет service — бизнес-логика бота поверх репозиториев и архивного слоя.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/domain/model"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/repository"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/session"
)

// insertAttempts — предел повторов вставки при гонке за код.
// Генератор уже проверяет занятость, повтор нужен только на случай
// одновременной выдачи одинакового кода двум захватам.
const insertAttempts = 3

// Relocator — перенос контента в архив (реализуется archive.Relocator).
type Relocator interface {
	Relocate(ctx context.Context, content model.InboundContent) (model.ArchivePointer, error)
}

// CodeSource — выдача свободных кодов (реализуется code.Generator).
type CodeSource interface {
	Generate(ctx context.Context) (string, error)
}

// CaptureService — захват контента: одиночный и батчевый.
// Управляет сессиями пользователей и превращает входящий контент
// в записи реестра с выданными кодами.
type CaptureService struct {
	registry  repository.RegistryRepository
	codes     CodeSource
	relocator Relocator
	sessions  *session.Tracker
	logger    *slog.Logger
}

// NewCaptureService создаёт сервис захвата.
func NewCaptureService(
	registry repository.RegistryRepository,
	codes CodeSource,
	relocator Relocator,
	sessions *session.Tracker,
	logger *slog.Logger,
) *CaptureService {
	return &CaptureService{
		registry:  registry,
		codes:     codes,
		relocator: relocator,
		sessions:  sessions,
		logger:    logger.With(slog.String("component", "capture")),
	}
}

// BeginSingle открывает сессию одиночного захвата.
func (s *CaptureService) BeginSingle(userID int64) {
	s.sessions.BeginSingle(userID)
}

// BeginBatch открывает сессию накопления батча.
func (s *CaptureService) BeginBatch(userID int64) {
	s.sessions.BeginBatch(userID)
}

// SessionState возвращает состояние сессии пользователя.
func (s *CaptureService) SessionState(userID int64) session.State {
	return s.sessions.State(userID)
}

// CaptureSingle обрабатывает контент в режиме одиночного захвата:
// потребляет сессию, переносит контент в архив и регистрирует код.
// ErrNoCaptureSession — пользователь не ожидал одиночный захват;
// ErrInvalidKind — тип контента вне закрытого множества (сессия
// остаётся открытой, как и для незахватываемого сообщения).
func (s *CaptureService) CaptureSingle(ctx context.Context, userID int64, content model.InboundContent) (string, error) {
	if !model.IsValidKind(content.Kind) {
		return "", ErrInvalidKind
	}
	if !s.sessions.TakeSingle(userID) {
		return "", ErrNoCaptureSession
	}

	ptr, err := s.relocator.Relocate(ctx, content)
	if err != nil {
		return "", err
	}

	code, err := s.insertReference(ctx, userID, ptr, content)
	if err != nil {
		return "", err
	}

	capturesTotal.WithLabelValues(string(content.Kind), "single").Inc()
	s.logger.Info("Контент захвачен",
		slog.Int64("user_id", userID),
		slog.String("code", code),
		slog.String("kind", string(content.Kind)),
	)
	return code, nil
}

// AppendToBatch тихо добавляет контент в накапливаемый батч.
// ErrNoCaptureSession — у пользователя нет активной батч-сессии;
// ErrInvalidKind — тип контента вне закрытого множества.
func (s *CaptureService) AppendToBatch(ctx context.Context, userID int64, content model.InboundContent) error {
	if !model.IsValidKind(content.Kind) {
		return ErrInvalidKind
	}
	if s.sessions.State(userID) != session.StateAccumulatingBatch {
		return ErrNoCaptureSession
	}

	ptr, err := s.relocator.Relocate(ctx, content)
	if err != nil {
		return err
	}

	// Сессия могла быть снята, пока шла релокация; элемент теряется,
	// запись в архиве остаётся (безвредный сирота)
	if !s.sessions.AppendBatchItem(userID, ptr) {
		s.logger.Warn("Батч-сессия снята во время релокации, элемент отброшен",
			slog.Int64("user_id", userID),
			slog.Int("archive_message_id", ptr.MessageID),
		)
		return ErrNoCaptureSession
	}

	capturesTotal.WithLabelValues(string(content.Kind), "batch").Inc()
	return nil
}

// FinalizeBatch фиксирует накопленный батч под одним кодом.
// session.ErrNoActiveBatch — батч-сессии нет; ErrEmptyBatch — в ней
// не накоплено ни одного элемента (сессия в обоих случаях снята).
func (s *CaptureService) FinalizeBatch(ctx context.Context, userID int64) (string, int, error) {
	items, err := s.sessions.FinalizeBatch(userID)
	if err != nil {
		return "", 0, err
	}
	if len(items) == 0 {
		return "", 0, ErrEmptyBatch
	}

	code, err := s.withFreshCode(ctx, func(code string) error {
		return s.registry.InsertBatch(ctx, &model.Batch{
			Code:      code,
			OwnerID:   userID,
			CreatedAt: time.Now().UTC(),
			Items:     items,
		})
	})
	if err != nil {
		return "", 0, err
	}

	s.logger.Info("Батч зафиксирован",
		slog.Int64("user_id", userID),
		slog.String("code", code),
		slog.Int("items", len(items)),
	)
	return code, len(items), nil
}

// Abandon снимает активную сессию пользователя.
func (s *CaptureService) Abandon(userID int64) {
	s.sessions.Abandon(userID)
}

// insertReference регистрирует одиночную ссылку под свежим кодом.
func (s *CaptureService) insertReference(ctx context.Context, userID int64, ptr model.ArchivePointer, content model.InboundContent) (string, error) {
	return s.withFreshCode(ctx, func(code string) error {
		return s.registry.InsertReference(ctx, &model.Reference{
			Code:      code,
			Pointer:   ptr,
			OwnerID:   userID,
			CreatedAt: time.Now().UTC(),
			Caption:   content.Caption,
			Kind:      content.Kind,
		})
	})
}

// withFreshCode выполняет вставку под сгенерированным кодом,
// повторяя с новым кодом при ErrDuplicateCode.
func (s *CaptureService) withFreshCode(ctx context.Context, insert func(code string) error) (string, error) {
	var lastErr error
	for attempt := 0; attempt < insertAttempts; attempt++ {
		code, err := s.codes.Generate(ctx)
		if err != nil {
			return "", err
		}

		err = insert(code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, repository.ErrDuplicateCode) {
			return "", err
		}
		lastErr = err

		s.logger.Warn("Гонка за код, повтор с новым кодом",
			slog.String("code", code),
			slog.Int("attempt", attempt+1),
		)
	}
	return "", fmt.Errorf("не удалось зарегистрировать код за %d попыток: %w", insertAttempts, lastErr)
}
