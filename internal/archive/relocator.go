package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/domain/model"
)

// Relocator — перенос контента в архив с ограниченным числом повторов.
// Повторы покрывают транзиентные ошибки транспорта; при исчерпании
// бюджета возвращается ErrRelocationFailed и записи в архиве нет.
type Relocator struct {
	transport Transport
	attempts  int
	delay     time.Duration
	logger    *slog.Logger
}

// NewRelocator создаёт релокатор.
// attempts — бюджет попыток (>= 1), delay — фиксированная пауза между ними.
func NewRelocator(transport Transport, attempts int, delay time.Duration, logger *slog.Logger) *Relocator {
	return &Relocator{
		transport: transport,
		attempts:  attempts,
		delay:     delay,
		logger:    logger.With(slog.String("component", "relocator")),
	}
}

// Relocate переносит контент в архив.
// Успешный вызов делает ровно одну запись в архив; после исчерпания
// бюджета попыток возвращается ErrRelocationFailed (обёрнутая последняя
// ошибка транспорта внутри).
func (r *Relocator) Relocate(ctx context.Context, content model.InboundContent) (model.ArchivePointer, error) {
	var lastErr error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		ptr, err := r.transport.Relocate(ctx, content)
		if err == nil {
			return ptr, nil
		}
		lastErr = err

		r.logger.Warn("Попытка переноса в архив не удалась",
			slog.Int("attempt", attempt),
			slog.Int("attempts_max", r.attempts),
			slog.Int("message_id", content.MessageID),
			slog.String("error", err.Error()),
		)

		if attempt == r.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return model.ArchivePointer{}, fmt.Errorf("%w: %w", ErrRelocationFailed, ctx.Err())
		case <-time.After(r.delay):
		}
	}

	return model.ArchivePointer{}, fmt.Errorf("%w: %w", ErrRelocationFailed, lastErr)
}
