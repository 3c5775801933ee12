// Пакет archive — перенос контента в архивный канал и обратная доставка.
//
// Transport абстрагирует внешнее хранилище сообщений (Telegram Bot API);
// ядро видит только непрозрачные указатели chat_id + message_id.
package archive

import (
	"context"
	"errors"

	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/domain/model"
)

// Ошибки архивного слоя.
var (
	// ErrRelocationFailed — перенос в архив не удался после всех попыток.
	ErrRelocationFailed = errors.New("не удалось перенести контент в архив")
	// ErrReplayFailed — доставка из архива получателю не удалась.
	ErrReplayFailed = errors.New("не удалось доставить контент из архива")
)

// Transport — операции внешнего хранилища сообщений.
type Transport interface {
	// Relocate переносит входящее сообщение в архив и возвращает указатель.
	Relocate(ctx context.Context, content model.InboundContent) (model.ArchivePointer, error)
	// Replay доставляет архивное сообщение в указанный чат.
	Replay(ctx context.Context, ptr model.ArchivePointer, destChatID int64) error
}
