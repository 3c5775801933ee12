package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/telegram"
)

// pollRetryDelay — пауза перед повтором после ошибки getUpdates.
const pollRetryDelay = 3 * time.Second

// userQueueCapacity — ёмкость очереди апдейтов одного пользователя.
// Переполненная очередь притормаживает цикл опроса (backpressure).
const userQueueCapacity = 64

// UpdateSource — источник апдейтов (telegram.Client).
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
}

// Poller — цикл long polling: читает апдейты и раздаёт их воркерам.
// На каждого пользователя заводится один воркер с FIFO-очередью:
// апдейты одного пользователя обрабатываются строго в порядке получения,
// разные пользователи — параллельно.
type Poller struct {
	source  UpdateSource
	router  *Router
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	queues map[int64]chan telegram.Update
	wg     sync.WaitGroup
}

// NewPoller создаёт цикл опроса.
func NewPoller(source UpdateSource, router *Router, timeout time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		source:  source,
		router:  router,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "poller")),
		queues:  make(map[int64]chan telegram.Update),
	}
}

// Run крутит цикл опроса до отмены контекста, затем дожидается воркеров.
// Ошибки получения апдейтов логируются, опрос продолжается с паузой.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("Опрос апдейтов запущен",
		slog.String("timeout", p.timeout.String()),
	)
	defer func() {
		p.mu.Lock()
		for _, q := range p.queues {
			close(q)
		}
		p.mu.Unlock()
		p.wg.Wait()
		p.logger.Info("Опрос апдейтов остановлен")
	}()

	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := p.source.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("Ошибка получения апдейтов",
				slog.String("error", err.Error()),
			)
			select {
			case <-ctx.Done():
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			p.dispatch(ctx, upd)
		}
	}
}

// dispatch кладёт апдейт в FIFO-очередь его пользователя.
// Апдейты без отправителя обрабатываются на месте (Router их отбрасывает).
func (p *Poller) dispatch(ctx context.Context, upd telegram.Update) {
	if upd.Message == nil || upd.Message.From == nil {
		p.router.HandleUpdate(ctx, upd)
		return
	}

	q := p.userQueue(ctx, upd.Message.From.ID)
	select {
	case q <- upd:
	case <-ctx.Done():
	}
}

// userQueue возвращает очередь пользователя, запуская воркер
// при первом обращении.
func (p *Poller) userQueue(ctx context.Context, userID int64) chan telegram.Update {
	p.mu.Lock()
	defer p.mu.Unlock()

	q, ok := p.queues[userID]
	if !ok {
		q = make(chan telegram.Update, userQueueCapacity)
		p.queues[userID] = q
		p.wg.Add(1)
		go p.worker(ctx, q)
	}
	return q
}

// worker последовательно обрабатывает очередь одного пользователя.
func (p *Poller) worker(ctx context.Context, q chan telegram.Update) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-q:
			if !ok {
				return
			}
			p.router.HandleUpdate(ctx, upd)
		}
	}
}
