// retention.go — фоновая очистка просроченных ссылок и батчей.
//
// Политика (включено / TTL) читается из bot_settings на каждом цикле:
// администратор может менять её на лету без рестарта. При выключенной
// политике цикл переходит в щадящий режим с коротким интервалом
// перепроверки; при включённой — удаляет сущности старше TTL.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/repository"
)

// CachePurger — сброс кэша разрешения после массового удаления.
// Реализуется RestoreService.
type CachePurger interface {
	PurgeCache()
}

// SweepResult — результат одного цикла очистки.
type SweepResult struct {
	// Enabled — была ли политика включена на момент цикла
	Enabled bool
	// Removed — количество удалённых ссылок и батчей
	Removed int
	// Duration — длительность цикла
	Duration time.Duration
}

// Sweeper — сервис фоновой очистки.
type Sweeper struct {
	registry     repository.RegistryRepository
	settings     repository.SettingsRepository
	cache        CachePurger
	idleInterval time.Duration
	workInterval time.Duration
	logger       *slog.Logger

	mu     sync.Mutex // защита от параллельного RunOnce
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper создаёт сервис очистки.
// idleInterval — интервал перепроверки при выключенной политике,
// workInterval — интервал между циклами при включённой.
func NewSweeper(
	registry repository.RegistryRepository,
	settings repository.SettingsRepository,
	cache CachePurger,
	idleInterval, workInterval time.Duration,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		registry:     registry,
		settings:     settings,
		cache:        cache,
		idleInterval: idleInterval,
		workInterval: workInterval,
		logger:       logger.With(slog.String("component", "sweeper")),
	}
}

// Start запускает фоновую горутину очистки.
// Вызывается один раз при старте приложения.
func (s *Sweeper) Start(ctx context.Context) {
	sweepCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(sweepCtx)

	s.logger.Info("Фоновая очистка запущена",
		slog.String("idle_interval", s.idleInterval.String()),
		slog.String("work_interval", s.workInterval.String()),
	)
}

// Stop останавливает фоновую горутину и дожидается её завершения.
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	s.logger.Info("Фоновая очистка остановлена")
}

// run — основной цикл фоновой горутины.
// Интервал следующего тика зависит от состояния политики.
func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	for {
		result := s.RunOnce(ctx)

		interval := s.idleInterval
		if result.Enabled {
			interval = s.workInterval
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// RunOnce выполняет один цикл очистки.
// Потокобезопасен: mutex защищает от параллельного запуска.
func (s *Sweeper) RunOnce(ctx context.Context) *SweepResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	result := &SweepResult{}

	policy, err := s.settings.RetentionPolicy(ctx)
	if err != nil {
		s.logger.Error("Ошибка чтения политики автоудаления",
			slog.String("error", err.Error()),
		)
		return result
	}
	if !policy.Enabled {
		return result
	}
	result.Enabled = true

	cutoff := time.Now().UTC().Add(-policy.TTL)
	removed, err := s.registry.DeleteExpired(ctx, cutoff)
	if err != nil {
		s.logger.Error("Ошибка удаления просроченных сущностей",
			slog.String("error", err.Error()),
		)
		return result
	}
	result.Removed = removed
	result.Duration = time.Since(start)

	sweepRunsTotal.Inc()
	sweepRemovedTotal.Add(float64(removed))
	sweepDurationSeconds.Observe(result.Duration.Seconds())

	if removed > 0 {
		// Удалённые коды не должны разрешаться из кэша
		s.cache.PurgeCache()

		s.logger.Info("Цикл очистки завершён",
			slog.Int("removed", removed),
			slog.String("ttl", policy.TTL.String()),
			slog.Duration("duration", result.Duration),
		)
	}

	return result
}
