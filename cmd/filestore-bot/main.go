// Точка входа Filestore Bot.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// создаёт Telegram-клиент и сервисный слой, запускает фоновую очистку,
// long polling апдейтов и служебный HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/archive"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/bot"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/code"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/config"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/database"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/repository"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/server"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/service"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/session"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/telegram"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Filestore Bot запускается",
		slog.String("version", config.Version),
		slog.String("bot_username", cfg.BotUsername),
	)

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Repositories
	registryRepo := repository.NewRegistryRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)

	// 6. Seed: владелец в admins, дефолты автоудаления в bot_settings.
	// Существующие значения (изменённые на лету) не перезаписываются.
	if err := adminRepo.EnsureOwner(ctx, cfg.OwnerID); err != nil {
		logger.Error("Ошибка инициализации владельца", slog.String("error", err.Error()))
		os.Exit(1)
	}
	enabled := "0"
	if cfg.AutoDeleteTTL > 0 {
		enabled = "1"
	}
	if err := settingsRepo.SetDefault(ctx, repository.SettingRetentionEnabled, enabled); err != nil {
		logger.Error("Ошибка инициализации настроек", slog.String("error", err.Error()))
		os.Exit(1)
	}
	ttlSec := strconv.FormatInt(int64(cfg.AutoDeleteTTL.Seconds()), 10)
	if err := settingsRepo.SetDefault(ctx, repository.SettingRetentionTTL, ttlSec); err != nil {
		logger.Error("Ошибка инициализации настроек", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 7. Telegram-клиент и архивный слой
	tgClient := telegram.New(cfg.BotToken, cfg.ArchiveChatID, cfg.PollTimeout, logger)
	relocator := archive.NewRelocator(tgClient, cfg.RelocateAttempts, cfg.RelocateDelay, logger)

	// 8. Services
	codeGen := code.NewGenerator(cfg.CodeLength, registryRepo)
	captureSvc := service.NewCaptureService(registryRepo, codeGen, relocator, session.NewTracker(), logger)
	restoreSvc := service.NewRestoreService(registryRepo, tgClient, cfg.RestoreDelay, logger)
	librarySvc := service.NewLibraryService(registryRepo, restoreSvc, logger)
	rosterSvc := service.NewRosterService(adminRepo, registryRepo, cfg.OwnerID, logger)

	// 9. Фоновая очистка
	sweeper := service.NewSweeper(
		registryRepo, settingsRepo, restoreSvc,
		cfg.SweepIdleInterval, cfg.SweepInterval,
		logger,
	)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// 10. Регистрация меню команд (best-effort)
	if err := tgClient.SetMyCommands(ctx, bot.Commands()); err != nil {
		logger.Warn("Меню команд не зарегистрировано", slog.String("error", err.Error()))
	}

	// 11. Служебный HTTP-сервер (healthz, readyz, metrics)
	opsServer := server.New(cfg.OpsPort, database.NewReadinessChecker(pool), logger)
	errCh := make(chan error, 1)
	opsServer.Start(errCh)

	// 12. Цикл long polling
	router := bot.NewRouter(tgClient, captureSvc, restoreSvc, librarySvc, rosterSvc, cfg.BotUsername, logger)
	poller := bot.NewPoller(tgClient, router, cfg.PollTimeout, logger)

	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		poller.Run(ctx)
	}()

	// 13. Ожидание сигнала завершения или ошибки сервера
	select {
	case <-ctx.Done():
		logger.Info("Получен сигнал завершения")
	case err := <-errCh:
		logger.Error("Служебный HTTP-сервер завершился с ошибкой",
			slog.String("error", err.Error()),
		)
		stop()
	}

	// 14. Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки служебного HTTP-сервера",
			slog.String("error", err.Error()),
		)
	}
	<-pollerDone

	logger.Info("Filestore Bot остановлен")
}
