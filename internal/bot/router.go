// Пакет bot — маршрутизация входящих апдейтов: команды и контент.
//
// Обработка сериализуется по пользователю (per-user mutex): два
// сообщения одного пользователя не гонятся за одну сессию захвата,
// разные пользователи обрабатываются параллельно.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/archive"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/repository"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/service"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/session"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/telegram"
)

// Sender — отправка текстовых ответов (telegram.Client).
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Router — диспетчер входящих сообщений.
type Router struct {
	api         Sender
	capture     *service.CaptureService
	restore     *service.RestoreService
	library     *service.LibraryService
	roster      *service.RosterService
	botUsername string
	logger      *slog.Logger

	mu        sync.Mutex
	userLocks map[int64]*sync.Mutex
}

// NewRouter создаёт диспетчер.
func NewRouter(
	api Sender,
	capture *service.CaptureService,
	restore *service.RestoreService,
	library *service.LibraryService,
	roster *service.RosterService,
	botUsername string,
	logger *slog.Logger,
) *Router {
	return &Router{
		api:         api,
		capture:     capture,
		restore:     restore,
		library:     library,
		roster:      roster,
		botUsername: botUsername,
		logger:      logger.With(slog.String("component", "router")),
		userLocks:   make(map[int64]*sync.Mutex),
	}
}

// Commands возвращает список команд для регистрации меню бота.
func Commands() []telegram.BotCommand {
	return []telegram.BotCommand{
		{Command: "start", Description: "Start / restore by code"},
		{Command: "help", Description: "Show commands"},
		{Command: "filestore", Description: "Store the next message (one file)"},
		{Command: "myfiles", Description: "List your stored files"},
		{Command: "setcode", Description: "Rename last stored file"},
		{Command: "batch", Description: "Start silent batch (admin)"},
		{Command: "batchdone", Description: "Finish batch and generate one link"},
		{Command: "stats", Description: "Show bot stats (admin)"},
		{Command: "adminlist", Description: "List admins"},
		{Command: "addadmin", Description: "Add an admin (owner only)"},
		{Command: "removeadmin", Description: "Remove an admin (owner only)"},
	}
}

// HandleUpdate обрабатывает один апдейт.
// Потокобезопасен; сообщения одного пользователя сериализуются.
func (r *Router) HandleUpdate(ctx context.Context, upd telegram.Update) {
	msg := upd.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return
	}

	lock := r.userLock(msg.From.ID)
	lock.Lock()
	defer lock.Unlock()

	if cmd, args, ok := parseCommand(msg.Text); ok {
		r.handleCommand(ctx, msg, cmd, args)
		return
	}
	r.handleContent(ctx, msg)
}

// userLock возвращает mutex пользователя, создавая его при первом обращении.
func (r *Router) userLock(userID int64) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		r.userLocks[userID] = lock
	}
	return lock
}

// parseCommand разбирает "/cmd args" с необязательным суффиксом @BotName.
func parseCommand(text string) (cmd string, args []string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}
	fields := strings.Fields(text)
	cmd = strings.TrimPrefix(fields[0], "/")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd), fields[1:], true
}

func (r *Router) handleCommand(ctx context.Context, msg *telegram.Message, cmd string, args []string) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	switch cmd {
	case "start":
		if len(args) > 0 {
			r.handleRestore(ctx, chatID, strings.TrimSpace(args[0]))
			return
		}
		r.reply(ctx, chatID,
			"Welcome — Filestore Bot.\nUse /help to see commands.\n"+
				"Use /filestore to store next message (one file). Admins: /batch and /batchdone.")

	case "help":
		r.reply(ctx, chatID,
			"Commands:\n"+
				"filestore – store the next message you send (one file)\n"+
				"myfiles – list your stored files\n"+
				"setcode NEWCODE – rename your last stored file\n\n"+
				"batch – start silent batch (admin only)\n"+
				"batchdone – finish batch and get link\n\n"+
				"stats – admin only\n"+
				"adminlist – admin only\n"+
				"addadmin USERID – owner only\n"+
				"removeadmin USERID – owner only\n")

	case "filestore":
		r.capture.BeginSingle(userID)
		r.reply(ctx, chatID, "Send the message (file / media / sticker / text) you want to store (single).")

	case "myfiles":
		r.handleMyFiles(ctx, userID, chatID)

	case "setcode":
		r.handleSetCode(ctx, userID, chatID, args)

	case "batch":
		if err := r.roster.RequireAdmin(ctx, userID); err != nil {
			r.replyAccessError(ctx, chatID, err)
			return
		}
		// Тихий режим: накопление без подтверждений
		r.capture.BeginBatch(userID)

	case "batchdone":
		r.handleBatchDone(ctx, userID, chatID)

	case "stats":
		r.handleStats(ctx, userID, chatID)

	case "adminlist":
		r.handleAdminList(ctx, chatID)

	case "addadmin":
		r.handleAddAdmin(ctx, userID, chatID, args)

	case "removeadmin":
		r.handleRemoveAdmin(ctx, userID, chatID, args)
	}
	// Неизвестные команды игнорируются
}

// handleContent обрабатывает не-командное сообщение по состоянию сессии.
func (r *Router) handleContent(ctx context.Context, msg *telegram.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	switch r.capture.SessionState(userID) {
	case session.StateAwaitingSingle:
		content, ok := telegram.Classify(msg)
		if !ok {
			return
		}
		code, err := r.capture.CaptureSingle(ctx, userID, content)
		if err != nil {
			if errors.Is(err, service.ErrNoCaptureSession) {
				return
			}
			r.logger.Error("Одиночный захват не удался",
				slog.Int64("user_id", userID),
				slog.String("error", err.Error()),
			)
			if errors.Is(err, archive.ErrRelocationFailed) {
				r.reply(ctx, chatID, "❌ Could not store the file (forward failed).")
			} else {
				r.reply(ctx, chatID, "❌ Could not store the file.")
			}
			return
		}
		r.reply(ctx, chatID, "Stored!\n"+service.DeepLink(r.botUsername, code))

	case session.StateAccumulatingBatch:
		content, ok := telegram.Classify(msg)
		if !ok {
			return
		}
		// Тихое накопление: ни успех, ни неудача не подтверждаются
		if err := r.capture.AppendToBatch(ctx, userID, content); err != nil &&
			!errors.Is(err, service.ErrNoCaptureSession) {
			r.logger.Warn("Элемент батча не захвачен",
				slog.Int64("user_id", userID),
				slog.String("error", err.Error()),
			)
		}

	default:
		// Вне сессии контент игнорируется
	}
}

// handleRestore доставляет сохранённый контент по коду (deep link).
func (r *Router) handleRestore(ctx context.Context, chatID int64, code string) {
	res, err := r.restore.Resolve(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			r.reply(ctx, chatID, "Invalid or expired link.")
			return
		}
		r.logger.Error("Разрешение кода не удалось",
			slog.String("code", code),
			slog.String("error", err.Error()),
		)
		r.reply(ctx, chatID, "❌ Failed to restore file.")
		return
	}

	if res.Single != nil {
		if err := r.restore.DeliverSingle(ctx, res.Single, chatID); err != nil {
			r.reply(ctx, chatID, "❌ Failed to restore file.")
		}
		return
	}

	r.reply(ctx, chatID, fmt.Sprintf("Sending %d files…", len(res.Batch.Items)))
	if _, err := r.restore.DeliverBatch(ctx, res.Batch, chatID); err != nil {
		r.logger.Error("Доставка батча прервана",
			slog.String("code", code),
			slog.String("error", err.Error()),
		)
	}
}

func (r *Router) handleMyFiles(ctx context.Context, userID, chatID int64) {
	refs, err := r.library.ListOwned(ctx, userID)
	if err != nil {
		r.logger.Error("Список ссылок не получен",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return
	}
	if len(refs) == 0 {
		r.reply(ctx, chatID, "You have no stored files.")
		return
	}

	lines := make([]string, 0, len(refs))
	for _, ref := range refs {
		lines = append(lines, fmt.Sprintf("%s — %s\n%s",
			ref.Code,
			ref.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			service.DeepLink(r.botUsername, ref.Code),
		))
	}
	r.reply(ctx, chatID, strings.Join(lines, "\n\n"))
}

func (r *Router) handleSetCode(ctx context.Context, userID, chatID int64, args []string) {
	if len(args) == 0 {
		r.reply(ctx, chatID, "Usage: setcode NEWCODE")
		return
	}

	_, newCode, err := r.library.RenameLatest(ctx, userID, args[0])
	switch {
	case errors.Is(err, service.ErrInvalidCode):
		r.reply(ctx, chatID, "Code must be 4-32 letters and digits.")
	case errors.Is(err, repository.ErrDuplicateCode):
		r.reply(ctx, chatID, "Code already in use.")
	case errors.Is(err, repository.ErrNotFound):
		r.reply(ctx, chatID, "No recent file to rename.")
	case err != nil:
		r.logger.Error("Переименование не удалось",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	default:
		r.reply(ctx, chatID, "Code updated: "+service.DeepLink(r.botUsername, newCode))
	}
}

func (r *Router) handleBatchDone(ctx context.Context, userID, chatID int64) {
	if err := r.roster.RequireAdmin(ctx, userID); err != nil {
		r.replyAccessError(ctx, chatID, err)
		return
	}

	code, _, err := r.capture.FinalizeBatch(ctx, userID)
	switch {
	case errors.Is(err, session.ErrNoActiveBatch):
		r.reply(ctx, chatID, "No active batch.")
	case errors.Is(err, service.ErrEmptyBatch):
		r.reply(ctx, chatID, "Batch is empty.")
	case err != nil:
		r.logger.Error("Фиксация батча не удалась",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		r.reply(ctx, chatID, "❌ Could not save the batch.")
	default:
		r.reply(ctx, chatID, "Batch saved!\n"+service.DeepLink(r.botUsername, code))
	}
}

func (r *Router) handleStats(ctx context.Context, userID, chatID int64) {
	stats, err := r.roster.Stats(ctx, userID)
	if err != nil {
		r.replyAccessError(ctx, chatID, err)
		return
	}
	r.reply(ctx, chatID, fmt.Sprintf("Files: %d\nBatches: %d\nItems: %d\nAdmins: %d",
		stats.Files, stats.Batches, stats.Items, stats.Admins))
}

func (r *Router) handleAdminList(ctx context.Context, chatID int64) {
	ids, err := r.roster.ListAdmins(ctx)
	if err != nil {
		r.logger.Error("Список администраторов не получен",
			slog.String("error", err.Error()),
		)
		return
	}

	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, strconv.FormatInt(id, 10))
	}
	r.reply(ctx, chatID, "Admins:\n"+strings.Join(lines, "\n"))
}

func (r *Router) handleAddAdmin(ctx context.Context, userID, chatID int64, args []string) {
	if len(args) == 0 {
		r.reply(ctx, chatID, "Usage: addadmin USERID")
		return
	}
	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		r.reply(ctx, chatID, "Usage: addadmin USERID")
		return
	}

	switch err := r.roster.AddAdmin(ctx, userID, target); {
	case errors.Is(err, service.ErrForbidden):
		r.reply(ctx, chatID, "Owner only.")
	case err != nil:
		r.logger.Error("Добавление администратора не удалось",
			slog.Int64("target", target),
			slog.String("error", err.Error()),
		)
	default:
		r.reply(ctx, chatID, fmt.Sprintf("Added admin %d", target))
	}
}

func (r *Router) handleRemoveAdmin(ctx context.Context, userID, chatID int64, args []string) {
	if len(args) == 0 {
		r.reply(ctx, chatID, "Usage: removeadmin USERID")
		return
	}
	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		r.reply(ctx, chatID, "Usage: removeadmin USERID")
		return
	}

	switch err := r.roster.RemoveAdmin(ctx, userID, target); {
	case errors.Is(err, service.ErrForbidden):
		r.reply(ctx, chatID, "Owner only.")
	case errors.Is(err, service.ErrOwnerImmutable):
		r.reply(ctx, chatID, "The owner cannot be removed.")
	case errors.Is(err, repository.ErrNotFound):
		r.reply(ctx, chatID, "Not an admin.")
	case err != nil:
		r.logger.Error("Удаление администратора не удалось",
			slog.Int64("target", target),
			slog.String("error", err.Error()),
		)
	default:
		r.reply(ctx, chatID, fmt.Sprintf("Removed admin %d", target))
	}
}

// replyAccessError отвечает на отказ в доступе.
func (r *Router) replyAccessError(ctx context.Context, chatID int64, err error) {
	if errors.Is(err, service.ErrForbidden) {
		r.reply(ctx, chatID, "Admins only.")
		return
	}
	r.logger.Error("Проверка прав не удалась", slog.String("error", err.Error()))
}

// reply отправляет ответ, логируя неудачу отправки.
func (r *Router) reply(ctx context.Context, chatID int64, text string) {
	if err := r.api.SendMessage(ctx, chatID, text); err != nil {
		r.logger.Warn("Ответ не отправлен",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}
