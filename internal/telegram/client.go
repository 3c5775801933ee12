// Пакет telegram — HTTP-клиент Telegram Bot API.
// Покрывает только используемые ботом методы: getUpdates (long polling),
// forwardMessage, sendMessage, setMyCommands. Реализует archive.Transport:
// релокация — forward входящего сообщения в архивный канал, доставка —
// forward из архива получателю.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/domain/model"
)

const defaultBaseURL = "https://api.telegram.org"

// Client — клиент Bot API.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	token         string
	archiveChatID int64
	logger        *slog.Logger
}

// New создаёт клиент Bot API.
// pollTimeout — таймаут long polling getUpdates; HTTP-таймаут клиента
// берётся с запасом поверх него, чтобы не рвать висящий poll.
func New(token string, archiveChatID int64, pollTimeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: pollTimeout + 10*time.Second},
		baseURL:       defaultBaseURL,
		token:         token,
		archiveChatID: archiveChatID,
		logger:        logger.With(slog.String("component", "telegram_client")),
	}
}

// call выполняет POST-запрос метода Bot API и декодирует конверт ответа
// в result (result может быть nil, если тело не нужно).
// Токен в ошибки не попадает — только имя метода.
func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("сериализация параметров %s: %w", method, err)
	}

	reqURL := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("создание запроса %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("запрос %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("чтение ответа %s: %w", method, err)
	}

	var envelope struct {
		apiResponse
		Result json.RawMessage `json:"result,omitempty"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("декодирование ответа %s (статус %d): %w", method, resp.StatusCode, err)
	}
	if !envelope.OK {
		return fmt.Errorf("%s вернул ошибку %d: %s", method, envelope.ErrorCode, envelope.Description)
	}

	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("декодирование результата %s: %w", method, err)
		}
	}
	return nil
}

// GetUpdates запрашивает апдейты long polling'ом.
// offset — идентификатор, с которого подтверждены предыдущие апдейты.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	params := map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message"},
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage отправляет текстовое сообщение в чат.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	params := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	return c.call(ctx, "sendMessage", params, nil)
}

// SetMyCommands регистрирует список команд бота.
func (c *Client) SetMyCommands(ctx context.Context, commands []BotCommand) error {
	params := map[string]any{"commands": commands}
	return c.call(ctx, "setMyCommands", params, nil)
}

// forward пересылает сообщение и возвращает message_id копии.
func (c *Client) forward(ctx context.Context, fromChatID int64, messageID int, toChatID int64) (int, error) {
	params := map[string]any{
		"chat_id":      toChatID,
		"from_chat_id": fromChatID,
		"message_id":   messageID,
	}

	var forwarded Message
	if err := c.call(ctx, "forwardMessage", params, &forwarded); err != nil {
		return 0, err
	}
	return forwarded.MessageID, nil
}

// Relocate переносит входящее сообщение в архивный канал.
// Реализация archive.Transport: одна попытка, повторы — забота релокатора.
func (c *Client) Relocate(ctx context.Context, content model.InboundContent) (model.ArchivePointer, error) {
	messageID, err := c.forward(ctx, content.ChatID, content.MessageID, c.archiveChatID)
	if err != nil {
		return model.ArchivePointer{}, err
	}

	c.logger.Debug("Контент перенесён в архив",
		slog.Int("source_message_id", content.MessageID),
		slog.Int("archive_message_id", messageID),
		slog.String("kind", string(content.Kind)),
	)

	return model.ArchivePointer{ChatID: c.archiveChatID, MessageID: messageID}, nil
}

// Replay доставляет архивное сообщение получателю.
func (c *Client) Replay(ctx context.Context, ptr model.ArchivePointer, destChatID int64) error {
	if _, err := c.forward(ctx, ptr.ChatID, ptr.MessageID, destChatID); err != nil {
		return err
	}
	return nil
}
