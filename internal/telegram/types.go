package telegram

import (
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/domain/model"
)

// Update — элемент ответа getUpdates.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// User — отправитель сообщения.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

// Chat — чат, в котором пришло сообщение.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// Message — входящее сообщение Bot API.
// Из медиа-полей используется только факт присутствия (определение типа
// контента); содержимое файлов бот не скачивает.
type Message struct {
	MessageID int    `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text,omitempty"`
	Caption   string `json:"caption,omitempty"`

	Document  *MediaRef  `json:"document,omitempty"`
	Photo     []MediaRef `json:"photo,omitempty"`
	Video     *MediaRef  `json:"video,omitempty"`
	Audio     *MediaRef  `json:"audio,omitempty"`
	Voice     *MediaRef  `json:"voice,omitempty"`
	Sticker   *MediaRef  `json:"sticker,omitempty"`
	Animation *MediaRef  `json:"animation,omitempty"`
}

// MediaRef — минимальная ссылка на медиа-объект (file_id достаточно).
type MediaRef struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileSize     int64  `json:"file_size,omitempty"`
}

// BotCommand — команда для setMyCommands.
type BotCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// apiResponse — стандартный конверт ответа Bot API.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}

// Classify приводит сырое сообщение к доменному InboundContent.
// Возвращает false, если в сообщении нет захватываемого контента
// (служебные сообщения, пустые апдейты).
func Classify(msg *Message) (model.InboundContent, bool) {
	content := model.InboundContent{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Caption:   msg.Caption,
	}

	switch {
	case msg.Document != nil:
		content.Kind = model.KindDocument
	case len(msg.Photo) > 0:
		content.Kind = model.KindPhoto
	case msg.Video != nil:
		content.Kind = model.KindVideo
	case msg.Audio != nil:
		content.Kind = model.KindAudio
	case msg.Voice != nil:
		content.Kind = model.KindVoice
	case msg.Sticker != nil:
		content.Kind = model.KindSticker
	case msg.Animation != nil:
		content.Kind = model.KindAnimation
	case msg.Text != "":
		content.Kind = model.KindText
		content.Caption = msg.Text
	default:
		return model.InboundContent{}, false
	}

	return content, true
}
