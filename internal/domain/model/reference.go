// Пакет model — доменные модели реестра ссылок.
package model

import "time"

// ContentKind — тип сохранённого контента (закрытое множество).
type ContentKind string

const (
	KindDocument  ContentKind = "document"
	KindPhoto     ContentKind = "photo"
	KindVideo     ContentKind = "video"
	KindAudio     ContentKind = "audio"
	KindVoice     ContentKind = "voice"
	KindSticker   ContentKind = "sticker"
	KindAnimation ContentKind = "animation"
	KindText      ContentKind = "text"
)

// IsValidKind проверяет, входит ли значение в закрытое множество типов.
func IsValidKind(k ContentKind) bool {
	switch k {
	case KindDocument, KindPhoto, KindVideo, KindAudio,
		KindVoice, KindSticker, KindAnimation, KindText:
		return true
	default:
		return false
	}
}

// ArchivePointer — непрозрачный указатель на сообщение в архивном канале.
// Разрешается только через транспорт архива (forward по chat_id + message_id).
type ArchivePointer struct {
	ChatID    int64
	MessageID int
}

// InboundContent — входящий контент, уже приведённый к tagged-виду.
// Формируется один раз при приёме сообщения и проходит через
// capture и restore без повторного разбора сырых полей.
type InboundContent struct {
	// Чат и сообщение источника (до релокации в архив)
	ChatID    int64
	MessageID int
	// Тип контента из закрытого множества
	Kind ContentKind
	// Подпись к контенту (сохраняется дословно, может быть пустой)
	Caption string
}

// Reference — одиночная сохранённая ссылка: код → указатель в архиве.
type Reference struct {
	Code      string
	Pointer   ArchivePointer
	OwnerID   int64
	CreatedAt time.Time
	Caption   string
	Kind      ContentKind
}

// Batch — упорядоченный набор указателей под одним кодом.
// После фиксации неизменяем: удаляется только целиком (вместе с items).
type Batch struct {
	Code      string
	OwnerID   int64
	CreatedAt time.Time
	// Items — указатели в порядке накопления (порядок значим)
	Items []ArchivePointer
}

// Resolution — результат разрешения кода.
// Заполнено ровно одно из полей: Single или Batch.
type Resolution struct {
	Single *Reference
	Batch  *Batch
}

// OwnedReference — элемент списка "мои файлы" (код + время создания).
type OwnedReference struct {
	Code      string
	CreatedAt time.Time
}

// RegistryStats — агрегированная статистика реестра для /stats.
type RegistryStats struct {
	Files   int
	Batches int
	Items   int
	Admins  int
}

// RetentionPolicy — политика автоудаления, читается из bot_settings
// на каждом цикле фоновой очистки.
type RetentionPolicy struct {
	Enabled bool
	TTL     time.Duration
}
