// Пакет session — эфемерные сессии захвата, по одной на пользователя.
//
// Конечный автомат:
//   idle → awaiting_single → idle  (одиночный захват: ровно одно сообщение)
//   idle → accumulating_batch → idle (тихое накопление + явная фиксация)
//
// Сессии живут только в памяти процесса и не переживают рестарт —
// допустимая потеря. Старт новой сессии заменяет активную.
// Потокобезопасен через sync.Mutex.
package session

import (
	"errors"
	"sync"

	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/domain/model"
)

// State — состояние сессии захвата.
type State string

const (
	// StateIdle — сессии нет, входящий контент игнорируется
	StateIdle State = "idle"
	// StateAwaitingSingle — следующее сообщение будет захвачено одиночно
	StateAwaitingSingle State = "awaiting_single"
	// StateAccumulatingBatch — сообщения тихо накапливаются в батч
	StateAccumulatingBatch State = "accumulating_batch"
)

// ErrNoActiveBatch — финализация без активной батч-сессии.
var ErrNoActiveBatch = errors.New("нет активной батч-сессии")

// session — состояние одного пользователя.
type session struct {
	state State
	// items — накопленные указатели в порядке поступления (только для батча)
	items []model.ArchivePointer
}

// Tracker — реестр сессий захвата, ключ — идентификатор пользователя.
// Внедряется зависимостью в слой маршрутизации, а не глобальным состоянием.
type Tracker struct {
	mu       sync.Mutex
	sessions map[int64]*session
}

// NewTracker создаёт пустой реестр сессий.
func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[int64]*session)}
}

// State возвращает текущее состояние сессии пользователя.
func (t *Tracker) State(userID int64) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[userID]
	if !ok {
		return StateIdle
	}
	return s.state
}

// BeginSingle переводит пользователя в режим одиночного захвата.
// Активная сессия (любого типа) заменяется, её состояние теряется.
func (t *Tracker) BeginSingle(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[userID] = &session{state: StateAwaitingSingle}
}

// BeginBatch переводит пользователя в режим накопления батча.
// Активная сессия (любого типа) заменяется.
func (t *Tracker) BeginBatch(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[userID] = &session{state: StateAccumulatingBatch}
}

// TakeSingle атомарно потребляет сессию одиночного захвата.
// Возвращает true, если пользователь ожидал одиночный захват; сессия
// снимается до попытки релокации — неудачный захват не оставляет
// пользователя «навсегда ожидающим».
func (t *Tracker) TakeSingle(userID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[userID]
	if !ok || s.state != StateAwaitingSingle {
		return false
	}
	delete(t.sessions, userID)
	return true
}

// AppendBatchItem добавляет указатель в накапливаемый батч.
// Возвращает false, если батч-сессии нет (элемент не принят).
func (t *Tracker) AppendBatchItem(userID int64, ptr model.ArchivePointer) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[userID]
	if !ok || s.state != StateAccumulatingBatch {
		return false
	}
	s.items = append(s.items, ptr)
	return true
}

// FinalizeBatch завершает батч-сессию и возвращает накопленные указатели
// в порядке поступления. Сессия снимается в любом случае, в том числе
// при пустом батче (решение о пустоте принимает вызывающий слой).
func (t *Tracker) FinalizeBatch(userID int64) ([]model.ArchivePointer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[userID]
	if !ok || s.state != StateAccumulatingBatch {
		return nil, ErrNoActiveBatch
	}
	delete(t.sessions, userID)
	return s.items, nil
}

// Abandon снимает активную сессию пользователя, если она есть.
func (t *Tracker) Abandon(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, userID)
}

// Active возвращает количество активных сессий (для диагностики).
func (t *Tracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
