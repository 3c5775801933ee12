package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/domain/model"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memSender собирает отправленные ответы.
type memSender struct {
	mu       sync.Mutex
	messages []sentMessage
}

type sentMessage struct {
	chatID int64
	text   string
}

func (s *memSender) SendMessage(_ context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, sentMessage{chatID: chatID, text: text})
	return nil
}

func (s *memSender) last() (sentMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return sentMessage{}, false
	}
	return s.messages[len(s.messages)-1], true
}

func (s *memSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// memRegistry — in-memory реализация RegistryRepository.
type memRegistry struct {
	mu      sync.Mutex
	files   map[string]*model.Reference
	batches map[string]*model.Batch
}

func newMemRegistry() *memRegistry {
	return &memRegistry{
		files:   make(map[string]*model.Reference),
		batches: make(map[string]*model.Batch),
	}
}

func (m *memRegistry) inUse(code string) bool {
	_, f := m.files[code]
	_, b := m.batches[code]
	return f || b
}

func (m *memRegistry) InsertReference(_ context.Context, ref *model.Reference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inUse(ref.Code) {
		return repository.ErrDuplicateCode
	}
	cp := *ref
	m.files[ref.Code] = &cp
	return nil
}

func (m *memRegistry) InsertBatch(_ context.Context, b *model.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inUse(b.Code) {
		return repository.ErrDuplicateCode
	}
	cp := *b
	cp.Items = append([]model.ArchivePointer(nil), b.Items...)
	m.batches[b.Code] = &cp
	return nil
}

func (m *memRegistry) Resolve(_ context.Context, code string) (*model.Resolution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ref, ok := m.files[code]; ok {
		cp := *ref
		return &model.Resolution{Single: &cp}, nil
	}
	if b, ok := m.batches[code]; ok {
		cp := *b
		return &model.Resolution{Batch: &cp}, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memRegistry) Rename(_ context.Context, oldCode, newCode string, ownerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inUse(newCode) {
		return repository.ErrDuplicateCode
	}
	ref, ok := m.files[oldCode]
	if !ok || ref.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(m.files, oldCode)
	ref.Code = newCode
	m.files[newCode] = ref
	return nil
}

func (m *memRegistry) LatestOwned(_ context.Context, ownerID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.Reference
	for _, ref := range m.files {
		if ref.OwnerID != ownerID {
			continue
		}
		if latest == nil || ref.CreatedAt.After(latest.CreatedAt) {
			latest = ref
		}
	}
	if latest == nil {
		return "", repository.ErrNotFound
	}
	return latest.Code, nil
}

func (m *memRegistry) ListOwned(_ context.Context, ownerID int64) ([]model.OwnedReference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.OwnedReference
	for _, ref := range m.files {
		if ref.OwnerID == ownerID {
			out = append(out, model.OwnedReference{Code: ref.Code, CreatedAt: ref.CreatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRegistry) DeleteExpired(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for code, ref := range m.files {
		if ref.CreatedAt.Before(cutoff) {
			delete(m.files, code)
			removed++
		}
	}
	for code, b := range m.batches {
		if b.CreatedAt.Before(cutoff) {
			delete(m.batches, code)
			removed++
		}
	}
	return removed, nil
}

func (m *memRegistry) CodeInUse(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inUse(code), nil
}

func (m *memRegistry) Stats(_ context.Context) (*model.RegistryStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := 0
	for _, b := range m.batches {
		items += len(b.Items)
	}
	return &model.RegistryStats{
		Files:   len(m.files),
		Batches: len(m.batches),
		Items:   items,
	}, nil
}

// memAdmins — in-memory реализация AdminRepository.
type memAdmins struct {
	mu  sync.Mutex
	ids map[int64]bool
}

func newMemAdmins(ids ...int64) *memAdmins {
	m := &memAdmins{ids: make(map[int64]bool)}
	for _, id := range ids {
		m.ids[id] = true
	}
	return m
}

func (m *memAdmins) EnsureOwner(_ context.Context, ownerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[ownerID] = true
	return nil
}

func (m *memAdmins) IsAdmin(_ context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids[userID], nil
}

func (m *memAdmins) Add(_ context.Context, userID, _ int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[userID] = true
	return nil
}

func (m *memAdmins) Remove(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ids[userID] {
		return repository.ErrNotFound
	}
	delete(m.ids, userID)
	return nil
}

func (m *memAdmins) List(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int64, 0, len(m.ids))
	for id := range m.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// fakeTransport — архивный транспорт: релокация выдаёт возрастающие
// message_id, доставленные указатели записываются.
type fakeTransport struct {
	mu        sync.Mutex
	nextID    int
	failNext  bool
	delivered []model.ArchivePointer
}

func (f *fakeTransport) Relocate(_ context.Context, _ model.InboundContent) (model.ArchivePointer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return model.ArchivePointer{}, fmt.Errorf("forward failed")
	}
	f.nextID++
	return model.ArchivePointer{ChatID: -100, MessageID: f.nextID}, nil
}

func (f *fakeTransport) Replay(_ context.Context, ptr model.ArchivePointer, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, ptr)
	return nil
}

// seqCodes — детерминированный источник кодов.
type seqCodes struct {
	mu sync.Mutex
	n  int
}

func (s *seqCodes) Generate(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("CODE%04d", s.n), nil
}
