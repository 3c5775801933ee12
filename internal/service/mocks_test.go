package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/domain/model"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockRegistry — мок RegistryRepository с функциональными полями.
type mockRegistry struct {
	insertReferenceFn func(ctx context.Context, ref *model.Reference) error
	insertBatchFn     func(ctx context.Context, b *model.Batch) error
	resolveFn         func(ctx context.Context, code string) (*model.Resolution, error)
	renameFn          func(ctx context.Context, oldCode, newCode string, ownerID int64) error
	latestOwnedFn     func(ctx context.Context, ownerID int64) (string, error)
	listOwnedFn       func(ctx context.Context, ownerID int64) ([]model.OwnedReference, error)
	deleteExpiredFn   func(ctx context.Context, cutoff time.Time) (int, error)
	codeInUseFn       func(ctx context.Context, code string) (bool, error)
	statsFn           func(ctx context.Context) (*model.RegistryStats, error)
}

func (m *mockRegistry) InsertReference(ctx context.Context, ref *model.Reference) error {
	return m.insertReferenceFn(ctx, ref)
}

func (m *mockRegistry) InsertBatch(ctx context.Context, b *model.Batch) error {
	return m.insertBatchFn(ctx, b)
}

func (m *mockRegistry) Resolve(ctx context.Context, code string) (*model.Resolution, error) {
	return m.resolveFn(ctx, code)
}

func (m *mockRegistry) Rename(ctx context.Context, oldCode, newCode string, ownerID int64) error {
	return m.renameFn(ctx, oldCode, newCode, ownerID)
}

func (m *mockRegistry) LatestOwned(ctx context.Context, ownerID int64) (string, error) {
	return m.latestOwnedFn(ctx, ownerID)
}

func (m *mockRegistry) ListOwned(ctx context.Context, ownerID int64) ([]model.OwnedReference, error) {
	return m.listOwnedFn(ctx, ownerID)
}

func (m *mockRegistry) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	return m.deleteExpiredFn(ctx, cutoff)
}

func (m *mockRegistry) CodeInUse(ctx context.Context, code string) (bool, error) {
	return m.codeInUseFn(ctx, code)
}

func (m *mockRegistry) Stats(ctx context.Context) (*model.RegistryStats, error) {
	return m.statsFn(ctx)
}

// mockAdmins — мок AdminRepository.
type mockAdmins struct {
	ensureOwnerFn func(ctx context.Context, ownerID int64) error
	isAdminFn     func(ctx context.Context, userID int64) (bool, error)
	addFn         func(ctx context.Context, userID, addedBy int64) error
	removeFn      func(ctx context.Context, userID int64) error
	listFn        func(ctx context.Context) ([]int64, error)
}

func (m *mockAdmins) EnsureOwner(ctx context.Context, ownerID int64) error {
	return m.ensureOwnerFn(ctx, ownerID)
}

func (m *mockAdmins) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	return m.isAdminFn(ctx, userID)
}

func (m *mockAdmins) Add(ctx context.Context, userID, addedBy int64) error {
	return m.addFn(ctx, userID, addedBy)
}

func (m *mockAdmins) Remove(ctx context.Context, userID int64) error {
	return m.removeFn(ctx, userID)
}

func (m *mockAdmins) List(ctx context.Context) ([]int64, error) {
	return m.listFn(ctx)
}

// mockSettings — мок SettingsRepository.
type mockSettings struct {
	getFn             func(ctx context.Context, key string) (string, error)
	setFn             func(ctx context.Context, key, value string) error
	setDefaultFn      func(ctx context.Context, key, value string) error
	retentionPolicyFn func(ctx context.Context) (*model.RetentionPolicy, error)
}

func (m *mockSettings) Get(ctx context.Context, key string) (string, error) {
	return m.getFn(ctx, key)
}

func (m *mockSettings) Set(ctx context.Context, key, value string) error {
	return m.setFn(ctx, key, value)
}

func (m *mockSettings) SetDefault(ctx context.Context, key, value string) error {
	return m.setDefaultFn(ctx, key, value)
}

func (m *mockSettings) RetentionPolicy(ctx context.Context) (*model.RetentionPolicy, error) {
	return m.retentionPolicyFn(ctx)
}

// mockRelocator — мок Relocator.
type mockRelocator struct {
	relocateFn func(ctx context.Context, content model.InboundContent) (model.ArchivePointer, error)
	calls      int
}

func (m *mockRelocator) Relocate(ctx context.Context, content model.InboundContent) (model.ArchivePointer, error) {
	m.calls++
	return m.relocateFn(ctx, content)
}

// mockCodeSource — мок CodeSource, выдаёт коды из очереди.
type mockCodeSource struct {
	codes []string
	next  int
	err   error
}

func (m *mockCodeSource) Generate(context.Context) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	c := m.codes[m.next]
	m.next++
	return c, nil
}

// mockReplayer — мок Replayer, записывает доставленные указатели.
type mockReplayer struct {
	replayFn  func(ctx context.Context, ptr model.ArchivePointer, destChatID int64) error
	delivered []model.ArchivePointer
}

func (m *mockReplayer) Replay(ctx context.Context, ptr model.ArchivePointer, destChatID int64) error {
	if m.replayFn != nil {
		if err := m.replayFn(ctx, ptr, destChatID); err != nil {
			return err
		}
	}
	m.delivered = append(m.delivered, ptr)
	return nil
}

// mockCache — мок CacheInvalidator + CachePurger.
type mockCache struct {
	invalidated []string
	purges      int
}

func (m *mockCache) Invalidate(code string) {
	m.invalidated = append(m.invalidated, code)
}

func (m *mockCache) PurgeCache() {
	m.purges++
}
