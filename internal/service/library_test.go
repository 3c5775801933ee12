package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/repository"
)

func TestRenameLatest_Success(t *testing.T) {
	var gotOld, gotNew string
	var gotOwner int64
	registry := &mockRegistry{
		latestOwnedFn: func(_ context.Context, _ int64) (string, error) {
			return "OLD00001", nil
		},
		renameFn: func(_ context.Context, oldCode, newCode string, ownerID int64) error {
			gotOld, gotNew, gotOwner = oldCode, newCode, ownerID
			return nil
		},
	}
	cache := &mockCache{}
	svc := NewLibraryService(registry, cache, testLogger())

	oldCode, newCode, err := svc.RenameLatest(context.Background(), 1, "mynewcode")
	if err != nil {
		t.Fatalf("RenameLatest() ошибка: %v", err)
	}
	if oldCode != "OLD00001" || newCode != "MYNEWCODE" {
		t.Errorf("(%q, %q), ожидается (OLD00001, MYNEWCODE): ввод нормализуется к верхнему регистру", oldCode, newCode)
	}
	if gotOld != "OLD00001" || gotNew != "MYNEWCODE" || gotOwner != 1 {
		t.Errorf("Rename(%q, %q, %d), ожидается владелец-скоуп", gotOld, gotNew, gotOwner)
	}

	// Оба кода инвалидированы в кэше разрешения
	if len(cache.invalidated) != 2 {
		t.Fatalf("инвалидировано %d кодов, ожидается 2", len(cache.invalidated))
	}
	if cache.invalidated[0] != "OLD00001" || cache.invalidated[1] != "MYNEWCODE" {
		t.Errorf("инвалидированы %v, ожидаются старый и новый коды", cache.invalidated)
	}
}

func TestRenameLatest_InvalidFormat(t *testing.T) {
	svc := NewLibraryService(&mockRegistry{}, &mockCache{}, testLogger())

	tests := []string{
		"",
		"AB",                // короче минимума
		"with space",        // пробел
		"code-with-dashes!", // недопустимые символы
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789X", // длиннее максимума
	}
	for _, code := range tests {
		if _, _, err := svc.RenameLatest(context.Background(), 1, code); !errors.Is(err, ErrInvalidCode) {
			t.Errorf("RenameLatest(%q): ожидалась ErrInvalidCode, получено: %v", code, err)
		}
	}
}

func TestRenameLatest_NoFiles(t *testing.T) {
	registry := &mockRegistry{
		latestOwnedFn: func(_ context.Context, _ int64) (string, error) {
			return "", repository.ErrNotFound
		},
	}
	svc := NewLibraryService(registry, &mockCache{}, testLogger())

	_, _, err := svc.RenameLatest(context.Background(), 1, "NEWCODE1")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("ожидалась ErrNotFound, получено: %v", err)
	}
}

func TestRenameLatest_DuplicateTarget(t *testing.T) {
	registry := &mockRegistry{
		latestOwnedFn: func(_ context.Context, _ int64) (string, error) {
			return "OLD00001", nil
		},
		renameFn: func(_ context.Context, _, _ string, _ int64) error {
			return repository.ErrDuplicateCode
		},
	}
	cache := &mockCache{}
	svc := NewLibraryService(registry, cache, testLogger())

	_, _, err := svc.RenameLatest(context.Background(), 1, "TAKEN001")
	if !errors.Is(err, repository.ErrDuplicateCode) {
		t.Fatalf("ожидалась ErrDuplicateCode, получено: %v", err)
	}
	// Неудачное переименование кэш не трогает
	if len(cache.invalidated) != 0 {
		t.Errorf("инвалидировано %v, ожидается пусто", cache.invalidated)
	}
}

func TestDeepLink(t *testing.T) {
	got := DeepLink("MyStoreBot", "CODE0001")
	want := "https://t.me/MyStoreBot?start=CODE0001"
	if got != want {
		t.Errorf("DeepLink() = %q, ожидается %q", got, want)
	}
}
