package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/domain/model"
)

// RegistryRepository — реестр ссылок: отображение код → указатель(и) в архиве.
// Все мутирующие операции атомарны и сохраняют уникальность кода
// в объединении одиночных ссылок и батчей.
type RegistryRepository interface {
	// InsertReference создаёт одиночную ссылку. ErrDuplicateCode, если код занят.
	InsertReference(ctx context.Context, ref *model.Reference) error
	// InsertBatch создаёт батч вместе с items одной транзакцией.
	// ErrDuplicateCode, если код занят. Items не должен быть пустым.
	InsertBatch(ctx context.Context, b *model.Batch) error
	// Resolve разрешает код в одиночную ссылку или батч. ErrNotFound, если кода нет.
	Resolve(ctx context.Context, code string) (*model.Resolution, error)
	// Rename атомарно перекодирует ссылку владельца oldCode → newCode.
	// ErrNotFound — у владельца нет ссылки oldCode; ErrDuplicateCode — newCode занят.
	Rename(ctx context.Context, oldCode, newCode string, ownerID int64) error
	// LatestOwned возвращает код последней сохранённой ссылки владельца.
	LatestOwned(ctx context.Context, ownerID int64) (string, error)
	// ListOwned возвращает ссылки владельца, новые — первыми.
	ListOwned(ctx context.Context, ownerID int64) ([]model.OwnedReference, error)
	// DeleteExpired удаляет ссылки и батчи (вместе с items) старше cutoff.
	// Возвращает количество удалённых сущностей.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
	// CodeInUse проверяет занятость кода в обеих таблицах.
	CodeInUse(ctx context.Context, code string) (bool, error)
	// Stats возвращает агрегированную статистику реестра.
	Stats(ctx context.Context) (*model.RegistryStats, error)
}

// registryRepo — реализация RegistryRepository поверх pgxpool.
// Пул (а не DBTX) нужен из-за многошаговых транзакций InsertBatch и Rename.
type registryRepo struct {
	pool *pgxpool.Pool
	tx   *TxRunner
}

// NewRegistryRepository создаёт репозиторий реестра ссылок.
func NewRegistryRepository(pool *pgxpool.Pool) RegistryRepository {
	return &registryRepo{pool: pool, tx: NewTxRunner(pool)}
}

func (r *registryRepo) InsertReference(ctx context.Context, ref *model.Reference) error {
	return r.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := lockCode(ctx, tx, ref.Code); err != nil {
			return err
		}

		// Код мог быть занят батчем — PK таблицы files этого не поймает
		inUse, err := codeInUseTx(ctx, tx, ref.Code)
		if err != nil {
			return err
		}
		if inUse {
			return ErrDuplicateCode
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO files (code, chat_id, message_id, owner_id, created_at, caption, content_kind)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			ref.Code, ref.Pointer.ChatID, ref.Pointer.MessageID,
			ref.OwnerID, ref.CreatedAt, ref.Caption, string(ref.Kind),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateCode
			}
			return fmt.Errorf("ошибка вставки ссылки %q: %w", ref.Code, err)
		}
		return nil
	})
}

func (r *registryRepo) InsertBatch(ctx context.Context, b *model.Batch) error {
	if len(b.Items) == 0 {
		return fmt.Errorf("батч %q не содержит элементов", b.Code)
	}

	return r.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := lockCode(ctx, tx, b.Code); err != nil {
			return err
		}

		inUse, err := codeInUseTx(ctx, tx, b.Code)
		if err != nil {
			return err
		}
		if inUse {
			return ErrDuplicateCode
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO batches (code, owner_id, created_at, item_count)
			VALUES ($1, $2, $3, $4)`,
			b.Code, b.OwnerID, b.CreatedAt, len(b.Items),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateCode
			}
			return fmt.Errorf("ошибка вставки батча %q: %w", b.Code, err)
		}

		// Порядок items значим: seq = позиция накопления
		for seq, ptr := range b.Items {
			_, err = tx.Exec(ctx, `
				INSERT INTO batch_items (code, seq, chat_id, message_id)
				VALUES ($1, $2, $3, $4)`,
				b.Code, seq, ptr.ChatID, ptr.MessageID,
			)
			if err != nil {
				return fmt.Errorf("ошибка вставки элемента %d батча %q: %w", seq, b.Code, err)
			}
		}
		return nil
	})
}

func (r *registryRepo) Resolve(ctx context.Context, code string) (*model.Resolution, error) {
	// Сначала одиночная ссылка
	ref := &model.Reference{Code: code}
	var kind string
	err := r.pool.QueryRow(ctx, `
		SELECT chat_id, message_id, owner_id, created_at, caption, content_kind
		FROM files
		WHERE code = $1`, code).Scan(
		&ref.Pointer.ChatID, &ref.Pointer.MessageID,
		&ref.OwnerID, &ref.CreatedAt, &ref.Caption, &kind,
	)
	if err == nil {
		ref.Kind = model.ContentKind(kind)
		return &model.Resolution{Single: ref}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("ошибка разрешения кода %q: %w", code, err)
	}

	// Затем батч
	b := &model.Batch{Code: code}
	err = r.pool.QueryRow(ctx, `
		SELECT owner_id, created_at
		FROM batches
		WHERE code = $1`, code).Scan(&b.OwnerID, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка разрешения батча %q: %w", code, err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT chat_id, message_id
		FROM batch_items
		WHERE code = $1
		ORDER BY seq`, code)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения элементов батча %q: %w", code, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ptr model.ArchivePointer
		if err := rows.Scan(&ptr.ChatID, &ptr.MessageID); err != nil {
			return nil, fmt.Errorf("ошибка сканирования элемента батча %q: %w", code, err)
		}
		b.Items = append(b.Items, ptr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения элементов батча %q: %w", code, err)
	}

	return &model.Resolution{Batch: b}, nil
}

// Rename перекодирует ссылку одной транзакцией: старый код перестаёт
// разрешаться, новый начинает, либо операция целиком откатывается.
func (r *registryRepo) Rename(ctx context.Context, oldCode, newCode string, ownerID int64) error {
	return r.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := lockCode(ctx, tx, newCode); err != nil {
			return err
		}

		inUse, err := codeInUseTx(ctx, tx, newCode)
		if err != nil {
			return err
		}
		if inUse {
			return ErrDuplicateCode
		}

		tag, err := tx.Exec(ctx, `
			UPDATE files
			SET code = $1
			WHERE code = $2 AND owner_id = $3`,
			newCode, oldCode, ownerID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateCode
			}
			return fmt.Errorf("ошибка переименования %q → %q: %w", oldCode, newCode, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *registryRepo) LatestOwned(ctx context.Context, ownerID int64) (string, error) {
	var code string
	err := r.pool.QueryRow(ctx, `
		SELECT code
		FROM files
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, ownerID).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("ошибка поиска последней ссылки владельца %d: %w", ownerID, err)
	}
	return code, nil
}

func (r *registryRepo) ListOwned(ctx context.Context, ownerID int64) ([]model.OwnedReference, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT code, created_at
		FROM files
		WHERE owner_id = $1
		ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка ссылок владельца %d: %w", ownerID, err)
	}
	defer rows.Close()

	var result []model.OwnedReference
	for rows.Next() {
		var o model.OwnedReference
		if err := rows.Scan(&o.Code, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования списка ссылок: %w", err)
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

// DeleteExpired удаляет просроченные сущности одной транзакцией.
// Батч удаляется вместе со своими items (FK ON DELETE CASCADE),
// осиротевших строк batch_items не остаётся.
func (r *registryRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	var removed int
	err := r.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM files WHERE created_at < $1`, cutoff)
		if err != nil {
			return fmt.Errorf("ошибка удаления просроченных ссылок: %w", err)
		}
		removed += int(tag.RowsAffected())

		tag, err = tx.Exec(ctx, `DELETE FROM batches WHERE created_at < $1`, cutoff)
		if err != nil {
			return fmt.Errorf("ошибка удаления просроченных батчей: %w", err)
		}
		removed += int(tag.RowsAffected())
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *registryRepo) CodeInUse(ctx context.Context, code string) (bool, error) {
	return codeInUseTx(ctx, r.pool, code)
}

func (r *registryRepo) Stats(ctx context.Context) (*model.RegistryStats, error) {
	s := &model.RegistryStats{}
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM files),
			(SELECT COUNT(*) FROM batches),
			(SELECT COUNT(*) FROM batch_items),
			(SELECT COUNT(*) FROM admins)`).Scan(
		&s.Files, &s.Batches, &s.Items, &s.Admins,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта статистики: %w", err)
	}
	return s, nil
}
