package repository

import (
	"context"
	"fmt"
	"time"
)

// AdminRepository — реестр администраторов (таблица admins).
type AdminRepository interface {
	// EnsureOwner гарантирует наличие владельца в таблице (idempotent).
	EnsureOwner(ctx context.Context, ownerID int64) error
	// IsAdmin проверяет наличие пользователя в реестре.
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	// Add добавляет администратора (idempotent).
	Add(ctx context.Context, userID, addedBy int64) error
	// Remove удаляет администратора. ErrNotFound, если его нет.
	Remove(ctx context.Context, userID int64) error
	// List возвращает идентификаторы администраторов по возрастанию.
	List(ctx context.Context) ([]int64, error)
}

// adminRepo — реализация AdminRepository.
type adminRepo struct {
	db DBTX
}

// NewAdminRepository создаёт репозиторий администраторов.
func NewAdminRepository(db DBTX) AdminRepository {
	return &adminRepo{db: db}
}

// EnsureOwner вставляет владельца, если его ещё нет (seed при первом запуске).
func (r *adminRepo) EnsureOwner(ctx context.Context, ownerID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO admins (user_id, added_by, added_at)
		VALUES ($1, $1, $2)
		ON CONFLICT (user_id) DO NOTHING`,
		ownerID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("ошибка добавления владельца %d: %w", ownerID, err)
	}
	return nil
}

func (r *adminRepo) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM admins WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки администратора %d: %w", userID, err)
	}
	return exists, nil
}

func (r *adminRepo) Add(ctx context.Context, userID, addedBy int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO admins (user_id, added_by, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, addedBy, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("ошибка добавления администратора %d: %w", userID, err)
	}
	return nil
}

func (r *adminRepo) Remove(ctx context.Context, userID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM admins WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("ошибка удаления администратора %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *adminRepo) List(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM admins ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка администраторов: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования администратора: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
