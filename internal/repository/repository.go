// Пакет repository — слой доступа к данным PostgreSQL.
// Все запросы — чистый SQL через pgx, без ORM.
//
// Инвариант кодового пространства: код уникален в объединении таблиц
// files и batches. Каждая мутирующая операция берёт advisory-lock на
// hash кода внутри своей транзакции, поэтому две конкурентные вставки
// одного кода в разные таблицы сериализуются.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrDuplicateCode — код уже занят ссылкой или батчем.
	ErrDuplicateCode = errors.New("код уже используется")
)

// DBTX — интерфейс для выполнения SQL-запросов.
// Реализуется как *pgxpool.Pool, так и pgx.Tx, что позволяет
// использовать репозитории как внутри, так и вне транзакций.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner позволяет выполнять операции в транзакции.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner создаёт TxRunner для управления транзакциями.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInTx выполняет fn внутри транзакции.
// При ошибке fn — транзакция откатывается.
// При успехе — коммитится.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // откат после коммита — no-op

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// lockCode берёт транзакционный advisory-lock на hash кода.
// Освобождается автоматически при завершении транзакции.
func lockCode(ctx context.Context, tx DBTX, code string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, code); err != nil {
		return fmt.Errorf("ошибка блокировки кода %q: %w", code, err)
	}
	return nil
}

// codeInUseTx проверяет занятость кода в обеих таблицах.
func codeInUseTx(ctx context.Context, db DBTX, code string) (bool, error) {
	var inUse bool
	err := db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM files WHERE code = $1)
			OR EXISTS(SELECT 1 FROM batches WHERE code = $1)`, code).Scan(&inUse)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки кода %q: %w", code, err)
	}
	return inUse, nil
}

// isUniqueViolation проверяет, является ли ошибка нарушением уникальности PostgreSQL.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
