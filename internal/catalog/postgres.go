// postgres.go — реализация каталога поверх PostgreSQL через pgx.
// Таблица files пересоздаётся при старте: сервис намеренно не хранит
// метаданные между рестартами (долговечность вне зоны ответственности).
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bigkaa/filehub/internal/domain/model"
)

// fileColumns — список столбцов таблицы files для SELECT-запросов.
// DRY: одно место для всех SELECT'ов.
const fileColumns = `id, original_name, stored_name, path, type, size, uploaded_at`

// schemaSQL — DDL таблицы files. Выполняется при каждом старте
// после DROP TABLE: чистый каталог на каждый запуск процесса.
const schemaSQL = `
CREATE TABLE files (
	id            BIGSERIAL PRIMARY KEY,
	original_name TEXT        NOT NULL,
	stored_name   TEXT        NOT NULL,
	path          TEXT        NOT NULL,
	type          TEXT        NOT NULL,
	size          BIGINT      NOT NULL,
	uploaded_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres — каталог метаданных в PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres подключается к PostgreSQL и пересоздаёт таблицу files.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула подключений: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка подключения к PostgreSQL: %w", err)
	}

	if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS files`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка удаления старой таблицы files: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка создания таблицы files: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Insert вставляет запись и возвращает присвоенный id.
// uploaded_at присваивается сервером БД.
func (c *Postgres) Insert(ctx context.Context, rec *model.FileRecord) (int64, error) {
	query := `
		INSERT INTO files (original_name, stored_name, path, type, size)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, uploaded_at`

	err := c.pool.QueryRow(ctx, query,
		rec.OriginalName, rec.StoredName, rec.Path, rec.Type, rec.Size,
	).Scan(&rec.ID, &rec.UploadedAt)
	if err != nil {
		return 0, fmt.Errorf("ошибка вставки записи файла: %w", err)
	}
	return rec.ID, nil
}

// ListAll возвращает все записи: новые первыми.
// При равном uploaded_at порядок стабилен — по возрастанию id
// (порядок вставки).
func (c *Postgres) ListAll(ctx context.Context) ([]*model.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM files ORDER BY uploaded_at DESC, id ASC`, fileColumns)

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса списка файлов: %w", err)
	}
	defer rows.Close()

	var result []*model.FileRecord
	for rows.Next() {
		f := &model.FileRecord{}
		if err := rows.Scan(
			&f.ID, &f.OriginalName, &f.StoredName, &f.Path, &f.Type, &f.Size, &f.UploadedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи файла: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}
	return result, nil
}

// GetByID возвращает запись по id или ErrNotFound.
func (c *Postgres) GetByID(ctx context.Context, id int64) (*model.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM files WHERE id = $1`, fileColumns)

	f := &model.FileRecord{}
	err := c.pool.QueryRow(ctx, query, id).Scan(
		&f.ID, &f.OriginalName, &f.StoredName, &f.Path, &f.Type, &f.Size, &f.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи файла: %w", err)
	}
	return f, nil
}

// DeleteByID удаляет запись по id или возвращает ErrNotFound.
func (c *Postgres) DeleteByID(ctx context.Context, id int64) error {
	tag, err := c.pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления записи файла: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping проверяет доступность PostgreSQL.
func (c *Postgres) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Close закрывает пул подключений.
func (c *Postgres) Close() {
	c.pool.Close()
}

// Проверка на этапе компиляции
var _ Catalog = (*Postgres)(nil)
