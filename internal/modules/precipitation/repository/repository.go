package repository

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"

	"niederschlag-server/internal/modules/precipitation/types"
)

//go:embed sql/find-all-records.sql
var findAllRecordsSQL string

//go:embed sql/insert-record.sql
var insertRecordSQL string

//go:embed sql/count-records.sql
var countRecordsSQL string

// RecordRepository is the store behind the HTTP endpoint and the bootstrap
// loader. Records are insert-only.
type RecordRepository interface {
	FindAll(ctx context.Context) ([]types.Record, error)
	// SaveAll inserts every record in one transaction; ids are assigned by
	// the database.
	SaveAll(ctx context.Context, records []types.Record) error
	Count(ctx context.Context) (int, error)
}

type repositoryImpl struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) RecordRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) FindAll(ctx context.Context) ([]types.Record, error) {
	out := []types.Record{}
	if err := r.db.SelectContext(ctx, &out, findAllRecordsSQL); err != nil {
		return nil, fmt.Errorf("find all records: %w", err)
	}
	return out, nil
}

func (r *repositoryImpl) SaveAll(ctx context.Context, records []types.Record) (err error) {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save records: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareNamedContext(ctx, insertRecordSQL)
	if err != nil {
		return fmt.Errorf("save records: prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, rec := range records {
		if _, err = stmt.ExecContext(ctx, rec); err != nil {
			return fmt.Errorf("save records: insert #%d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("save records: commit: %w", err)
	}
	return nil
}

func (r *repositoryImpl) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, countRecordsSQL); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}
