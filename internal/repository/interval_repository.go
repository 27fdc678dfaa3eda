package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/i-vertix/assethistory/internal/domain"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so the same queries
// serve standalone calls and transaction-scoped capture writes.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// intervalRepository implements IntervalRepository on Postgres.
type intervalRepository struct {
	db   querier
	pool *pgxpool.Pool
}

// NewIntervalRepository creates a new interval repository backed by the pool.
func NewIntervalRepository(pool *pgxpool.Pool) IntervalRepository {
	return &intervalRepository{db: pool, pool: pool}
}

func (r *intervalRepository) Insert(ctx context.Context, interval domain.AssignmentInterval) (domain.AssignmentInterval, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO assignment_history (subject_id, object_id, object_type, assigned_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		interval.SubjectID, interval.ObjectID, interval.ObjectType, interval.AssignedAt, interval.RevokedAt,
	)
	if err := row.Scan(&interval.ID); err != nil {
		return domain.AssignmentInterval{}, fmt.Errorf("failed to insert interval: %w", err)
	}
	return interval, nil
}

func (r *intervalRepository) CloseOpen(ctx context.Context, objectType string, objectID, subjectID int64, revokedAt time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE assignment_history
		SET revoked_at = $1
		WHERE object_type = $2 AND object_id = $3 AND subject_id = $4 AND revoked_at IS NULL`,
		revokedAt, objectType, objectID, subjectID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to close open interval: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *intervalRepository) InsertBackfill(ctx context.Context, objectType string, objectID, subjectID int64) (bool, error) {
	// The NOT EXISTS guard runs inside the insert so a concurrent capture
	// write cannot race a duplicate first interval past it.
	tag, err := r.db.Exec(ctx, `
		INSERT INTO assignment_history (subject_id, object_id, object_type, assigned_at, revoked_at)
		SELECT $1, $2, $3, NULL, NULL
		WHERE NOT EXISTS (
			SELECT 1 FROM assignment_history
			WHERE object_type = $3 AND object_id = $2
		)`,
		subjectID, objectID, objectType,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert backfill interval: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *intervalRepository) ListForObject(ctx context.Context, objectType string, objectID int64) ([]domain.AssignmentInterval, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, subject_id, object_id, object_type, assigned_at, revoked_at
		FROM assignment_history
		WHERE object_type = $1 AND object_id = $2
		ORDER BY id`,
		objectType, objectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list intervals for object: %w", err)
	}
	defer rows.Close()
	return scanIntervals(rows)
}

func (r *intervalRepository) ListForSubject(ctx context.Context, subjectID int64) ([]domain.AssignmentInterval, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, subject_id, object_id, object_type, assigned_at, revoked_at
		FROM assignment_history
		WHERE subject_id = $1
		ORDER BY id`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list intervals for subject: %w", err)
	}
	defer rows.Close()
	return scanIntervals(rows)
}

func (r *intervalRepository) HasAny(ctx context.Context, objectType string, objectID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM assignment_history
			WHERE object_type = $1 AND object_id = $2
		)`,
		objectType, objectID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check interval existence: %w", err)
	}
	return exists, nil
}

func (r *intervalRepository) OpenInterval(ctx context.Context, objectType string, objectID int64) (*domain.AssignmentInterval, error) {
	var interval domain.AssignmentInterval
	err := r.db.QueryRow(ctx, `
		SELECT id, subject_id, object_id, object_type, assigned_at, revoked_at
		FROM assignment_history
		WHERE object_type = $1 AND object_id = $2 AND revoked_at IS NULL
		ORDER BY id DESC
		LIMIT 1`,
		objectType, objectID,
	).Scan(&interval.ID, &interval.SubjectID, &interval.ObjectID, &interval.ObjectType, &interval.AssignedAt, &interval.RevokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open interval: %w", err)
	}
	return &interval, nil
}

func (r *intervalRepository) DeleteForObject(ctx context.Context, objectType string, objectID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM assignment_history
		WHERE object_type = $1 AND object_id = $2`,
		objectType, objectID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete intervals for object: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *intervalRepository) AnonymizeSubject(ctx context.Context, subjectID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE assignment_history
		SET subject_id = $1
		WHERE subject_id = $2`,
		domain.AnonymousSubjectID, subjectID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to anonymize subject intervals: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *intervalRepository) InTx(ctx context.Context, fn func(IntervalRepository) error) error {
	if r.pool == nil {
		// Already transaction-scoped; nested calls join the same tx.
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to open transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&intervalRepository{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanIntervals(rows pgx.Rows) ([]domain.AssignmentInterval, error) {
	intervals := []domain.AssignmentInterval{}
	for rows.Next() {
		var interval domain.AssignmentInterval
		if err := rows.Scan(&interval.ID, &interval.SubjectID, &interval.ObjectID, &interval.ObjectType, &interval.AssignedAt, &interval.RevokedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interval: %w", err)
		}
		intervals = append(intervals, interval)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read intervals: %w", err)
	}
	return intervals, nil
}
