package audit

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the audit timeline.
type Repository interface {
	Window(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed audit repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Window(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, error) {
	// Every filter is optional; NULL parameters disable the clause.
	rows, err := r.pool.Query(ctx, `SELECT id, actor_id, action, entity, entity_id, meta, created_at
FROM audit_logs
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at <= $2)
  AND ($3::text IS NULL OR entity = $3)
  AND ($4::text IS NULL OR entity_id = $4)
  AND ($5::text IS NULL OR action = $5)
ORDER BY created_at DESC, id DESC
LIMIT $6 OFFSET $7`,
		toPgTime(filters.From), toPgTime(filters.To),
		optionalText(filters.Entity), optionalText(filters.EntityID), optionalText(filters.Action),
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var actorID pgtype.Int8
		var createdAt pgtype.Timestamptz
		if err := rows.Scan(&e.ID, &actorID, &e.Action, &e.Entity, &e.EntityID, &e.Meta, &createdAt); err != nil {
			return nil, err
		}
		if actorID.Valid {
			e.ActorID = &actorID.Int64
		}
		e.At = createdAt.Time
		out = append(out, e)
	}
	return out, rows.Err()
}

func toPgTime(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func optionalText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}
