package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"chatsense/internal/domain"
)

// ChatAnalysisRepository persiste analisis de conversaciones completas.
// El ChatAnalysis viaja como JSONB: el esquema interno del rollup no se
// proyecta a columnas.
type ChatAnalysisRepository interface {
	Create(ctx context.Context, rec domain.ChatAnalysisRecord) error
	GetByID(ctx context.Context, userID, id string) (domain.ChatAnalysisRecord, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.ChatAnalysisRecord, error)
}

// PgChatAnalysisRepository implementa ChatAnalysisRepository usando pgxpool.
type PgChatAnalysisRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatAnalysisRepository(pool *pgxpool.Pool) *PgChatAnalysisRepository {
	return &PgChatAnalysisRepository{pool: pool}
}

func (r *PgChatAnalysisRepository) Create(ctx context.Context, rec domain.ChatAnalysisRecord) error {
	const query = `
		INSERT INTO chat_analyses (id, user_id, format_detected, total_messages, analysis, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.UserID,
		rec.FormatDetected,
		rec.TotalMessages,
		rec.Analysis,
		rec.CreatedAt,
	)
	return err
}

func (r *PgChatAnalysisRepository) GetByID(ctx context.Context, userID, id string) (domain.ChatAnalysisRecord, error) {
	const query = `
		SELECT id, user_id, format_detected, total_messages, analysis, created_at
		FROM chat_analyses
		WHERE id = $1 AND user_id = $2
	`
	var rec domain.ChatAnalysisRecord
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.FormatDetected,
		&rec.TotalMessages,
		&rec.Analysis,
		&rec.CreatedAt,
	)
	return rec, err
}

func (r *PgChatAnalysisRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.ChatAnalysisRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	// El listado omite el JSONB completo; el detalle se pide por id.
	const query = `
		SELECT id, user_id, format_detected, total_messages, created_at
		FROM chat_analyses
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ChatAnalysisRecord
	for rows.Next() {
		var rec domain.ChatAnalysisRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.FormatDetected,
			&rec.TotalMessages,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
