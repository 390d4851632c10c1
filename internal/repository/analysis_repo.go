package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"chatsense/internal/domain"
)

// AnalysisRepository persiste analisis de mensajes individuales, incluido el
// vector de emociones para busquedas por similitud.
type AnalysisRepository interface {
	Create(ctx context.Context, rec domain.AnalysisRecord) error
	GetByID(ctx context.Context, userID, id string) (domain.AnalysisRecord, error)
	ListByUser(ctx context.Context, userID string, limit, offset int, includeBulk bool) ([]domain.AnalysisRecord, error)
	ListSince(ctx context.Context, userID string, since time.Time) ([]domain.AnalysisRecord, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
	FindSimilarMoods(ctx context.Context, userID string, vec pgvector.Vector, k int) ([]domain.AnalysisRecord, error)
}

// PgAnalysisRepository implementa AnalysisRepository usando pgxpool.
type PgAnalysisRepository struct {
	pool *pgxpool.Pool
}

func NewPgAnalysisRepository(pool *pgxpool.Pool) *PgAnalysisRepository {
	return &PgAnalysisRepository{pool: pool}
}

func (r *PgAnalysisRepository) Create(ctx context.Context, rec domain.AnalysisRecord) error {
	const query = `
		INSERT INTO analyses (id, user_id, message, sentiment, confidence, emotions, emoji_analysis, emotion_vector, source, ts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	var vec interface{}
	if len(rec.Emotions) > 0 {
		vec = pgvector.NewVector(domain.EmotionVector(rec.Emotions))
	}

	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Message,
		rec.Sentiment,
		rec.Confidence,
		rec.Emotions,
		rec.EmojiAnalysis,
		vec,
		rec.Source,
		rec.Timestamp,
		rec.CreatedAt,
	)
	return err
}

const analysisColumns = `id, user_id, message, sentiment, confidence, emotions, emoji_analysis, source, ts, created_at`

func (r *PgAnalysisRepository) GetByID(ctx context.Context, userID, id string) (domain.AnalysisRecord, error) {
	const query = `
		SELECT ` + analysisColumns + `
		FROM analyses
		WHERE id = $1 AND user_id = $2
	`
	return scanAnalysis(r.pool.QueryRow(ctx, query, id, userID))
}

func (r *PgAnalysisRepository) ListByUser(ctx context.Context, userID string, limit, offset int, includeBulk bool) ([]domain.AnalysisRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `
		SELECT ` + analysisColumns + `
		FROM analyses
		WHERE user_id = $1
	`
	if !includeBulk {
		query += ` AND source <> 'bulk_import'`
	}
	query += `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAnalyses(rows)
}

func (r *PgAnalysisRepository) ListSince(ctx context.Context, userID string, since time.Time) ([]domain.AnalysisRecord, error) {
	const query = `
		SELECT ` + analysisColumns + `
		FROM analyses
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAnalyses(rows)
}

func (r *PgAnalysisRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	const query = `DELETE FROM analyses WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgAnalysisRepository) FindSimilarMoods(ctx context.Context, userID string, vec pgvector.Vector, k int) ([]domain.AnalysisRecord, error) {
	if k <= 0 {
		k = 5
	}
	const query = `
		SELECT ` + analysisColumns + `
		FROM analyses
		WHERE user_id = $1 AND emotion_vector IS NOT NULL
		ORDER BY emotion_vector <=> $2
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, userID, vec, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAnalyses(rows)
}

type pgxRow interface {
	Scan(...interface{}) error
}

func scanAnalysis(row pgxRow) (domain.AnalysisRecord, error) {
	var rec domain.AnalysisRecord
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Message,
		&rec.Sentiment,
		&rec.Confidence,
		&rec.Emotions,
		&rec.EmojiAnalysis,
		&rec.Source,
		&rec.Timestamp,
		&rec.CreatedAt,
	)
	return rec, err
}

func scanAnalyses(rows pgxRows) ([]domain.AnalysisRecord, error) {
	var out []domain.AnalysisRecord
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// pgxRows es una interfaz minima para escanear filas de pgx y simplificar tests.
type pgxRows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
	Close()
}
