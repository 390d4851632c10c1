package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"chatsense/internal/config"
)

// NewPool construye y devuelve un pool de conexiones configurado.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Configuración razonable para ambientes iniciales.
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Ping verifica conectividad con la base de datos.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}

// Esquema del servicio. El vector de emociones usa pgvector con las ocho
// dimensiones fijas de domain.EmotionNames.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS analyses (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		message TEXT NOT NULL,
		sentiment TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		emotions JSONB,
		emoji_analysis JSONB,
		emotion_vector vector(8),
		source TEXT NOT NULL DEFAULT 'single',
		ts TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analyses_user_created ON analyses (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS chat_analyses (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		format_detected TEXT NOT NULL,
		total_messages INTEGER NOT NULL,
		analysis JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_analyses_user_created ON chat_analyses (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS imported_messages (
		id UUID PRIMARY KEY,
		chat_analysis_id UUID NOT NULL,
		seq INTEGER NOT NULL,
		ts TIMESTAMPTZ,
		sender TEXT NOT NULL,
		body TEXT NOT NULL,
		platform TEXT NOT NULL,
		is_media BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_imported_messages_chat ON imported_messages (chat_analysis_id, seq)`,
}

// Migrate aplica el esquema de forma idempotente.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
