package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatsense/internal/domain"
)

// ImportedMessage es un mensaje parseado persistido durante una importacion,
// con su posicion dentro de la conversacion.
type ImportedMessage struct {
	ID             string
	ChatAnalysisID string
	Seq            int
	Message        domain.Message
}

// ImportedMessageRepository persiste los mensajes emitidos por el sink del
// motor durante una importacion de conversacion.
type ImportedMessageRepository interface {
	Create(ctx context.Context, msg ImportedMessage) error
	ListByChatAnalysis(ctx context.Context, chatAnalysisID string) ([]ImportedMessage, error)
}

// PgImportedMessageRepository implementa ImportedMessageRepository usando pgxpool.
type PgImportedMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgImportedMessageRepository(pool *pgxpool.Pool) *PgImportedMessageRepository {
	return &PgImportedMessageRepository{pool: pool}
}

func (r *PgImportedMessageRepository) Create(ctx context.Context, msg ImportedMessage) error {
	const query = `
		INSERT INTO imported_messages (id, chat_analysis_id, seq, ts, sender, body, platform, is_media)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		msg.ID,
		msg.ChatAnalysisID,
		msg.Seq,
		msg.Message.Timestamp,
		msg.Message.Sender,
		msg.Message.Text,
		msg.Message.Platform,
		msg.Message.IsMedia,
	)
	return err
}

func (r *PgImportedMessageRepository) ListByChatAnalysis(ctx context.Context, chatAnalysisID string) ([]ImportedMessage, error) {
	const query = `
		SELECT id, chat_analysis_id, seq, ts, sender, body, platform, is_media
		FROM imported_messages
		WHERE chat_analysis_id = $1
		ORDER BY seq ASC
	`
	rows, err := r.pool.Query(ctx, query, chatAnalysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ImportedMessage
	for rows.Next() {
		var m ImportedMessage
		if err := rows.Scan(
			&m.ID,
			&m.ChatAnalysisID,
			&m.Seq,
			&m.Message.Timestamp,
			&m.Message.Sender,
			&m.Message.Text,
			&m.Message.Platform,
			&m.Message.IsMedia,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// AnalysisSink adapta los repositorios al contrato de sink del motor para una
// importacion concreta. Mantiene el numero de secuencia, por lo que no debe
// compartirse entre importaciones.
type AnalysisSink struct {
	messages       ImportedMessageRepository
	chats          ChatAnalysisRepository
	userID         string
	chatAnalysisID string
	seq            int
}

func NewAnalysisSink(messages ImportedMessageRepository, chats ChatAnalysisRepository, userID, chatAnalysisID string) *AnalysisSink {
	return &AnalysisSink{
		messages:       messages,
		chats:          chats,
		userID:         userID,
		chatAnalysisID: chatAnalysisID,
	}
}

func (s *AnalysisSink) Save(ctx context.Context, msg domain.Message) error {
	s.seq++
	return s.messages.Create(ctx, ImportedMessage{
		ID:             uuid.NewString(),
		ChatAnalysisID: s.chatAnalysisID,
		Seq:            s.seq,
		Message:        msg,
	})
}

func (s *AnalysisSink) SaveAnalysis(ctx context.Context, analysis *domain.ChatAnalysis) error {
	return s.chats.Create(ctx, domain.ChatAnalysisRecord{
		ID:             s.chatAnalysisID,
		UserID:         s.userID,
		FormatDetected: analysis.FormatDetected,
		TotalMessages:  analysis.TotalMessages,
		Analysis:       analysis,
		CreatedAt:      time.Now().UTC(),
	})
}
