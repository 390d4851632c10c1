package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatsense/internal/domain"
	"chatsense/internal/engine"
	"chatsense/internal/repository"
	"chatsense/internal/sentiment"
)

var ErrTooManyMessages = errors.New("too many messages in bulk request")

// MaxBulkMessages limita el tamaño del analisis masivo por request.
const MaxBulkMessages = 100

// AnalysisService orquesta el motor de analisis con la persistencia y el
// rate limiting por usuario. El motor en si no conoce nada de esto.
type AnalysisService struct {
	logger   *zap.Logger
	engine   *engine.Engine
	analyses repository.AnalysisRepository
	chats    repository.ChatAnalysisRepository
	messages repository.ImportedMessageRepository
	limiter  RateLimiter
}

func NewAnalysisService(
	logger *zap.Logger,
	eng *engine.Engine,
	analyses repository.AnalysisRepository,
	chats repository.ChatAnalysisRepository,
	messages repository.ImportedMessageRepository,
	limiter RateLimiter,
) *AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisService{
		logger:   logger,
		engine:   eng,
		analyses: analyses,
		chats:    chats,
		messages: messages,
		limiter:  limiter,
	}
}

func (s *AnalysisService) allow(userID string) error {
	if s.limiter != nil && !s.limiter.Allow(userID) {
		return ErrRateLimited
	}
	return nil
}

// AnalyzeMessage puntua un mensaje y lo guarda en el historial del usuario.
func (s *AnalysisService) AnalyzeMessage(ctx context.Context, userID, message string) (domain.AnalysisRecord, error) {
	if err := s.allow(userID); err != nil {
		return domain.AnalysisRecord{}, err
	}

	res, err := s.engine.AnalyzeMessage(ctx, message)
	if err != nil {
		return domain.AnalysisRecord{}, err
	}

	rec := recordFromResult(userID, message, res, domain.SourceSingle)
	if s.analyses != nil {
		if err := s.analyses.Create(ctx, rec); err != nil {
			return domain.AnalysisRecord{}, err
		}
	}
	return rec, nil
}

// BulkSummary resume un lote analizado.
type BulkSummary struct {
	TotalMessages         int            `json:"total_messages"`
	SentimentDistribution map[string]int `json:"sentiment_distribution"`
	DominantSentiment     string         `json:"dominant_sentiment"`
}

// AnalyzeBulk puntua hasta MaxBulkMessages mensajes y devuelve los resultados
// junto con la distribucion del lote. Cada resultado queda en el historial.
func (s *AnalysisService) AnalyzeBulk(ctx context.Context, userID string, messages []string) ([]domain.AnalysisRecord, BulkSummary, error) {
	if err := s.allow(userID); err != nil {
		return nil, BulkSummary{}, err
	}
	if len(messages) == 0 {
		return nil, BulkSummary{}, engine.ErrInputTooSmall
	}
	if len(messages) > MaxBulkMessages {
		return nil, BulkSummary{}, ErrTooManyMessages
	}

	records := make([]domain.AnalysisRecord, 0, len(messages))
	dist := make(map[string]int, 3)
	for _, m := range messages {
		res, err := s.engine.AnalyzeMessage(ctx, m)
		if err != nil {
			if errors.Is(err, engine.ErrInputTooSmall) {
				continue
			}
			return nil, BulkSummary{}, err
		}
		rec := recordFromResult(userID, m, res, domain.SourceSingle)
		if s.analyses != nil {
			if err := s.analyses.Create(ctx, rec); err != nil {
				return nil, BulkSummary{}, err
			}
		}
		records = append(records, rec)
		dist[string(rec.Sentiment)]++
	}
	if len(records) == 0 {
		return nil, BulkSummary{}, engine.ErrInputTooSmall
	}

	summary := BulkSummary{
		TotalMessages:         len(records),
		SentimentDistribution: dist,
		DominantSentiment:     dominantLabel(dist),
	}
	return records, summary, nil
}

// ImportChat corre el analisis completo de una conversacion, persistiendo los
// mensajes parseados y el rollup via sink, y extrayendo al historial los
// mensajes significativos del propio usuario.
func (s *AnalysisService) ImportChat(ctx context.Context, userID, content string, hint domain.Platform, selfName string) (domain.ChatAnalysisRecord, []domain.Diagnostic, error) {
	if err := s.allow(userID); err != nil {
		return domain.ChatAnalysisRecord{}, nil, err
	}

	chatID := uuid.NewString()
	capture := &captureSink{}
	if s.messages != nil && s.chats != nil {
		capture.inner = repository.NewAnalysisSink(s.messages, s.chats, userID, chatID)
	}

	res, err := s.engine.AnalyzeConversation(ctx, content, hint, selfName, capture)
	if err != nil {
		return domain.ChatAnalysisRecord{}, nil, err
	}

	if strings.TrimSpace(selfName) != "" && s.analyses != nil {
		s.extractOwnMessages(ctx, userID, selfName, capture.msgs)
	}

	rec := domain.ChatAnalysisRecord{
		ID:             chatID,
		UserID:         userID,
		FormatDetected: res.Analysis.FormatDetected,
		TotalMessages:  res.Analysis.TotalMessages,
		Analysis:       res.Analysis,
		CreatedAt:      time.Now().UTC(),
	}
	return rec, res.Diagnostics, nil
}

// extractOwnMessages guarda como historial los mensajes del propio usuario que
// aportan señal: al menos tres palabras, o emojis, o puntuacion marcada. Los
// neutros de baja confianza se descartan. Fallos de persistencia aca no
// frustran la importacion.
func (s *AnalysisService) extractOwnMessages(ctx context.Context, userID, selfName string, msgs []domain.Message) {
	selfName = strings.TrimSpace(selfName)
	for _, m := range msgs {
		if m.IsMedia || !strings.EqualFold(strings.TrimSpace(m.Sender), selfName) {
			continue
		}
		if !worthExtracting(m.Text) {
			continue
		}
		res, err := s.engine.AnalyzeMessage(ctx, m.Text)
		if err != nil {
			continue
		}
		if res.Label == domain.SentimentNeutral && res.Confidence < 0.6 {
			continue
		}
		rec := recordFromResult(userID, m.Text, res, domain.SourceBulkImport)
		if m.Timestamp != nil {
			rec.Timestamp = *m.Timestamp
		}
		if err := s.analyses.Create(ctx, rec); err != nil {
			s.logger.Warn("saving extracted message failed", zap.Error(err), zap.String("user_id", userID))
		}
	}
}

func worthExtracting(text string) bool {
	if len(strings.Fields(text)) >= 3 {
		return true
	}
	if strings.ContainsAny(text, "!?") {
		return true
	}
	return len(sentiment.ExtractEmojis(text)) > 0
}

func (s *AnalysisService) ListHistory(ctx context.Context, userID string, limit, offset int, includeBulk bool) ([]domain.AnalysisRecord, error) {
	return s.analyses.ListByUser(ctx, userID, limit, offset, includeBulk)
}

func (s *AnalysisService) GetAnalysis(ctx context.Context, userID, id string) (domain.AnalysisRecord, error) {
	return s.analyses.GetByID(ctx, userID, id)
}

func (s *AnalysisService) DeleteAnalysis(ctx context.Context, userID, id string) (bool, error) {
	return s.analyses.Delete(ctx, userID, id)
}

func (s *AnalysisService) ListChatHistory(ctx context.Context, userID string, limit, offset int) ([]domain.ChatAnalysisRecord, error) {
	return s.chats.ListByUser(ctx, userID, limit, offset)
}

func (s *AnalysisService) GetChatAnalysis(ctx context.Context, userID, id string) (domain.ChatAnalysisRecord, error) {
	return s.chats.GetByID(ctx, userID, id)
}

// captureSink retiene los mensajes emitidos para la extraccion posterior,
// delegando en el sink real si lo hay.
type captureSink struct {
	inner engine.Sink
	msgs  []domain.Message
}

func (c *captureSink) Save(ctx context.Context, msg domain.Message) error {
	c.msgs = append(c.msgs, msg)
	if c.inner != nil {
		return c.inner.Save(ctx, msg)
	}
	return nil
}

func (c *captureSink) SaveAnalysis(ctx context.Context, analysis *domain.ChatAnalysis) error {
	if c.inner != nil {
		return c.inner.SaveAnalysis(ctx, analysis)
	}
	return nil
}

func recordFromResult(userID, message string, res *domain.SentimentResult, source string) domain.AnalysisRecord {
	now := time.Now().UTC()
	return domain.AnalysisRecord{
		ID:            uuid.NewString(),
		UserID:        userID,
		Message:       engine.SanitizeInput(message),
		Sentiment:     res.Label,
		Confidence:    res.Confidence,
		Emotions:      res.Emotions,
		EmojiAnalysis: res.Emoji,
		Source:        source,
		Timestamp:     now,
		CreatedAt:     now,
	}
}

func dominantLabel(dist map[string]int) string {
	best, bestCount := "neutral", -1
	for _, label := range []string{"positive", "negative", "neutral"} {
		if dist[label] > bestCount {
			best, bestCount = label, dist[label]
		}
	}
	return best
}
