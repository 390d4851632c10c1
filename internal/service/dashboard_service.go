package service

import (
	"context"
	"sort"
	"time"

	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"chatsense/internal/domain"
	"chatsense/internal/repository"
)

// RiskLevel clasifica el bienestar derivado del historial reciente.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Dashboard resume el estado emocional reciente del usuario.
type Dashboard struct {
	TotalAnalyses         int            `json:"total_analyses"`
	WellbeingScore        float64        `json:"wellbeing_score"`
	RiskLevel             RiskLevel      `json:"risk_level"`
	SentimentDistribution map[string]int `json:"sentiment_distribution"`
	Description           string         `json:"description"`
}

// MoodDay es la entrada diaria de la serie de animo.
type MoodDay struct {
	Date              string  `json:"date"`
	DominantSentiment string  `json:"dominant_sentiment"`
	AverageConfidence float64 `json:"average_confidence"`
	MessageCount      int     `json:"message_count"`
}

// DashboardService arma las vistas agregadas sobre el historial de analisis.
type DashboardService struct {
	logger   *zap.Logger
	analyses repository.AnalysisRepository
}

func NewDashboardService(logger *zap.Logger, analyses repository.AnalysisRepository) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{logger: logger, analyses: analyses}
}

// GetDashboard calcula el puntaje de bienestar sobre los analisis desde
// `since`: (ratio positivo * 10) - (ratio negativo * 5) + 5, recortado a
// [0, 10].
func (s *DashboardService) GetDashboard(ctx context.Context, userID string, since time.Time) (Dashboard, error) {
	records, err := s.analyses.ListSince(ctx, userID, since)
	if err != nil {
		return Dashboard{}, err
	}

	dist := map[string]int{"positive": 0, "neutral": 0, "negative": 0}
	for _, r := range records {
		dist[string(r.Sentiment)]++
	}
	total := len(records)

	score := 5.0
	if total > 0 {
		posRatio := float64(dist["positive"]) / float64(total)
		negRatio := float64(dist["negative"]) / float64(total)
		score = posRatio*10 - negRatio*5 + 5
	}
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}

	risk := RiskHigh
	switch {
	case score >= 7:
		risk = RiskLow
	case score >= 4:
		risk = RiskMedium
	}

	return Dashboard{
		TotalAnalyses:         total,
		WellbeingScore:        score,
		RiskLevel:             risk,
		SentimentDistribution: dist,
		Description:           describeRisk(risk, total),
	}, nil
}

func describeRisk(risk RiskLevel, total int) string {
	if total == 0 {
		return "Not enough recent activity to assess wellbeing."
	}
	switch risk {
	case RiskLow:
		return "Your recent messages lean positive. Keep it up."
	case RiskMedium:
		return "Your recent messages are mixed. Consider checking in with yourself."
	default:
		return "Your recent messages lean negative. Reaching out to someone you trust can help."
	}
}

// GetMoodTrends agrupa el historial por dia calendario (UTC) y devuelve el
// sentimiento dominante y la confianza promedio de cada dia, en orden
// cronologico.
func (s *DashboardService) GetMoodTrends(ctx context.Context, userID string, since time.Time) ([]MoodDay, error) {
	records, err := s.analyses.ListSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	type dayAgg struct {
		counts  map[string]int
		confSum float64
		total   int
	}
	days := make(map[string]*dayAgg)
	for _, r := range records {
		key := r.CreatedAt.UTC().Format("2006-01-02")
		agg := days[key]
		if agg == nil {
			agg = &dayAgg{counts: make(map[string]int, 3)}
			days[key] = agg
		}
		agg.counts[string(r.Sentiment)]++
		agg.confSum += r.Confidence
		agg.total++
	}

	out := make([]MoodDay, 0, len(days))
	for key, agg := range days {
		out = append(out, MoodDay{
			Date:              key,
			DominantSentiment: dominantLabel(agg.counts),
			AverageConfidence: agg.confSum / float64(agg.total),
			MessageCount:      agg.total,
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Date < out[b].Date })
	return out, nil
}

// FindSimilarMoods busca, via el vector de emociones, los analisis del propio
// usuario mas parecidos al indicado. Sin emociones no hay vector ni busqueda.
func (s *DashboardService) FindSimilarMoods(ctx context.Context, userID, analysisID string, k int) ([]domain.AnalysisRecord, error) {
	rec, err := s.analyses.GetByID(ctx, userID, analysisID)
	if err != nil {
		return nil, err
	}
	if len(rec.Emotions) == 0 {
		return nil, nil
	}
	vec := pgvector.NewVector(domain.EmotionVector(rec.Emotions))
	similar, err := s.analyses.FindSimilarMoods(ctx, userID, vec, k+1)
	if err != nil {
		return nil, err
	}
	// El propio analisis siempre es su vecino mas cercano.
	out := similar[:0]
	for _, r := range similar {
		if r.ID != analysisID {
			out = append(out, r)
		}
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}
