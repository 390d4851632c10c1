package domain

import "time"

// SentimentLabel es el conjunto cerrado de etiquetas de sentimiento.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// EmotionNames es el conjunto cerrado de emociones, en el orden fijo que usa
// el vector de emociones persistido.
var EmotionNames = []string{
	"joy", "sadness", "anger", "fear", "surprise", "disgust", "neutral", "optimism",
}

// EmojiAnalysis resume la polaridad derivada solo de emojis.
type EmojiAnalysis struct {
	Sentiment  SentimentLabel `json:"sentiment"`
	Confidence float64        `json:"confidence"`
	HasEmojis  bool           `json:"has_emojis"`
}

// ClassifierResult es la salida de un clasificador neuronal externo. El motor
// funciona completo sin el; solo mejora etiquetas y aporta emociones.
type ClassifierResult struct {
	Label      SentimentLabel     `json:"label"`
	Confidence float64            `json:"confidence"`
	Emotions   map[string]float64 `json:"emotions,omitempty"`
}

// SentimentResult es la salida del scorer para un mensaje individual.
// Emotions esta ausente cuando solo actuo el fallback lexico.
type SentimentResult struct {
	Label      SentimentLabel     `json:"sentiment"`
	Confidence float64            `json:"confidence"`
	Emotions   map[string]float64 `json:"emotions,omitempty"`
	Emoji      *EmojiAnalysis     `json:"emoji_analysis,omitempty"`
}

// EmotionVector proyecta el mapa de emociones sobre las dimensiones fijas de
// EmotionNames. Emociones desconocidas se ignoran; ausentes valen 0.
func EmotionVector(emotions map[string]float64) []float32 {
	vec := make([]float32, len(EmotionNames))
	for i, name := range EmotionNames {
		vec[i] = float32(emotions[name])
	}
	return vec
}

// AnalysisRecord es un analisis de mensaje individual tal como se persiste y
// se devuelve en el historial.
type AnalysisRecord struct {
	ID            string             `json:"analysis_id"`
	UserID        string             `json:"-"`
	Message       string             `json:"message"`
	Sentiment     SentimentLabel     `json:"sentiment"`
	Confidence    float64            `json:"confidence"`
	Emotions      map[string]float64 `json:"emotions,omitempty"`
	EmojiAnalysis *EmojiAnalysis     `json:"emoji_analysis,omitempty"`
	Source        string             `json:"source,omitempty"`
	Timestamp     time.Time          `json:"timestamp"`
	CreatedAt     time.Time          `json:"created_at"`
}

const (
	// SourceSingle marca analisis pedidos de a uno; SourceBulkImport marca los
	// extraidos de una importacion de conversacion.
	SourceSingle     = "single"
	SourceBulkImport = "bulk_import"
)
