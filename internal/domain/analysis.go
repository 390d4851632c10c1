package domain

import "time"

// Role distingue al dueño de la importacion del resto de participantes.
type Role string

const (
	RoleSelf  Role = "self"
	RoleOther Role = "other"
)

// Participant describe a un emisor dentro de la conversacion.
type Participant struct {
	Name          string  `json:"name"`
	Role          Role    `json:"role"`
	MessageCount  int     `json:"message_count"`
	AverageLength float64 `json:"average_length"`
}

// LongestMessage identifica el mensaje mas largo de la conversacion.
type LongestMessage struct {
	Sender string `json:"sender"`
	Length int    `json:"length"`
}

// BasicStats son los conteos de primera pasada.
type BasicStats struct {
	TotalMessages          int            `json:"total_messages"`
	AverageMessageLength   float64        `json:"average_message_length"`
	LongestMessage         LongestMessage `json:"longest_message"`
	MessagesPerParticipant map[string]int `json:"messages_per_participant"`
}

// HourCount es una entrada de mostActiveHours ordenada por count desc, hora asc.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// MessagingPatterns cubre distribuciones temporales. Solo los mensajes con
// timestamp aportan a las distribuciones.
type MessagingPatterns struct {
	HourlyDistribution      [24]int            `json:"hourly_distribution"`
	DayOfWeekDistribution   map[string]int     `json:"day_of_week_distribution"`
	MostActiveHours         []HourCount        `json:"most_active_hours"`
	FrequencyPerParticipant map[string]float64 `json:"frequency_per_participant"`
}

// ResponseTimeStats resume los deltas de respuesta (en minutos) de un
// participante. Solo pares con cambio de emisor y delta <= 24h.
type ResponseTimeStats struct {
	AverageMinutes float64 `json:"average_minutes"`
	MedianMinutes  float64 `json:"median_minutes"`
	FastestMinutes float64 `json:"fastest_minutes"`
	SlowestMinutes float64 `json:"slowest_minutes"`
	Count          int     `json:"count"`
}

// BackAndForthMetrics mide los intercambios de alternancia estricta.
type BackAndForthMetrics struct {
	TotalExchanges        int     `json:"total_exchanges"`
	AverageExchangeLength float64 `json:"average_exchange_length"`
	LongestExchange       int     `json:"longest_exchange"`
}

// EngagementMetrics agrupa respuesta, iniciaciones e intercambios.
type EngagementMetrics struct {
	ResponseTimeAnalysis    map[string]ResponseTimeStats `json:"response_time_analysis"`
	ConversationInitiations map[string]int               `json:"conversation_initiations"`
	BackAndForth            BackAndForthMetrics          `json:"back_and_forth_metrics"`
}

// SentimentRatios suma 1 (± 1e-6) cuando el participante tiene mensajes
// puntuados; de lo contrario los tres valores son 0.
type SentimentRatios struct {
	PositiveRatio float64 `json:"positive_ratio"`
	NeutralRatio  float64 `json:"neutral_ratio"`
	NegativeRatio float64 `json:"negative_ratio"`
}

// SentimentSummary es el rollup por participante mas el global.
type SentimentSummary struct {
	PerParticipant map[string]SentimentRatios `json:"per_participant"`
	Overall        SentimentRatios            `json:"overall"`
}

// EmojiCount es una entrada del top de emojis de un participante.
type EmojiCount struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// ParticipantEmojiStats resume el uso de emojis de un participante.
type ParticipantEmojiStats struct {
	TotalEmojis      int          `json:"total_emojis"`
	EmojisPerMessage float64      `json:"emojis_per_message"`
	MostUsedEmojis   []EmojiCount `json:"most_used_emojis"`
}

// Period delimita la conversacion. Nil cuando ningun mensaje trae timestamp.
type Period struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	DurationDays int       `json:"duration_days"`
}

// ChatAnalysis es el resultado raiz de AnalyzeConversation. Inmutable una vez
// construido.
type ChatAnalysis struct {
	FormatDetected    Platform                         `json:"format_detected"`
	TotalMessages     int                              `json:"total_messages"`
	Period            *Period                          `json:"period,omitempty"`
	Participants      map[string]Participant           `json:"participants"`
	BasicStats        BasicStats                       `json:"basic_stats"`
	MessagingPatterns MessagingPatterns                `json:"messaging_patterns"`
	EngagementMetrics EngagementMetrics                `json:"engagement_metrics"`
	SentimentAnalysis SentimentSummary                 `json:"sentiment_analysis"`
	EmojiStats        map[string]ParticipantEmojiStats `json:"emoji_stats"`
	RedFlags          RedFlagReport                    `json:"red_flags"`
}

// ChatAnalysisRecord envuelve un ChatAnalysis persistido.
type ChatAnalysisRecord struct {
	ID             string        `json:"analysis_id"`
	UserID         string        `json:"-"`
	FormatDetected Platform      `json:"format_detected"`
	TotalMessages  int           `json:"total_messages_analyzed"`
	Analysis       *ChatAnalysis `json:"analysis,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}
