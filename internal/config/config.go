package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Clasificador neuronal opcional (inference API estilo Hugging Face).
	ClassifierBaseURL        string `env:"CLASSIFIER_BASE_URL"`
	ClassifierAPIKey         string `env:"CLASSIFIER_API_KEY"`
	ClassifierSentimentModel string `env:"CLASSIFIER_SENTIMENT_MODEL" envDefault:"cardiffnlp/twitter-roberta-base-sentiment-latest"`
	ClassifierEmotionModel   string `env:"CLASSIFIER_EMOTION_MODEL" envDefault:"j-hartmann/emotion-english-distilroberta-base"`

	JWTSecret            string `env:"JWT_SECRET,required"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Limite de analisis por usuario por ventana; solo aplica con Redis.
	AnalyzeRateWindowSeconds int `env:"ANALYZE_RATE_WINDOW_SECONDS" envDefault:"60"`
	AnalyzeRateMax           int `env:"ANALYZE_RATE_MAX" envDefault:"30"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
