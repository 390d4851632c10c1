package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatsense/internal/domain"
)

// ErrUnavailable indica que el clasificador no puede responder; nunca es
// fatal: el motor cae al scoring lexico.
var ErrUnavailable = errors.New("classifier unavailable")

// Classifier define la interfaz del clasificador neuronal inyectable.
type Classifier interface {
	Classify(ctx context.Context, text string) (*domain.ClassifierResult, error)
}

// HTTPClient implementa Classifier contra una inference API compatible con
// Hugging Face (dos modelos: sentimiento y emociones).
type HTTPClient struct {
	baseURL       string
	apiKey        string
	sentimentPath string
	emotionPath   string
	client        *http.Client
}

// NewHTTPClient construye el cliente apuntando a los dos modelos.
func NewHTTPClient(baseURL, apiKey, sentimentModel, emotionModel string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		sentimentPath: "/models/" + sentimentModel,
		emotionPath:   "/models/" + emotionModel,
		client:        httpClient,
	}
}

type inferenceScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (c *HTTPClient) Classify(ctx context.Context, text string) (*domain.ClassifierResult, error) {
	sentScores, err := c.infer(ctx, c.sentimentPath, text)
	if err != nil {
		return nil, err
	}
	if len(sentScores) == 0 {
		return nil, fmt.Errorf("%w: empty sentiment response", ErrUnavailable)
	}

	top := sentScores[0]
	for _, s := range sentScores[1:] {
		if s.Score > top.Score {
			top = s
		}
	}

	result := &domain.ClassifierResult{
		Label:      mapLabel(top.Label),
		Confidence: top.Score,
	}

	// Las emociones son opcionales: si el segundo modelo falla seguimos con
	// la etiqueta de sentimiento sola.
	if emoScores, err := c.infer(ctx, c.emotionPath, text); err == nil && len(emoScores) > 0 {
		emotions := make(map[string]float64, len(emoScores))
		for _, s := range emoScores {
			emotions[strings.ToLower(s.Label)] = s.Score
		}
		result.Emotions = emotions
	}

	return result, nil
}

func (c *HTTPClient) infer(ctx context.Context, path, text string) ([]inferenceScore, error) {
	body, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: status=%d", ErrUnavailable, resp.StatusCode)
	}

	// La API devuelve [[{label,score}...]] o [{label,score}...] segun modelo.
	var nested [][]inferenceScore
	if err := json.Unmarshal(respBody, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}
	var flat []inferenceScore
	if err := json.Unmarshal(respBody, &flat); err != nil {
		return nil, fmt.Errorf("%w: unmarshal response: %v", ErrUnavailable, err)
	}
	return flat, nil
}

// mapLabel traduce etiquetas del modelo al conjunto cerrado propio.
func mapLabel(raw string) domain.SentimentLabel {
	switch strings.ToLower(raw) {
	case "positive", "label_2", "pos":
		return domain.SentimentPositive
	case "negative", "label_0", "neg":
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}
