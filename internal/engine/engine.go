package engine

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"chatsense/internal/classifier"
	"chatsense/internal/domain"
	"chatsense/internal/parser"
	"chatsense/internal/sentiment"
)

const (
	// MaxMessageChars corta el texto de un mensaje individual.
	MaxMessageChars = 5000
	// MaxBulkBytes limita el tamaño crudo de una conversacion importada.
	MaxBulkBytes = 5 << 20
	// MinCharsForImport es el minimo de caracteres, ya recortado, para que una
	// importacion tenga sentido.
	MinCharsForImport = 10
	// ClassifierTimeout acota cada llamada al clasificador; al vencer se cae
	// al scoring lexico.
	ClassifierTimeout = 2 * time.Second
)

var (
	ErrInputTooSmall = errors.New("input too small to analyze")
	ErrInputTooLarge = errors.New("input exceeds maximum size")
	ErrCanceled      = errors.New("analysis canceled")
)

// Engine es la fachada del analisis. No retiene estado entre llamadas y es
// seguro de usar desde varias goroutines.
type Engine struct {
	classifier classifier.Classifier
	log        *zap.Logger
}

// New arma un Engine. El clasificador es opcional: con nil todo el scoring es
// lexico.
func New(cls classifier.Classifier, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{classifier: cls, log: log}
}

// ConversationResult empaqueta el analisis con los diagnosticos no fatales
// acumulados durante el parseo y la emision al sink.
type ConversationResult struct {
	Analysis    *domain.ChatAnalysis
	Diagnostics []domain.Diagnostic
}

// SanitizeInput remueve caracteres de control (conservando saltos de linea y
// tabs) y trunca a MaxMessageChars.
func SanitizeInput(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	count := 0
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		if count == MaxMessageChars {
			break
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}

// AnalyzeMessage puntua un mensaje individual. El clasificador externo solo
// mejora el resultado: su falla o timeout degrada al camino lexico.
func (e *Engine) AnalyzeMessage(ctx context.Context, text string) (*domain.SentimentResult, error) {
	text = SanitizeInput(text)
	if strings.TrimSpace(text) == "" {
		return nil, ErrInputTooSmall
	}
	res := sentiment.Score(text, e.classify(ctx, text))
	return &res, nil
}

func (e *Engine) classify(ctx context.Context, text string) *domain.ClassifierResult {
	if e.classifier == nil {
		return nil
	}
	cctx, cancel := context.WithTimeout(ctx, ClassifierTimeout)
	defer cancel()
	hint, err := e.classifier.Classify(cctx, text)
	if err != nil {
		e.log.Warn("classifier unavailable, falling back to lexical scoring", zap.Error(err))
		return nil
	}
	return hint
}

// AnalyzeConversation parsea, puntua y agrega una conversacion completa.
// El sink es opcional; si lo hay, recibe un mensaje por cada mensaje parseado
// en orden, y luego el analisis final. Errores del sink se vuelven
// diagnosticos salvo ErrAbort, que corta y devuelve el parcial. Si el
// contexto se cancela, se devuelve el parcial sobre los mensajes completados
// junto con ErrCanceled.
func (e *Engine) AnalyzeConversation(ctx context.Context, raw string, hint domain.Platform, selfName string, sink Sink) (*ConversationResult, error) {
	if len(strings.TrimSpace(raw)) < MinCharsForImport {
		return nil, ErrInputTooSmall
	}
	if len(raw) > MaxBulkBytes {
		return nil, ErrInputTooLarge
	}

	parsed, err := parser.Parse(raw, hint)
	if err != nil {
		return nil, err
	}
	diags := parsed.Diagnostics
	msgs := parsed.Messages

	sentiments := make([]*domain.SentimentResult, 0, len(msgs))
	var fatal error
	done := len(msgs)

	for i, m := range msgs {
		if ctxErr := ctx.Err(); ctxErr != nil {
			fatal = ErrCanceled
			done = i
			break
		}

		var sr *domain.SentimentResult
		if !m.IsMedia && strings.TrimSpace(m.Text) != "" {
			scored := sentiment.Score(SanitizeInput(m.Text), e.classify(ctx, m.Text))
			sr = &scored
		}
		sentiments = append(sentiments, sr)

		if sink != nil {
			if sinkErr := sink.Save(ctx, m); sinkErr != nil {
				if errors.Is(sinkErr, ErrAbort) {
					fatal = ErrAbort
					done = i + 1
					break
				}
				diags = append(diags, domain.Diagnostic{Kind: "sink_error", Detail: sinkErr.Error()})
			}
		}
	}

	analysis, aggDiags := Aggregate(msgs[:done], sentiments, parsed.Format, selfName)
	diags = append(diags, aggDiags...)

	if sink != nil && fatal == nil {
		if sinkErr := sink.SaveAnalysis(ctx, analysis); sinkErr != nil {
			if errors.Is(sinkErr, ErrAbort) {
				fatal = ErrAbort
			} else {
				diags = append(diags, domain.Diagnostic{Kind: "sink_error", Detail: sinkErr.Error()})
			}
		}
	}

	res := &ConversationResult{Analysis: analysis, Diagnostics: diags}
	if fatal != nil {
		return res, fatal
	}
	return res, nil
}
