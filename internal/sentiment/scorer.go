package sentiment

import (
	"math"
	"strings"
	"unicode"

	"chatsense/internal/domain"
)

// Constantes del algoritmo lexico. Fijas: no son configuracion de despliegue.
const (
	minTriggerRatio   = 0.08
	fillerConfidence  = 0.55
	lastResortConf    = 0.52
	emojiAgreeBonus   = 0.35
	capsAmplifier     = 1.25
	baseConfidenceCap = 0.88
	boostedConfCap    = 0.92
)

// Score ejecuta el algoritmo lexico de nueve fases sobre un texto. Es
// deterministico para una misma entrada. Si hay resultado del clasificador
// neuronal se aplican las reglas de override y se adjuntan las emociones;
// sin el, Emotions queda ausente.
func Score(text string, hint *domain.ClassifierResult) domain.SentimentResult {
	emojis := AnalyzeEmojis(text)
	var emojiField *domain.EmojiAnalysis
	if emojis.HasEmojis {
		emojiField = &domain.EmojiAnalysis{
			Sentiment:  emojis.Label,
			Confidence: emojis.Confidence,
			HasEmojis:  true,
		}
	}

	// Fase 1: deteccion de relleno.
	isFiller := isFillerText(text)
	if isFiller && !emojis.HasEmojis {
		return domain.SentimentResult{
			Label:      domain.SentimentNeutral,
			Confidence: fillerConfidence,
		}
	}

	// Fase 2: tokenizacion y conteo por listas de palabras.
	lower := strings.ToLower(text)
	words := tokenize(lower)
	wordCount := len(words)

	var pos, neg float64
	for _, w := range words {
		if _, ok := positiveWords[w]; ok {
			pos++
		}
		if _, ok := negativeWords[w]; ok {
			neg++
		}
	}

	// Fase 3: patrones multi-palabra.
	for _, p := range positivePatterns {
		pos += 2 * float64(strings.Count(lower, p))
	}
	for _, p := range negativePatterns {
		neg += 2 * float64(strings.Count(lower, p))
	}
	wordHits := pos + neg

	// Fase 4: amplificadores de puntuacion. Solo amplifican sentimiento ya
	// presente; por si solos no disparan una etiqueta (eso es fase 8).
	if wordHits > 0 {
		if strings.HasSuffix(strings.TrimSpace(text), "!") && pos > 0 {
			pos++
		}
		if strings.Count(text, "?") >= 2 && neg > 0 {
			neg++
		}
		if hasCapsRun(text) {
			if pos > neg {
				pos *= capsAmplifier
			} else if neg > pos {
				neg *= capsAmplifier
			}
		}
	}

	// Fase 5: umbral y etiqueta cruda.
	label := domain.SentimentNeutral
	ratio := (pos + neg) / math.Max(1, float64(wordCount))
	if ratio >= minTriggerRatio {
		if pos > neg {
			label = domain.SentimentPositive
		} else if neg > pos {
			label = domain.SentimentNegative
		}
	}

	var conf float64
	if label != domain.SentimentNeutral {
		dominant := math.Max(pos, neg)
		conf = math.Min(dominant/math.Max(float64(wordCount)*minTriggerRatio, 1), baseConfidenceCap)
		if dominant >= 2 {
			conf = math.Min(conf+0.10, boostedConfCap)
		}
	}

	// Fase 6: refuerzo de emojis cuando coinciden con la polaridad del texto.
	if emojis.HasEmojis && label != domain.SentimentNeutral && emojis.Label == label {
		conf += emojiAgreeBonus * emojis.Confidence
	}

	// Fase 7: override del clasificador.
	var emotions map[string]float64
	if hint != nil {
		emotions = hint.Emotions
		if hint.Label == domain.SentimentNeutral {
			if emojis.Confidence > 0.6 && emojis.Label != domain.SentimentNeutral {
				label = emojis.Label
				conf = emojis.Confidence * 0.85
			}
		} else {
			lexical := conf
			label = hint.Label
			conf = math.Max(hint.Confidence, lexical*0.9)
		}
	}

	// Fase 8: ultimo recurso cuando ni palabras, ni patrones, ni clasificador
	// dispararon nada.
	if label == domain.SentimentNeutral && wordHits == 0 && hint == nil {
		switch {
		case strings.Contains(text, "!"):
			label = domain.SentimentPositive
			conf = lastResortConf
		case strings.Count(text, "?") >= 2:
			label = domain.SentimentNegative
			conf = lastResortConf
		case emojis.HasEmojis && emojis.Label != domain.SentimentNeutral:
			// Se adopta la polaridad del emoji y, ya en acuerdo, aplica el
			// refuerzo de la fase 6 sobre la base de ultimo recurso.
			label = emojis.Label
			conf = lastResortConf + emojiAgreeBonus*emojis.Confidence
		}
	}

	// Fase 9: clamp final y confianza del neutro.
	if label == domain.SentimentNeutral {
		conf = math.Max(0.5, 1-(pos+neg)/float64(wordCount+1))
		if isFiller {
			conf = fillerConfidence
		}
	}
	conf = math.Max(0, math.Min(1, conf))

	return domain.SentimentResult{
		Label:      label,
		Confidence: conf,
		Emotions:   emotions,
		Emoji:      emojiField,
	}
}

func tokenize(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// isFillerText normaliza (minusculas, sin puntuacion final) y consulta el set
// de relleno.
func isFillerText(text string) bool {
	norm := strings.ToLower(strings.TrimSpace(text))
	norm = strings.TrimRight(norm, ".!?… ")
	if norm == "" {
		return false
	}
	_, ok := fillerTokens[norm]
	return ok
}

// hasCapsRun detecta una palabra de 4+ letras totalmente en mayusculas.
func hasCapsRun(text string) bool {
	for _, w := range strings.Fields(text) {
		letters := 0
		upper := true
		for _, r := range w {
			if unicode.IsLetter(r) {
				letters++
				if !unicode.IsUpper(r) {
					upper = false
					break
				}
			}
		}
		if upper && letters >= 4 {
			return true
		}
	}
	return false
}
