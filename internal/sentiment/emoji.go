package sentiment

import (
	"math"
	"strings"

	"chatsense/internal/domain"
)

// Pesos de polaridad con signo por emoji. Los no listados puntuan 0 pero
// cuentan para el denominador de confianza.
var emojiWeights = map[string]float64{
	// positivos
	"😊": 0.8, "😄": 0.9, "😃": 0.8, "😀": 0.7, "🙂": 0.6, "😉": 0.7,
	"😍": 0.9, "🥰": 0.9, "😘": 0.8, "😗": 0.7, "☺️": 0.8, "🤗": 0.8,
	"🤩": 0.9, "😇": 0.8, "😋": 0.7, "😎": 0.8, "🥳": 0.9, "🎉": 0.8,
	"❤️": 0.9, "💕": 0.8, "💖": 0.9, "💗": 0.8, "🌟": 0.7, "✨": 0.7,
	"👍": 0.7, "👏": 0.8, "🙌": 0.8, "💪": 0.7, "🔥": 0.8, "💯": 0.8,
	// negativos
	"😢": -0.8, "😭": -0.9, "😔": -0.7, "😞": -0.7, "😟": -0.6, "😕": -0.6,
	"☹️": -0.7, "🙁": -0.6, "😤": -0.7, "😠": -0.8, "😡": -0.9, "🤬": -0.9,
	"😰": -0.8, "😨": -0.8, "😱": -0.9, "😖": -0.7, "😣": -0.7, "😫": -0.8,
	"😩": -0.8, "🥺": -0.7, "😪": -0.6, "😴": -0.5, "🤒": -0.7, "🤕": -0.7,
	"💔": -0.9, "😿": -0.8, "👎": -0.7, "💀": -0.8, "😵": -0.8,
}

// EmojiSummary es la salida del analizador de emojis de un texto.
type EmojiSummary struct {
	HasEmojis  bool
	Count      int
	PerEmoji   map[string]int
	Label      domain.SentimentLabel
	Confidence float64
}

const (
	runeZWJ  = 0x200D
	runeVS16 = 0xFE0F
)

func isEmojiBase(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1F5FF,
		r >= 0x1F600 && r <= 0x1F64F,
		r >= 0x1F680 && r <= 0x1F6FF,
		r >= 0x1F900 && r <= 0x1F9FF,
		r >= 0x1FA70 && r <= 0x1FAFF,
		r >= 0x2600 && r <= 0x26FF,
		r >= 0x2700 && r <= 0x27BF,
		r >= 0x1F1E6 && r <= 0x1F1FF,
		r == 0x2B50, r == 0x2B55:
		return true
	}
	return false
}

func isEmojiModifier(r rune) bool {
	return r == runeVS16 || (r >= 0x1F3FB && r <= 0x1F3FF)
}

// ExtractEmojis devuelve las secuencias de emoji del texto en orden de
// aparicion. Las secuencias ZWJ se devuelven completas como clave canonica.
func ExtractEmojis(text string) []string {
	runes := []rune(text)
	var out []string
	for i := 0; i < len(runes); {
		if !isEmojiBase(runes[i]) {
			i++
			continue
		}
		j := i + 1
		for j < len(runes) {
			if isEmojiModifier(runes[j]) {
				j++
				continue
			}
			// Un ZWJ une con el siguiente emoji base.
			if runes[j] == runeZWJ && j+1 < len(runes) && isEmojiBase(runes[j+1]) {
				j += 2
				continue
			}
			break
		}
		out = append(out, string(runes[i:j]))
		i = j
	}
	return out
}

// AnalyzeEmojis agrega la polaridad de todos los emojis del texto.
// La confianza es min(1, |suma|/max(3, cantidad)); 0 cuando no hay emojis.
func AnalyzeEmojis(text string) EmojiSummary {
	seqs := ExtractEmojis(text)
	if len(seqs) == 0 {
		return EmojiSummary{Label: domain.SentimentNeutral}
	}

	summary := EmojiSummary{
		HasEmojis: true,
		Count:     len(seqs),
		PerEmoji:  make(map[string]int, len(seqs)),
	}
	var sum float64
	for _, seq := range seqs {
		summary.PerEmoji[seq]++
		sum += weightFor(seq)
	}

	switch {
	case sum > 0:
		summary.Label = domain.SentimentPositive
	case sum < 0:
		summary.Label = domain.SentimentNegative
	default:
		summary.Label = domain.SentimentNeutral
	}
	summary.Confidence = math.Min(1, math.Abs(sum)/math.Max(3, float64(len(seqs))))
	return summary
}

// weightFor busca la secuencia completa, luego sin VS16 y por ultimo el emoji
// lider de una secuencia ZWJ.
func weightFor(seq string) float64 {
	if w, ok := emojiWeights[seq]; ok {
		return w
	}
	stripped := strings.Map(func(r rune) rune {
		if r == runeVS16 {
			return -1
		}
		return r
	}, seq)
	if w, ok := emojiWeights[stripped]; ok {
		return w
	}
	lead := []rune(seq)
	if len(lead) > 0 {
		if w, ok := emojiWeights[string(lead[0])]; ok {
			return w
		}
		if w, ok := emojiWeights[string(lead[0])+string(rune(runeVS16))]; ok {
			return w
		}
	}
	return 0
}
