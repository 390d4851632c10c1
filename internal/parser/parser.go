package parser

import (
	"errors"
	"strings"
	"unicode/utf8"

	"chatsense/internal/domain"
)

// ErrBadEncoding es el unico error fatal del parser: entrada no UTF-8.
// Cualquier otra anomalia se registra como diagnostico.
var ErrBadEncoding = errors.New("input is not valid UTF-8")

const detectionWindow = 200

// Result es la salida total del parseo: siempre hay formato detectado y una
// lista (posiblemente vacia) de mensajes canonicos.
type Result struct {
	Format      domain.Platform
	Messages    []domain.Message
	Diagnostics []domain.Diagnostic
}

// Parse detecta el formato (salvo hint) y produce la secuencia canonica de
// mensajes. Es total sobre cualquier entrada UTF-8 y nunca entra en panico
// por lineas malformadas.
func Parse(raw string, hint domain.Platform) (*Result, error) {
	if !utf8.ValidString(raw) {
		return nil, ErrBadEncoding
	}

	lines := splitLines(raw)

	format := hint
	if format == "" {
		format = detectFormat(raw, lines)
	}

	var (
		msgs  []domain.Message
		diags []domain.Diagnostic
	)
	switch format {
	case domain.PlatformWhatsApp:
		msgs, diags = parseWhatsApp(lines)
	case domain.PlatformTelegram:
		msgs, diags = parseTelegram(raw, lines)
	case domain.PlatformDiscord:
		msgs, diags = parseDiscord(lines)
	case domain.PlatformIMessage:
		msgs, diags = parseIMessage(lines)
	default:
		format = domain.PlatformGeneric
		msgs, diags = parseGeneric(lines)
	}

	for _, m := range msgs {
		if m.Timestamp != nil {
			diags = append(diags, domain.Diagnostic{
				Kind:   "timezone_assumption",
				Detail: "naive timestamps treated as UTC",
			})
			break
		}
	}

	return &Result{Format: format, Messages: msgs, Diagnostics: diags}, nil
}

// detectFormat cuenta matches de la gramatica de cada formato sobre las
// primeras 200 lineas no vacias. Gana el mayor conteo con al menos 10% de
// las lineas, o incondicionalmente si ningun otro formato matchea; los
// empates se resuelven por precedencia whatsapp > telegram > discord >
// imessage > generic.
func detectFormat(raw string, lines []string) domain.Platform {
	if looksLikeTelegramJSONDocument(raw) {
		return domain.PlatformTelegram
	}

	window := make([]string, 0, detectionWindow)
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		window = append(window, line)
		if len(window) == detectionWindow {
			break
		}
	}
	if len(window) == 0 {
		return domain.PlatformGeneric
	}

	precedence := []domain.Platform{
		domain.PlatformWhatsApp,
		domain.PlatformTelegram,
		domain.PlatformDiscord,
		domain.PlatformIMessage,
		domain.PlatformGeneric,
	}
	counts := make(map[domain.Platform]int, len(precedence))
	for _, line := range window {
		if whatsappHeader.MatchString(line) {
			counts[domain.PlatformWhatsApp]++
		}
		if telegramTextHeader.MatchString(line) || isTelegramJSONLine(line) {
			counts[domain.PlatformTelegram]++
		}
		if discordHeader.MatchString(line) {
			counts[domain.PlatformDiscord]++
		}
		if isIMessageHeader(line) {
			counts[domain.PlatformIMessage]++
		}
		if genericHeader.MatchString(line) {
			counts[domain.PlatformGeneric]++
		}
	}

	best := domain.PlatformGeneric
	bestCount := 0
	total := 0
	for _, f := range precedence {
		total += counts[f]
		if counts[f] > bestCount {
			best = f
			bestCount = counts[f]
		}
	}
	if bestCount == 0 {
		return domain.PlatformGeneric
	}
	if bestCount*10 >= len(window) || total == bestCount {
		return best
	}
	return domain.PlatformGeneric
}

func splitLines(raw string) []string {
	lines := strings.Split(raw, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

var mediaMarkers = []string{
	"<media omitted>",
	"media omitted",
	"image omitted",
	"video omitted",
	"audio omitted",
	"sticker omitted",
	"gif omitted",
	"document omitted",
	"(file attached)",
}

// isMediaText reconoce placeholders de adjuntos, sin distinguir mayusculas.
func isMediaText(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range mediaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func skipDiagnostic(line string) domain.Diagnostic {
	detail := line
	if len(detail) > 120 {
		detail = detail[:120]
	}
	return domain.Diagnostic{Kind: "parser_skip", Detail: detail}
}
