package parser

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"chatsense/internal/domain"
)

// Cabecera del export de texto de Telegram: 31.12.2023 22:30:45 - Name: text
var telegramTextHeader = regexp.MustCompile(
	`^(\d{1,2})\.(\d{1,2})\.(\d{4}) (\d{1,2}):(\d{2})(?::(\d{2}))? - ([^:]+): (.*)$`,
)

var telegramDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

type telegramJSONMessage struct {
	Date string          `json:"date"`
	From string          `json:"from"`
	Text json.RawMessage `json:"text"`
}

type telegramExport struct {
	Messages []telegramJSONMessage `json:"messages"`
}

func looksLikeTelegramJSONDocument(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return strings.HasPrefix(trimmed, "{") && strings.Contains(trimmed, `"messages"`)
}

func isTelegramJSONLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
		return false
	}
	var m telegramJSONMessage
	if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
		return false
	}
	return m.From != "" && m.Date != ""
}

func parseTelegram(raw string, lines []string) ([]domain.Message, []domain.Diagnostic) {
	if looksLikeTelegramJSONDocument(raw) {
		return parseTelegramJSONDocument(raw)
	}

	var (
		msgs    []domain.Message
		diags   []domain.Diagnostic
		current *domain.Message
	)
	flush := func() {
		if current != nil {
			msgs = append(msgs, *current)
			current = nil
		}
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		if m := telegramTextHeader.FindStringSubmatch(line); m != nil {
			flush()
			msg := domain.Message{
				Sender:   strings.TrimSpace(m[7]),
				Text:     strings.TrimSpace(m[8]),
				Platform: domain.PlatformTelegram,
			}
			// Formato dia.mes.año del export de escritorio.
			if ts, ok := makeUTC(atoi(m[3]), atoi(m[2]), atoi(m[1]), atoi(m[4]), atoi(m[5]), atoi(m[6])); ok {
				msg.Timestamp = &ts
			} else {
				diags = append(diags, skipDiagnostic(line))
			}
			msg.IsMedia = isMediaText(msg.Text)
			current = &msg
			continue
		}

		if isTelegramJSONLine(line) {
			flush()
			var jm telegramJSONMessage
			_ = json.Unmarshal([]byte(strings.TrimSpace(line)), &jm)
			msg, ok := telegramMessageFromJSON(jm)
			if !ok {
				diags = append(diags, skipDiagnostic(line))
				continue
			}
			msgs = append(msgs, msg)
			continue
		}

		if current != nil {
			current.Text += "\n" + line
			continue
		}
		diags = append(diags, skipDiagnostic(line))
	}
	flush()

	return msgs, diags
}

func parseTelegramJSONDocument(raw string) ([]domain.Message, []domain.Diagnostic) {
	var export telegramExport
	if err := json.Unmarshal([]byte(raw), &export); err != nil {
		return nil, []domain.Diagnostic{{Kind: "parser_skip", Detail: "invalid telegram json export"}}
	}

	var (
		msgs  []domain.Message
		diags []domain.Diagnostic
	)
	for _, jm := range export.Messages {
		msg, ok := telegramMessageFromJSON(jm)
		if !ok {
			diags = append(diags, domain.Diagnostic{Kind: "parser_skip", Detail: "telegram json message without sender"})
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, diags
}

func telegramMessageFromJSON(jm telegramJSONMessage) (domain.Message, bool) {
	sender := strings.TrimSpace(jm.From)
	if sender == "" {
		return domain.Message{}, false
	}

	msg := domain.Message{
		Sender:   sender,
		Text:     flattenTelegramText(jm.Text),
		Platform: domain.PlatformTelegram,
	}
	for _, layout := range telegramDateLayouts {
		if ts, err := time.ParseInLocation(layout, jm.Date, time.UTC); err == nil {
			msg.Timestamp = &ts
			break
		}
	}
	msg.IsMedia = isMediaText(msg.Text)
	return msg, true
}

// flattenTelegramText acepta el campo text como string o como lista de
// fragmentos (strings u objetos {type,text}) y lo aplana.
func flattenTelegramText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var b strings.Builder
	for _, part := range parts {
		var ps string
		if err := json.Unmarshal(part, &ps); err == nil {
			b.WriteString(ps)
			continue
		}
		var entity struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(part, &entity); err == nil {
			b.WriteString(entity.Text)
		}
	}
	return strings.TrimSpace(b.String())
}
