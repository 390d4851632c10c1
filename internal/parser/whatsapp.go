package parser

import (
	"regexp"
	"strings"

	"chatsense/internal/domain"
)

// Cabecera de export de WhatsApp, con o sin corchetes y con AM/PM opcional:
//
//	12/31/2023, 10:30 PM - Alice: hola
//	[31.12.23, 22:30:45] - Alice: hola
var whatsappHeader = regexp.MustCompile(
	`^\[?(\d{1,2})[./-](\d{1,2})[./-](\d{2,4}),? (\d{1,2}):(\d{2})(?::(\d{2}))?\s?([AP]M)?\]? [-–] ([^:]+): (.*)$`,
)

func parseWhatsApp(lines []string) ([]domain.Message, []domain.Diagnostic) {
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

		m := whatsappHeader.FindStringSubmatch(line)
		if m == nil {
			// Continuacion del mensaje anterior; huerfanas al inicio se
			// descartan con diagnostico.
			if current != nil {
				current.Text += "\n" + line
				continue
			}
			diags = append(diags, skipDiagnostic(line))
			continue
		}
		flush()

		month, day := dayMonthOrder(atoi(m[1]), atoi(m[2]))
		year := normalizeYear(atoi(m[3]))
		hour := atoi(m[4])
		if m[7] != "" {
			hour = to24Hour(hour, m[7])
		}

		msg := domain.Message{
			Sender:   strings.TrimSpace(m[8]),
			Text:     strings.TrimSpace(m[9]),
			Platform: domain.PlatformWhatsApp,
		}
		if ts, ok := makeUTC(year, month, day, hour, atoi(m[5]), atoi(m[6])); ok {
			msg.Timestamp = &ts
		} else {
			diags = append(diags, skipDiagnostic(line))
		}
		msg.IsMedia = isMediaText(msg.Text)
		current = &msg
	}
	flush()

	return msgs, diags
}
