package parser

import (
	"regexp"
	"strings"

	"chatsense/internal/domain"
)

// Cabecera de export de Discord: "Name — 31/12/2023 22:30" con el cuerpo en
// las lineas siguientes hasta la proxima cabecera.
var discordHeader = regexp.MustCompile(
	`^(.{1,64}?) [—–-] (\d{1,2})/(\d{1,2})/(\d{4}) (\d{1,2}):(\d{2})$`,
)

func parseDiscord(lines []string) ([]domain.Message, []domain.Diagnostic) {
	var (
		msgs    []domain.Message
		diags   []domain.Diagnostic
		current *domain.Message
	)
	flush := func() {
		if current != nil {
			current.IsMedia = isMediaText(current.Text)
			msgs = append(msgs, *current)
			current = nil
		}
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		m := discordHeader.FindStringSubmatch(line)
		if m == nil {
			if current != nil {
				if current.Text == "" {
					current.Text = line
				} else {
					current.Text += "\n" + line
				}
				continue
			}
			diags = append(diags, skipDiagnostic(line))
			continue
		}
		flush()

		// Orden dia/mes del export europeo de Discord.
		day, month := atoi(m[2]), atoi(m[3])
		if month > 12 && day <= 12 {
			day, month = month, day
		}

		msg := domain.Message{
			Sender:   strings.TrimSpace(m[1]),
			Platform: domain.PlatformDiscord,
		}
		if ts, ok := makeUTC(atoi(m[4]), month, day, atoi(m[5]), atoi(m[6]), 0); ok {
			msg.Timestamp = &ts
		} else {
			diags = append(diags, skipDiagnostic(line))
		}
		current = &msg
	}
	flush()

	return msgs, diags
}
