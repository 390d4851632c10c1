package parser

import (
	"strings"
	"time"

	"chatsense/internal/domain"
)

// Export de iMessage: una linea de fecha, una linea "From: Name" y el cuerpo
// en las lineas siguientes hasta la proxima fecha.
var imessageDateLayouts = []string{
	"January 2, 2006 3:04:05 PM",
	"January 2, 2006 3:04 PM",
	"Jan 2, 2006 3:04:05 PM",
	"Jan 2, 2006 3:04 PM",
}

func parseIMessageDate(line string) (time.Time, bool) {
	trimmed := strings.TrimSpace(line)
	for _, layout := range imessageDateLayouts {
		if ts, err := time.ParseInLocation(layout, trimmed, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func isIMessageHeader(line string) bool {
	_, ok := parseIMessageDate(line)
	return ok
}

func parseIMessage(lines []string) ([]domain.Message, []domain.Diagnostic) {
	var (
		msgs    []domain.Message
		diags   []domain.Diagnostic
		current *domain.Message
	)
	flush := func() {
		if current != nil {
			if current.Sender == "" {
				diags = append(diags, skipDiagnostic(current.Text))
			} else {
				current.IsMedia = isMediaText(current.Text)
				msgs = append(msgs, *current)
			}
			current = nil
		}
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		if ts, ok := parseIMessageDate(line); ok {
			flush()
			t := ts
			current = &domain.Message{Timestamp: &t, Platform: domain.PlatformIMessage}
			continue
		}

		if current == nil {
			diags = append(diags, skipDiagnostic(line))
			continue
		}

		if current.Sender == "" {
			if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "From:"); ok {
				current.Sender = strings.TrimSpace(rest)
				continue
			}
			// Sin remitente no hay mensaje; la fecha pendiente se descarta.
			diags = append(diags, skipDiagnostic(line))
			current = nil
			continue
		}

		if current.Text == "" {
			current.Text = line
		} else {
			current.Text += "\n" + line
		}
	}
	flush()

	return msgs, diags
}
