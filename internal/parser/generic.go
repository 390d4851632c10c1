package parser

import (
	"regexp"
	"strings"

	"chatsense/internal/domain"
)

// Formato generico "Name: text". Exige dos puntos seguidos de espacio para no
// confundir horas tipo "10:30" con un remitente.
var genericHeader = regexp.MustCompile(`^([^:\n]{1,64}): (.*)$`)

func parseGeneric(lines []string) ([]domain.Message, []domain.Diagnostic) {
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

		m := genericHeader.FindStringSubmatch(line)
		if m == nil {
			if current != nil {
				current.Text += "\n" + line
				continue
			}
			diags = append(diags, skipDiagnostic(line))
			continue
		}
		flush()
		current = &domain.Message{
			Sender:   strings.TrimSpace(m[1]),
			Text:     m[2],
			Platform: domain.PlatformGeneric,
		}
	}
	flush()

	return msgs, diags
}

// SerializeGeneric vuelca mensajes al formato generico, una linea por
// mensaje (las continuaciones conservan su salto de linea).
func SerializeGeneric(msgs []domain.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.Sender)
		b.WriteString(": ")
		b.WriteString(m.Text)
		b.WriteString("\n")
	}
	return b.String()
}
