package domain

import "time"

// Platform identifica el formato de chat del que proviene un mensaje.
type Platform string

const (
	PlatformWhatsApp Platform = "whatsapp"
	PlatformTelegram Platform = "telegram"
	PlatformDiscord  Platform = "discord"
	PlatformIMessage Platform = "imessage"
	PlatformGeneric  Platform = "generic"
)

// Message es la forma canonica de un mensaje tras el parseo.
// Timestamp es nil cuando la fuente no incluye fecha; en ese caso el orden
// de parseo se conserva.
type Message struct {
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Sender    string     `json:"sender"`
	Text      string     `json:"text"`
	Platform  Platform   `json:"platform"`
	IsMedia   bool       `json:"is_media,omitempty"`
}

// Diagnostic registra anomalias no fatales del pipeline (parseo, clasificador,
// sink). Nunca cambian el status de la respuesta.
type Diagnostic struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}
