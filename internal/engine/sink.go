package engine

import (
	"context"
	"errors"

	"chatsense/internal/domain"
)

// ErrAbort lo devuelve un sink para cortar la emision; el motor responde con
// el resultado parcial acumulado hasta ese mensaje.
var ErrAbort = errors.New("sink aborted persistence")

// Sink recibe cada mensaje parseado y el analisis final. El motor no posee
// almacenamiento propio: cualquier persistencia pasa por aca. Los errores del
// sink se registran como diagnosticos, salvo ErrAbort.
type Sink interface {
	Save(ctx context.Context, msg domain.Message) error
	SaveAnalysis(ctx context.Context, analysis *domain.ChatAnalysis) error
}
