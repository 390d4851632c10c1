package classifier

import (
	"context"
	"time"

	"chatsense/internal/domain"
)

// Mock permite tests sin un clasificador real. Delay simula latencia y
// respeta la cancelacion del contexto.
type Mock struct {
	Result *domain.ClassifierResult
	Err    error
	Delay  time.Duration
}

func (m *Mock) Classify(ctx context.Context, text string) (*domain.ClassifierResult, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.Result, m.Err
}
