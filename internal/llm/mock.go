package llm

import (
	"context"
	"strings"
	"time"

	"github.com/loqalabs/loqa-dictate/internal/rolling"
)

type mockCorrector struct {
	delay time.Duration
}

// NewMockCorrector returns a corrector that collapses whitespace after a short
// delay. It exists for demos and wiring tests without a model server.
func NewMockCorrector() Corrector { return &mockCorrector{delay: 20 * time.Millisecond} }

func (m *mockCorrector) Correct(ctx context.Context, raw string, _ rolling.Snapshot) (string, error) {
	select {
	case <-ctx.Done():
		return "", transportError(ctx, ctx.Err())
	case <-time.After(m.delay):
	}
	text := strings.Join(strings.Fields(raw), " ")
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
