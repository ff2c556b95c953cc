package llm

import (
	"context"

	"github.com/loqalabs/loqa-dictate/internal/rolling"
)

// Corrector improves a raw transcript using the rolling context. The caller
// bounds the call with ctx; implementations report failures with the
// sentinel errors in this package.
type Corrector interface {
	Correct(ctx context.Context, raw string, snap rolling.Snapshot) (string, error)
}

// Options are shared by the network-backed correctors.
type Options struct {
	Endpoint    string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Language    string
}
