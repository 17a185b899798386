// Package ai defines the text-generation collaborator used by the agent stage.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const ProviderGemini = "gemini"

// ErrUnavailable is returned by a generator that cannot serve requests.
var ErrUnavailable = errors.New("text generation is unavailable")

// Generator turns a prompt into prose. Implementations may fail; callers
// substitute their own fallback text.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Unavailable is a Generator that always fails. It stands in when no
// provider is configured so that every caller takes its fallback path.
type Unavailable struct {
	Reason string
}

func (u Unavailable) GenerateContent(context.Context, string) (string, error) {
	reason := strings.TrimSpace(u.Reason)
	if reason == "" {
		return "", ErrUnavailable
	}
	return "", fmt.Errorf("%w: %s", ErrUnavailable, reason)
}
