package services

import (
	"context"
	"strings"

	"github.com/resync-dev/resync/internal/core/ports/driving"
)

// Ensure NopEnhancer implements the interface.
var _ driving.TaskEnhancer = (*NopEnhancer)(nil)

// NopEnhancer is the default task enhancer: it trims whitespace and
// otherwise returns the text unchanged. A richer rewriting hook can be
// plugged in through the driving.TaskEnhancer interface without
// touching the engine's control flow.
type NopEnhancer struct{}

// Enhance returns text with surrounding whitespace trimmed.
func (NopEnhancer) Enhance(_ context.Context, text string) (string, error) {
	return strings.TrimSpace(text), nil
}
