//go:build !windows

package keysource

import (
	"fmt"

	"github.com/rs/zerolog"

	"whisperkey/internal/ports"
)

// Hook is the non-Windows placeholder key-event source.
type Hook struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Hook {
	return &Hook{log: log.With().Str("component", "keysource").Logger()}
}

func (h *Hook) Subscribe(func(ports.KeyEvent)) (ports.KeySubscription, error) {
	return nil, fmt.Errorf("global keyboard hook is not supported on this platform")
}
