package usecase

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"whisperkey/internal/ports"
)

// hideDelay gives the overlay time to drop before keystrokes go out, so
// focus is back on the target window.
const hideDelay = 150 * time.Millisecond

// deliverer turns a raw transcription into typed output: rules rewrite
// the text, the overlay hides, and the result is injected as
// keystrokes. A rules failure falls back to the raw text rather than
// dropping the dictation.
type deliverer struct {
	injector ports.TextInjector
	display  ports.StatusDisplay
	delay    time.Duration
	log      zerolog.Logger

	mu    sync.Mutex
	rules ports.RulesEngine
}

func newDeliverer(rules ports.RulesEngine, injector ports.TextInjector, display ports.StatusDisplay, log zerolog.Logger) *deliverer {
	return &deliverer{
		injector: injector,
		display:  display,
		delay:    hideDelay,
		log:      log.With().Str("component", "deliverer").Logger(),
		rules:    rules,
	}
}

func (d *deliverer) setRules(rules ports.RulesEngine) {
	d.mu.Lock()
	d.rules = rules
	d.mu.Unlock()
}

// Deliver returns the text that was actually typed.
func (d *deliverer) Deliver(raw string) string {
	d.mu.Lock()
	rules := d.rules
	d.mu.Unlock()

	final := raw
	if rules != nil {
		transformed, err := rules.Apply(raw)
		if err != nil {
			d.log.Warn().Err(err).Msg("rules failed, typing raw transcription")
		} else {
			final = transformed
		}
	}

	d.display.Hide()
	if d.delay > 0 {
		time.Sleep(d.delay)
	}

	if err := d.injector.TypeText(final); err != nil {
		d.log.Warn().Err(err).Msg("some keystrokes failed during injection")
	}
	return final
}
