package inject

import (
	"fmt"
	"time"

	"github.com/micmonay/keybd_event"
	"github.com/rs/zerolog"

	"whisperkey/internal/domain"
)

const defaultKeyDelay = 10 * time.Millisecond

// keyTapper presses and releases one key combination. Tests swap it out
// to avoid touching the real keyboard.
type keyTapper interface {
	tap(vk int, shift bool) error
}

type keybdTapper struct {
	kb keybd_event.KeyBonding
}

func (t *keybdTapper) tap(vk int, shift bool) error {
	t.kb.Clear()
	t.kb.SetKeys(vk)
	t.kb.HasSHIFT(shift)
	return t.kb.Launching()
}

// Typer emits transcribed text as synthetic keystrokes into whatever
// window holds focus.
type Typer struct {
	tapper keyTapper
	delay  time.Duration
	log    zerolog.Logger
}

func NewTyper(log zerolog.Logger) (*Typer, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("initialize key bonding: %w", err)
	}
	return &Typer{
		tapper: &keybdTapper{kb: kb},
		delay:  defaultKeyDelay,
		log:    log.With().Str("component", "inject").Logger(),
	}, nil
}

// TypeText types the string with a small inter-key delay. A failing
// keystroke does not abort the rest of the text; the first failure is
// reported after all characters were attempted.
func (t *Typer) TypeText(text string) error {
	return t.typeAll(text, t.delay)
}

// TypeFast types without inter-key delay.
func (t *Typer) TypeFast(text string) error {
	return t.typeAll(text, 0)
}

func (t *Typer) typeAll(text string, delay time.Duration) error {
	var firstErr error
	for _, r := range text {
		ks, ok := keystrokeFor(r)
		if !ok {
			t.log.Debug().Str("char", string(r)).Msg("no key mapping, skipping")
			continue
		}
		if err := t.tapper.tap(ks.vk, ks.shift); err != nil {
			t.log.Warn().Err(err).Str("char", string(r)).Msg("keystroke failed")
			if firstErr == nil {
				firstErr = &domain.InjectionError{Char: r, Err: err}
			}
			continue
		}
		if delay > 0 {
			time.Sleep(delay)
		}
	}
	return firstErr
}
