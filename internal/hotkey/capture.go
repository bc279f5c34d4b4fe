package hotkey

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"whisperkey/internal/ports"
)

// Capture records one chord from user input for the settings dialog.
// Every press accumulates into a working set; the first release after at
// least one press finalizes the chord and delivers it exactly once. The
// caller is expected to disable the hotkey engine while a capture
// session is active so the chord being recorded cannot trigger it.
type Capture struct {
	source  ports.KeyEventSource
	deliver func(chord string)
	log     zerolog.Logger

	mu      sync.Mutex
	sub     ports.KeySubscription
	pressed map[string]struct{}
	order   []string
	done    bool
}

// NewCapture creates a capture session delivering the rendered chord to
// onCapture.
func NewCapture(source ports.KeyEventSource, log zerolog.Logger, onCapture func(chord string)) *Capture {
	return &Capture{
		source:  source,
		deliver: onCapture,
		log:     log.With().Str("component", "hotkey-capture").Logger(),
		pressed: make(map[string]struct{}),
	}
}

// Start begins listening for the chord.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub != nil || c.done {
		return nil
	}

	sub, err := c.source.Subscribe(c.handle)
	if err != nil {
		return err
	}
	c.sub = sub
	return nil
}

// Stop cancels the session without delivering a result. A no-op once the
// chord has been finalized.
func (c *Capture) Stop() {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.done = true
	c.mu.Unlock()

	if sub != nil {
		_ = sub.Close()
	}
}

func (c *Capture) handle(ev ports.KeyEvent) {
	if ev.Token == "" {
		return
	}

	switch ev.Kind {
	case ports.KeyPress:
		c.mu.Lock()
		if !c.done {
			if _, seen := c.pressed[ev.Token]; !seen {
				c.pressed[ev.Token] = struct{}{}
				c.order = append(c.order, ev.Token)
			}
		}
		c.mu.Unlock()

	case ports.KeyRelease:
		c.finalize()
	}
}

// finalize renders the captured chord and tears the listener down. The
// first release after at least one press completes the session.
func (c *Capture) finalize() {
	c.mu.Lock()
	if c.done || len(c.pressed) == 0 {
		c.mu.Unlock()
		return
	}
	c.done = true
	sub := c.sub
	c.sub = nil
	chord := renderChord(c.order)
	c.mu.Unlock()

	if sub != nil {
		_ = sub.Close()
	}
	c.log.Info().Str("chord", chord).Msg("hotkey captured")
	c.deliver(chord)
}

// renderChord joins modifiers in fixed precedence order followed by
// non-modifier tokens in encounter order.
func renderChord(order []string) string {
	present := make(map[string]struct{}, len(order))
	for _, token := range order {
		present[token] = struct{}{}
	}

	var parts []string
	for _, mod := range modifierOrder {
		if _, ok := present[mod]; ok {
			parts = append(parts, mod)
		}
	}
	for _, token := range order {
		if !isModifier(token) {
			parts = append(parts, token)
		}
	}
	return strings.Join(parts, "+")
}
