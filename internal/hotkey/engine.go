package hotkey

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"whisperkey/internal/ports"
)

type binding struct {
	chord    Chord
	callback func()
}

// Engine matches global key events against registered chords and fires
// callbacks. Matching is edge-triggered: on a match the entire pressed
// set is cleared, so one physical keystroke sequence fires at most one
// chord and cannot re-trigger until keys are released and pressed again.
type Engine struct {
	source ports.KeyEventSource
	log    zerolog.Logger

	mu      sync.Mutex
	hotkeys map[string]*binding
	pressed map[string]struct{}
	sub     ports.KeySubscription
	enabled bool
}

// NewEngine creates an engine listening on source once started.
func NewEngine(source ports.KeyEventSource, log zerolog.Logger) *Engine {
	return &Engine{
		source:  source,
		log:     log.With().Str("component", "hotkey").Logger(),
		hotkeys: make(map[string]*binding),
		pressed: make(map[string]struct{}),
		enabled: true,
	}
}

// Register stores a named chord and callback, overwriting any prior
// entry under the same name. An unparseable (empty) spec is logged and
// ignored.
func (e *Engine) Register(name, spec string, callback func()) {
	chord := ParseChord(spec)
	if len(chord) == 0 {
		e.log.Warn().Str("name", name).Str("spec", spec).Msg("invalid hotkey spec")
		return
	}

	e.mu.Lock()
	e.hotkeys[name] = &binding{chord: chord, callback: callback}
	e.mu.Unlock()
	e.log.Info().Str("name", name).Str("chord", chord.String()).Msg("hotkey registered")
}

// Registered reports whether a hotkey is currently bound under name.
func (e *Engine) Registered(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.hotkeys[name]
	return ok
}

// Unregister removes a named hotkey.
func (e *Engine) Unregister(name string) {
	e.mu.Lock()
	if _, ok := e.hotkeys[name]; ok {
		delete(e.hotkeys, name)
		e.log.Info().Str("name", name).Msg("hotkey unregistered")
	}
	e.mu.Unlock()
}

// Update replaces the chord of an existing hotkey, keeping its callback.
// Unknown names and empty specs are no-ops.
func (e *Engine) Update(name, spec string) {
	chord := ParseChord(spec)
	if len(chord) == 0 {
		return
	}

	e.mu.Lock()
	if b, ok := e.hotkeys[name]; ok {
		e.hotkeys[name] = &binding{chord: chord, callback: b.callback}
		e.log.Info().Str("name", name).Str("chord", chord.String()).Msg("hotkey updated")
	}
	e.mu.Unlock()
}

// Start subscribes to the key-event source. Idempotent.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sub != nil {
		return nil
	}

	sub, err := e.source.Subscribe(e.handle)
	if err != nil {
		return err
	}
	e.sub = sub
	e.log.Info().Msg("hotkey listener started")
	return nil
}

// Stop removes the key-event subscription. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	sub := e.sub
	e.sub = nil
	e.mu.Unlock()

	if sub != nil {
		_ = sub.Close()
		e.log.Info().Msg("hotkey listener stopped")
	}
}

// Enable resumes chord matching.
func (e *Engine) Enable() {
	e.mu.Lock()
	e.enabled = true
	e.mu.Unlock()
}

// Disable suspends chord matching while keeping the pressed-key set
// updated, so state stays correct across a settings capture session.
func (e *Engine) Disable() {
	e.mu.Lock()
	e.enabled = false
	e.mu.Unlock()
}

func (e *Engine) handle(ev ports.KeyEvent) {
	if ev.Token == "" {
		return
	}

	switch ev.Kind {
	case ports.KeyPress:
		e.onPress(ev.Token)
	case ports.KeyRelease:
		e.onRelease(ev.Token)
	}
}

func (e *Engine) onPress(token string) {
	e.mu.Lock()
	e.pressed[token] = struct{}{}
	if !e.enabled {
		e.mu.Unlock()
		return
	}

	fired := e.matchLocked()
	e.mu.Unlock()

	if fired != nil {
		// Callbacks run on their own goroutine so the key-event source
		// is never blocked by callback latency.
		go fired()
	}
}

// matchLocked scans registered chords in sorted-name order and returns
// the first satisfied callback. The pressed set is cleared on a match to
// prevent repeat triggers before full key release.
func (e *Engine) matchLocked() func() {
	names := make([]string, 0, len(e.hotkeys))
	for name := range e.hotkeys {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		b := e.hotkeys[name]
		if b.chord.SatisfiedBy(e.pressed) {
			e.pressed = make(map[string]struct{})
			e.log.Debug().Str("name", name).Msg("hotkey triggered")
			return b.callback
		}
	}
	return nil
}

func (e *Engine) onRelease(token string) {
	e.mu.Lock()
	delete(e.pressed, token)
	e.mu.Unlock()
}
