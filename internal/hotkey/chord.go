package hotkey

import (
	"sort"
	"strings"
)

// modifierOrder fixes the canonical render precedence for modifiers.
var modifierOrder = []string{"ctrl", "alt", "shift", "cmd"}

// Chord is an unordered set of normalized key tokens. A chord is
// satisfied when it is a subset of the currently pressed key set.
type Chord map[string]struct{}

// NormalizeToken maps a raw key name to its canonical token: letters and
// digits lowercased, modifier variants collapsed to ctrl/alt/shift/cmd.
func NormalizeToken(raw string) string {
	token := strings.ToLower(strings.TrimSpace(raw))
	switch token {
	case "ctrl", "control", "ctrl_l", "ctrl_r":
		return "ctrl"
	case "alt", "menu", "alt_l", "alt_r", "alt_gr":
		return "alt"
	case "shift", "shift_l", "shift_r":
		return "shift"
	case "cmd", "command", "win", "super", "meta", "cmd_l", "cmd_r":
		return "cmd"
	}
	return token
}

// ParseChord parses a human-readable spec like "Ctrl+Shift+R" into a
// chord set. Casing, spacing, and modifier aliases are normalized, so
// equivalent specs produce identical chords. An empty or blank spec
// yields an empty chord.
func ParseChord(spec string) Chord {
	spec = strings.ReplaceAll(spec, " ", "")
	if spec == "" {
		return Chord{}
	}

	chord := Chord{}
	for _, part := range strings.Split(spec, "+") {
		if token := NormalizeToken(part); token != "" {
			chord[token] = struct{}{}
		}
	}
	return chord
}

// SatisfiedBy reports whether every chord token is currently pressed.
func (c Chord) SatisfiedBy(pressed map[string]struct{}) bool {
	if len(c) == 0 {
		return false
	}
	for token := range c {
		if _, ok := pressed[token]; !ok {
			return false
		}
	}
	return true
}

// String renders the chord canonically: modifiers in ctrl, alt, shift,
// cmd precedence, then remaining tokens sorted, joined by "+".
func (c Chord) String() string {
	var parts []string
	for _, mod := range modifierOrder {
		if _, ok := c[mod]; ok {
			parts = append(parts, mod)
		}
	}

	var rest []string
	for token := range c {
		if !isModifier(token) {
			rest = append(rest, token)
		}
	}
	sort.Strings(rest)

	return strings.Join(append(parts, rest...), "+")
}

func isModifier(token string) bool {
	for _, mod := range modifierOrder {
		if token == mod {
			return true
		}
	}
	return false
}
