package inject

import "github.com/micmonay/keybd_event"

// keystroke is a virtual key plus its shift state for a US layout.
type keystroke struct {
	vk    int
	shift bool
}

var keymap = map[rune]keystroke{
	'a': {keybd_event.VK_A, false}, 'A': {keybd_event.VK_A, true},
	'b': {keybd_event.VK_B, false}, 'B': {keybd_event.VK_B, true},
	'c': {keybd_event.VK_C, false}, 'C': {keybd_event.VK_C, true},
	'd': {keybd_event.VK_D, false}, 'D': {keybd_event.VK_D, true},
	'e': {keybd_event.VK_E, false}, 'E': {keybd_event.VK_E, true},
	'f': {keybd_event.VK_F, false}, 'F': {keybd_event.VK_F, true},
	'g': {keybd_event.VK_G, false}, 'G': {keybd_event.VK_G, true},
	'h': {keybd_event.VK_H, false}, 'H': {keybd_event.VK_H, true},
	'i': {keybd_event.VK_I, false}, 'I': {keybd_event.VK_I, true},
	'j': {keybd_event.VK_J, false}, 'J': {keybd_event.VK_J, true},
	'k': {keybd_event.VK_K, false}, 'K': {keybd_event.VK_K, true},
	'l': {keybd_event.VK_L, false}, 'L': {keybd_event.VK_L, true},
	'm': {keybd_event.VK_M, false}, 'M': {keybd_event.VK_M, true},
	'n': {keybd_event.VK_N, false}, 'N': {keybd_event.VK_N, true},
	'o': {keybd_event.VK_O, false}, 'O': {keybd_event.VK_O, true},
	'p': {keybd_event.VK_P, false}, 'P': {keybd_event.VK_P, true},
	'q': {keybd_event.VK_Q, false}, 'Q': {keybd_event.VK_Q, true},
	'r': {keybd_event.VK_R, false}, 'R': {keybd_event.VK_R, true},
	's': {keybd_event.VK_S, false}, 'S': {keybd_event.VK_S, true},
	't': {keybd_event.VK_T, false}, 'T': {keybd_event.VK_T, true},
	'u': {keybd_event.VK_U, false}, 'U': {keybd_event.VK_U, true},
	'v': {keybd_event.VK_V, false}, 'V': {keybd_event.VK_V, true},
	'w': {keybd_event.VK_W, false}, 'W': {keybd_event.VK_W, true},
	'x': {keybd_event.VK_X, false}, 'X': {keybd_event.VK_X, true},
	'y': {keybd_event.VK_Y, false}, 'Y': {keybd_event.VK_Y, true},
	'z': {keybd_event.VK_Z, false}, 'Z': {keybd_event.VK_Z, true},

	'0': {keybd_event.VK_0, false}, ')': {keybd_event.VK_0, true},
	'1': {keybd_event.VK_1, false}, '!': {keybd_event.VK_1, true},
	'2': {keybd_event.VK_2, false}, '@': {keybd_event.VK_2, true},
	'3': {keybd_event.VK_3, false}, '#': {keybd_event.VK_3, true},
	'4': {keybd_event.VK_4, false}, '$': {keybd_event.VK_4, true},
	'5': {keybd_event.VK_5, false}, '%': {keybd_event.VK_5, true},
	'6': {keybd_event.VK_6, false}, '^': {keybd_event.VK_6, true},
	'7': {keybd_event.VK_7, false}, '&': {keybd_event.VK_7, true},
	'8': {keybd_event.VK_8, false}, '*': {keybd_event.VK_8, true},
	'9': {keybd_event.VK_9, false}, '(': {keybd_event.VK_9, true},

	' ':  {keybd_event.VK_SPACE, false},
	'\n': {keybd_event.VK_ENTER, false},
	'\t': {keybd_event.VK_TAB, false},

	'`': {keybd_event.VK_SP1, false}, '~': {keybd_event.VK_SP1, true},
	'-': {keybd_event.VK_SP2, false}, '_': {keybd_event.VK_SP2, true},
	'=': {keybd_event.VK_SP3, false}, '+': {keybd_event.VK_SP3, true},
	'[': {keybd_event.VK_SP4, false}, '{': {keybd_event.VK_SP4, true},
	']': {keybd_event.VK_SP5, false}, '}': {keybd_event.VK_SP5, true},
	'\\': {keybd_event.VK_SP6, false}, '|': {keybd_event.VK_SP6, true},
	';': {keybd_event.VK_SP7, false}, ':': {keybd_event.VK_SP7, true},
	'\'': {keybd_event.VK_SP8, false}, '"': {keybd_event.VK_SP8, true},
	',': {keybd_event.VK_SP9, false}, '<': {keybd_event.VK_SP9, true},
	'.': {keybd_event.VK_SP10, false}, '>': {keybd_event.VK_SP10, true},
	'/': {keybd_event.VK_SP11, false}, '?': {keybd_event.VK_SP11, true},
}

// keystrokeFor resolves a rune to its key combination. Runes outside
// the US layout report ok=false and are skipped by the typer.
func keystrokeFor(r rune) (keystroke, bool) {
	ks, ok := keymap[r]
	return ks, ok
}
