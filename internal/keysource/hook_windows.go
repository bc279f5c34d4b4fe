//go:build windows

package keysource

import (
	"fmt"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"github.com/rs/zerolog"

	"whisperkey/internal/ports"
)

const (
	whKeyboardLL  = 13
	wmKeydown     = 0x0100
	wmKeyup       = 0x0101
	wmSyskeydown  = 0x0104
	wmSyskeyup    = 0x0105
	llkhfInjected = 0x10
)

type kbdllHookStruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

// Hook is a WH_KEYBOARD_LL based key-event source. The OS hook callback
// only enqueues; a dispatch goroutine fans events out to subscribers, so
// slow handlers can never stall key delivery. Injected (synthetic)
// events are dropped so the typer's own keystrokes do not feed back into
// the hotkey engine.
type Hook struct {
	log zerolog.Logger

	mu      sync.Mutex
	subs    map[int]func(ports.KeyEvent)
	nextID  int
	started bool

	events chan ports.KeyEvent
}

// New creates the hook. The OS-level hook is installed lazily on the
// first subscription.
func New(log zerolog.Logger) *Hook {
	return &Hook{
		log:    log.With().Str("component", "keysource").Logger(),
		subs:   make(map[int]func(ports.KeyEvent)),
		events: make(chan ports.KeyEvent, 256),
	}
}

// Subscribe registers a handler for normalized press/release events.
func (h *Hook) Subscribe(handler func(ports.KeyEvent)) (ports.KeySubscription, error) {
	h.mu.Lock()
	needStart := !h.started
	if needStart {
		h.started = true
	}
	h.nextID++
	id := h.nextID
	h.subs[id] = handler
	h.mu.Unlock()

	if needStart {
		if err := h.install(); err != nil {
			h.mu.Lock()
			delete(h.subs, id)
			h.started = false
			h.mu.Unlock()
			return nil, err
		}
		go h.dispatch()
	}

	return &subscription{hook: h, id: id}, nil
}

func (h *Hook) dispatch() {
	for ev := range h.events {
		h.mu.Lock()
		handlers := make([]func(ports.KeyEvent), 0, len(h.subs))
		for _, fn := range h.subs {
			handlers = append(handlers, fn)
		}
		h.mu.Unlock()

		for _, fn := range handlers {
			fn(ev)
		}
	}
}

// install sets the low-level hook on a locked OS thread and runs its
// message loop for the process lifetime.
func (h *Hook) install() error {
	errCh := make(chan error, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		user32 := syscall.NewLazyDLL("user32.dll")
		procSetWindowsHookExW := user32.NewProc("SetWindowsHookExW")
		procUnhookWindowsHookEx := user32.NewProc("UnhookWindowsHookEx")
		procCallNextHookEx := user32.NewProc("CallNextHookEx")
		procGetMessageW := user32.NewProc("GetMessageW")

		callback := syscall.NewCallback(func(nCode, wParam, lParam uintptr) uintptr {
			if int32(nCode) >= 0 {
				k := (*kbdllHookStruct)(unsafe.Pointer(lParam))
				if k.flags&llkhfInjected == 0 {
					h.enqueue(uint32(wParam), k.vkCode)
				}
			}
			ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
			return ret
		})

		hook, _, _ := procSetWindowsHookExW.Call(uintptr(whKeyboardLL), callback, 0, 0)
		if hook == 0 {
			errCh <- fmt.Errorf("SetWindowsHookExW failed")
			return
		}
		errCh <- nil
		h.log.Info().Msg("keyboard hook installed")

		var msg struct {
			Hwnd    uintptr
			Message uint32
			WParam  uintptr
			LParam  uintptr
			Time    uint32
			PtX     int32
			PtY     int32
		}
		for {
			ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
			if int32(ret) <= 0 {
				break
			}
		}

		procUnhookWindowsHookEx.Call(hook)
		h.log.Info().Msg("keyboard hook removed")
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		return fmt.Errorf("timeout installing keyboard hook")
	}
}

func (h *Hook) enqueue(msg, vk uint32) {
	token := vkToToken(vk)
	if token == "" {
		return
	}

	var kind ports.KeyEventKind
	switch msg {
	case wmKeydown, wmSyskeydown:
		kind = ports.KeyPress
	case wmKeyup, wmSyskeyup:
		kind = ports.KeyRelease
	default:
		return
	}

	// Drop rather than block when the dispatch queue is saturated.
	select {
	case h.events <- ports.KeyEvent{Token: token, Kind: kind}:
	default:
		h.log.Warn().Str("token", token).Msg("key event queue full, dropping")
	}
}

// vkToToken maps a virtual-key code to its canonical token. Left/right
// modifier variants collapse to one token. Unmapped keys yield "".
func vkToToken(vk uint32) string {
	switch {
	case vk >= 'A' && vk <= 'Z':
		return string(rune('a' + vk - 'A'))
	case vk >= '0' && vk <= '9':
		return string(rune(vk))
	case vk >= 0x70 && vk <= 0x87: // F1..F24
		return fmt.Sprintf("f%d", vk-0x70+1)
	case vk >= 0x60 && vk <= 0x69: // numpad 0..9
		return fmt.Sprintf("numpad%d", vk-0x60)
	}

	switch vk {
	case 0x10, 0xA0, 0xA1:
		return "shift"
	case 0x11, 0xA2, 0xA3:
		return "ctrl"
	case 0x12, 0xA4, 0xA5:
		return "alt"
	case 0x5B, 0x5C:
		return "cmd"
	case 0x20:
		return "space"
	case 0x0D:
		return "enter"
	case 0x09:
		return "tab"
	case 0x1B:
		return "esc"
	case 0x08:
		return "backspace"
	case 0x2D:
		return "insert"
	case 0x2E:
		return "delete"
	case 0x24:
		return "home"
	case 0x23:
		return "end"
	case 0x21:
		return "pageup"
	case 0x22:
		return "pagedown"
	case 0x25:
		return "left"
	case 0x26:
		return "up"
	case 0x27:
		return "right"
	case 0x28:
		return "down"
	}
	return ""
}

type subscription struct {
	hook *Hook
	id   int
}

func (s *subscription) Close() error {
	s.hook.mu.Lock()
	defer s.hook.mu.Unlock()
	delete(s.hook.subs, s.id)
	return nil
}
