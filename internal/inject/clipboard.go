package inject

import (
	"context"

	"github.com/atotto/clipboard"
)

// SystemClipboard adapts the OS clipboard. The context parameters keep
// the port uniform; the underlying calls are synchronous.
type SystemClipboard struct{}

func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

func (c *SystemClipboard) SetText(_ context.Context, text string) error {
	return clipboard.WriteAll(text)
}

func (c *SystemClipboard) Text(_ context.Context) (string, error) {
	return clipboard.ReadAll()
}
