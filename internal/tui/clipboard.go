package tui

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/atotto/clipboard"
)

// copyText copies text to the system clipboard. wl-copy is preferred on
// Wayland; otherwise the X11 tools known to atotto/clipboard are used.
func copyText(text string) error {
	if cmd := detectClipboardCommand(); cmd != "" {
		parts := strings.Fields(cmd)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		c := exec.CommandContext(ctx, parts[0], parts[1:]...)
		c.Stdin = strings.NewReader(text)
		return c.Run()
	}

	if clipboard.Unsupported {
		return fmt.Errorf("no clipboard command available")
	}
	return clipboard.WriteAll(text)
}

// detectClipboardCommand returns a Wayland clipboard command, if any.
func detectClipboardCommand() string {
	if _, err := exec.LookPath("wl-copy"); err == nil {
		return "wl-copy"
	}
	return ""
}
