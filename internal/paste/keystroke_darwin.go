//go:build darwin

package paste

import (
	"fmt"
	"os/exec"
	"time"
)

// focusDelay gives the window manager time to return focus to the target
// application after the front-end hides its panel.
const focusDelay = 120 * time.Millisecond

// sendPasteKeystroke triggers Cmd+V in the foreground application via
// System Events. Requires the accessibility permission; failures are
// reported to the caller and otherwise ignored.
func sendPasteKeystroke() error {
	time.Sleep(focusDelay)
	script := `tell application "System Events" to keystroke "v" using {command down}`
	if out, err := exec.Command("osascript", "-e", script).CombinedOutput(); err != nil {
		return fmt.Errorf("osascript: %w (%s)", err, out)
	}
	return nil
}
