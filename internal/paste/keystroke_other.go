//go:build !darwin

package paste

import "errors"

// sendPasteKeystroke is unsupported here: the clipboard is written and the
// user pastes manually.
func sendPasteKeystroke() error {
	return errors.New("keystroke injection not supported on this platform")
}
