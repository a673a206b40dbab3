//go:build linux || darwin || windows

package clip

import (
	"log/slog"
	"runtime"

	"golang.design/x/clipboard"
)

type systemBackend struct{}

// New returns the system clipboard backend, or a headless no-op backend if
// the display environment is unavailable (e.g. a server without X11 or
// Wayland). clipboard.Init is called here rather than in init() so that CLI
// sub-commands that never touch the clipboard don't trigger the warning.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return headlessBackend{}
	}
	return systemBackend{}
}

func (systemBackend) Name() string {
	return runtime.GOOS + " clipboard (golang.design/x/clipboard)"
}

func (systemBackend) ReadText() string {
	return string(clipboard.Read(clipboard.FmtText))
}

func (systemBackend) ReadImage() []byte {
	return clipboard.Read(clipboard.FmtImage)
}

func (systemBackend) WriteText(text string) {
	clipboard.Write(clipboard.FmtText, []byte(text))
}

func (systemBackend) WriteImage(png []byte) {
	clipboard.Write(clipboard.FmtImage, png)
}

func (systemBackend) Close() {}
