//go:build !linux && !darwin && !windows

package clip

// New returns a no-op backend suitable for unsupported platforms.
func New() Backend {
	return headlessBackend{}
}
