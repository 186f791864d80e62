package util

import "os"

// Files created by docker and podman inside every container they start
var containerMarkers = []string{"/.dockerenv", "/run/.containerenv"}

// IsRunningInContainer reports whether the process runs inside a docker or
// podman container
func IsRunningInContainer() bool {
	return hasAny(containerMarkers)
}

func hasAny(paths []string) bool {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}

	return false
}
