// +build linux

package z

import "golang.org/x/sys/unix"

// AvailableMemory returns a conservative estimate of free host memory
// in bytes, read via unix.Sysinfo the same way mmap_linux.go reaches
// into golang.org/x/sys/unix for other OS-level memory operations.
// Used as the "device-available-memory query" fallback when no GPU
// backend is in play.
func AvailableMemory() (uint64, bool) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, false
	}
	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	return uint64(info.Freeram) * unit, true
}
