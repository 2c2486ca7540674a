//go:build linux

package loaders

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential tells the kernel the trace is read front to back once.
func adviseSequential(f *os.File) error {
	return unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
