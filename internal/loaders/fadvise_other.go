//go:build !linux

package loaders

import "os"

func adviseSequential(f *os.File) error {
	return nil
}
